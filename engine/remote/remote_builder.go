package remote

import "time"

// ControllerBuilderOption is a functional option applied to a Controller during construction via NewController.
type ControllerBuilderOption func(*controllerImpl)

// WithTopic sets the topic commands are received on.
//
// Parameters:
//   - topic: the MQTT topic
//
// Returns:
//   - ControllerBuilderOption: a function that applies the topic option
func WithTopic(topic string) ControllerBuilderOption {
	return func(c *controllerImpl) {
		if topic != "" {
			c.topic = topic
		}
	}
}

// WithStatusTopic sets the topic the scene state is published to. Empty disables publishing.
func WithStatusTopic(topic string) ControllerBuilderOption {
	return func(c *controllerImpl) {
		c.statusTopic = topic
	}
}

// WithClientID sets the MQTT client identifier.
func WithClientID(id string) ControllerBuilderOption {
	return func(c *controllerImpl) {
		if id != "" {
			c.clientID = id
		}
	}
}

// WithCredentials sets the broker username and password.
//
// Parameters:
//   - username: the broker username
//   - password: the broker password
//
// Returns:
//   - ControllerBuilderOption: a function that applies the credentials option
func WithCredentials(username, password string) ControllerBuilderOption {
	return func(c *controllerImpl) {
		c.username = username
		c.password = password
	}
}

// WithQoS sets the quality of service used for the subscription and status messages.
func WithQoS(qos byte) ControllerBuilderOption {
	return func(c *controllerImpl) {
		if qos <= 2 {
			c.qos = qos
		}
	}
}

// WithQueueSize sets how many unapplied commands are buffered before new ones are dropped.
func WithQueueSize(n int) ControllerBuilderOption {
	return func(c *controllerImpl) {
		if n > 0 {
			c.commands = make(chan Command, n)
		}
	}
}

// WithConnectTimeout bounds how long Connect waits for the broker.
func WithConnectTimeout(d time.Duration) ControllerBuilderOption {
	return func(c *controllerImpl) {
		if d > 0 {
			c.timeout = d
		}
	}
}
