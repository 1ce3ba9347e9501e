package remote

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-spin/common"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Command is a playback instruction received from the broker.
type Command int

const (
	CommandPlay Command = iota
	CommandPause
	CommandStop
	CommandToggle
)

func (c Command) String() string {
	switch c {
	case CommandPlay:
		return "play"
	case CommandPause:
		return "pause"
	case CommandStop:
		return "stop"
	case CommandToggle:
		return "toggle"
	default:
		return fmt.Sprintf("Command(%d)", int(c))
	}
}

// ParseCommand decodes a message payload. Surrounding whitespace and letter case are ignored.
//
// Parameters:
//   - payload: the raw MQTT payload
//
// Returns:
//   - Command: the decoded command
//   - error: a common.ErrConfiguration error for an unknown command
func ParseCommand(payload []byte) (Command, error) {
	switch strings.ToLower(string(bytes.TrimSpace(payload))) {
	case "play", "resume":
		return CommandPlay, nil
	case "pause":
		return CommandPause, nil
	case "stop":
		return CommandStop, nil
	case "toggle":
		return CommandToggle, nil
	default:
		return 0, fmt.Errorf("%w: unknown remote command %q", common.ErrConfiguration, payload)
	}
}

// controllerImpl is the implementation of the Controller interface.
type controllerImpl struct {
	mu *sync.Mutex

	broker      string
	clientID    string
	username    string
	password    string
	topic       string
	statusTopic string
	qos         byte
	timeout     time.Duration

	client   mqtt.Client
	commands chan Command
	dropped  uint64
	closed   bool
}

// Controller receives playback commands over MQTT. The paho callback goroutine only parses and
// enqueues; the render loop drains Commands and applies them.
type Controller interface {
	// Connect dials the broker and subscribes to the command topic. The subscription is renewed
	// on every reconnect.
	//
	// Returns:
	//   - error: a common.ErrResource error if the broker could not be reached
	Connect() error

	// Commands returns the queue of received commands.
	Commands() <-chan Command

	// PublishState publishes the scene state as a retained message on the status topic. It is a
	// no-op when no status topic is configured or the client is not connected.
	//
	// Parameters:
	//   - state: the state name
	PublishState(state string)

	// Dropped returns the number of commands discarded because the queue was full.
	Dropped() uint64

	// Close disconnects from the broker.
	Close()
}

var _ Controller = &controllerImpl{}

// NewController creates a controller for the given broker URL, e.g. "tcp://localhost:1883".
// The command topic defaults to "oxy-spin/control" with QoS 1.
//
// Parameters:
//   - broker: the broker URL
//   - options: variadic list of ControllerBuilderOption functions to configure the controller
//
// Returns:
//   - Controller: the controller, not yet connected
func NewController(broker string, options ...ControllerBuilderOption) Controller {
	c := &controllerImpl{
		mu:       &sync.Mutex{},
		broker:   broker,
		clientID: "oxy-spin",
		topic:    "oxy-spin/control",
		qos:      1,
		timeout:  10 * time.Second,
		commands: make(chan Command, 16),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

func (c *controllerImpl) Connect() error {
	c.mu.Lock()
	if c.client == nil {
		opts := mqtt.NewClientOptions().
			AddBroker(c.broker).
			SetClientID(c.clientID).
			SetUsername(c.username).
			SetPassword(c.password).
			SetKeepAlive(30 * time.Second).
			SetPingTimeout(5 * time.Second).
			SetAutoReconnect(true).
			SetOnConnectHandler(c.handleConnect).
			SetConnectionLostHandler(c.handleConnectionLost)
		c.client = mqtt.NewClient(opts)
	}
	client := c.client
	c.mu.Unlock()

	token := client.Connect()
	if !token.WaitTimeout(c.timeout) {
		return fmt.Errorf("%w: mqtt connect to %s timed out after %v", common.ErrResource, c.broker, c.timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: mqtt connect to %s: %w", common.ErrResource, c.broker, err)
	}
	return nil
}

func (c *controllerImpl) handleConnect(client mqtt.Client) {
	common.Logger().Info("[Remote] connected", "broker", c.broker, "topic", c.topic)
	if token := client.Subscribe(c.topic, c.qos, c.handleMessage); token.Wait() && token.Error() != nil {
		common.Logger().Error("[Remote] subscribe failed", "topic", c.topic, "error", token.Error())
	}
}

func (c *controllerImpl) handleConnectionLost(_ mqtt.Client, err error) {
	common.Logger().Warn("[Remote] connection lost", "broker", c.broker, "error", err)
}

func (c *controllerImpl) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	cmd, err := ParseCommand(msg.Payload())
	if err != nil {
		common.Logger().Warn("[Remote] ignoring message", "topic", msg.Topic(), "error", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.commands <- cmd:
		common.Logger().Debug("[Remote] command queued", "command", cmd.String())
	default:
		c.dropped++
		common.Logger().Warn("[Remote] command queue full, dropping", "command", cmd.String())
	}
}

func (c *controllerImpl) Commands() <-chan Command {
	return c.commands
}

func (c *controllerImpl) PublishState(state string) {
	c.mu.Lock()
	client := c.client
	c.mu.Unlock()

	if c.statusTopic == "" || client == nil || !client.IsConnected() {
		return
	}
	// fire and forget, the render loop must not wait on the broker
	client.Publish(c.statusTopic, c.qos, true, state)
}

func (c *controllerImpl) Dropped() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}

func (c *controllerImpl) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	if c.client != nil && c.client.IsConnected() {
		c.client.Unsubscribe(c.topic)
		c.client.Disconnect(250)
	}
	common.Logger().Info("[Remote] closed", "dropped", c.dropped)
}
