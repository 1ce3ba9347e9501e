package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/Carmen-Shannon/oxy-spin/common"
	"github.com/Carmen-Shannon/oxy-spin/engine"
	"github.com/Carmen-Shannon/oxy-spin/engine/config"
	"github.com/Carmen-Shannon/oxy-spin/engine/profiler"
	"github.com/Carmen-Shannon/oxy-spin/engine/remote"
	"github.com/Carmen-Shannon/oxy-spin/engine/renderer"
	"github.com/Carmen-Shannon/oxy-spin/engine/window"
)

type options struct {
	demo        string
	configPath  string
	dump        bool
	broker      string
	topic       string
	statusTopic string
	username    string
	password    string
	headless    bool
	frames      uint64
	fps         float64
	vsync       bool
	software    bool
	profile     bool
	verbose     bool
	width       int
	height      int
}

func parseFlags() *options {
	o := &options{}
	flag.StringVar(&o.demo, "demo", "icosphere", "Built-in scene: "+strings.Join(config.PresetNames(), ", ")+".")
	flag.StringVar(&o.configPath, "config", "", "YAML scene file. Overrides -demo.")
	flag.BoolVar(&o.dump, "dump", false, "Print the selected scene as YAML and exit.")
	flag.StringVar(&o.broker, "mqtt", "", "MQTT broker URL for remote control, e.g. tcp://localhost:1883.")
	flag.StringVar(&o.topic, "topic", "oxy-spin/control", "MQTT topic carrying play, pause, stop and toggle commands.")
	flag.StringVar(&o.statusTopic, "status-topic", "oxy-spin/state", "MQTT topic the scene state is published to. Empty disables it.")
	flag.StringVar(&o.username, "mqtt-user", "", "MQTT username.")
	flag.StringVar(&o.password, "mqtt-password", "", "MQTT password.")
	flag.BoolVar(&o.headless, "headless", false, "Render into memory without a window or GPU.")
	flag.Uint64Var(&o.frames, "frames", 0, "Stop after this many frames (0 = run until closed).")
	flag.Float64Var(&o.fps, "fps", 0, "Frame rate cap (0 = uncapped).")
	flag.BoolVar(&o.vsync, "vsync", true, "Wait for vertical blank when presenting.")
	flag.BoolVar(&o.software, "software", false, "Force the software fallback adapter.")
	flag.BoolVar(&o.profile, "profile", false, "Log frame statistics every second.")
	flag.BoolVar(&o.verbose, "v", false, "Debug logging.")
	flag.IntVar(&o.width, "width", 1280, "Window width in pixels.")
	flag.IntVar(&o.height, "height", 720, "Window height in pixels.")
	flag.Parse()
	return o
}

func loadScene(o *options) (*config.SceneConfig, error) {
	if o.configPath != "" {
		return config.Load(o.configPath)
	}
	return config.Preset(o.demo)
}

func main() {
	o := parseFlags()

	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	common.SetLogger(slog.New(handler))
	mqtt.ERROR = slog.NewLogLogger(handler, slog.LevelError)

	if err := run(o); err != nil {
		fmt.Fprintln(os.Stderr, "oxy-spin:", err)
		os.Exit(1)
	}
}

func run(o *options) error {
	cfg, err := loadScene(o)
	if err != nil {
		return err
	}
	if o.dump {
		data, err := cfg.Marshal()
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var engineOpts []engine.EngineBuilderOption
	var backend renderer.GraphicsBackend

	if o.headless {
		backend = renderer.NewHeadlessBackend()
		engineOpts = append(engineOpts,
			engine.WithHeadlessSize(o.width, o.height),
			engine.WithFixedStep(time.Second/60),
		)
	} else {
		win, err := window.NewWindow(
			window.WithTitle("oxy-spin - "+cfg.Name),
			window.WithSize(o.width, o.height),
		)
		if err != nil {
			return err
		}
		defer win.Close()

		presentMode := renderer.PresentModeVSync
		if !o.vsync {
			presentMode = renderer.PresentModeUncapped
		}
		w, h := win.Size()
		backend, err = renderer.NewWGPUBackend(win.SurfaceDescriptor(), w, h,
			renderer.WithPresentMode(presentMode),
			renderer.WithForceSoftwareRenderer(o.software),
		)
		if err != nil {
			return err
		}
		engineOpts = append(engineOpts, engine.WithWindow(win))
	}
	defer backend.Release()

	s, err := config.Build(cfg, backend)
	if err != nil {
		return err
	}

	if o.broker != "" {
		ctrl := remote.NewController(o.broker,
			remote.WithTopic(o.topic),
			remote.WithStatusTopic(o.statusTopic),
			remote.WithCredentials(o.username, o.password),
			remote.WithClientID(fmt.Sprintf("oxy-spin-%d", os.Getpid())),
		)
		if err := ctrl.Connect(); err != nil {
			return err
		}
		defer ctrl.Close()
		engineOpts = append(engineOpts, engine.WithRemote(ctrl))
	}

	engineOpts = append(engineOpts,
		engine.WithProfiling(o.profile),
		engine.WithProfiler(profiler.NewProfiler(profiler.WithMemStats(o.verbose))),
		engine.WithRenderFrameLimit(o.fps),
		engine.WithMaxFrames(o.frames),
	)

	e, err := engine.NewEngine(s, backend, engineOpts...)
	if err != nil {
		return err
	}
	common.Logger().Info("[Main] running", "scene", cfg.Name, "headless", o.headless, "remote", o.broker != "")
	return e.Run(ctx)
}
