// Package config loads playground settings from a TOML file, with environment overrides.
package config

import (
	"io"
	"io/fs"
	"os"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/gobuffalo/envy"
	"github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"
)

const (
	EnvConfigPath = "PLAYGROUND_CONFIG"
	EnvLogLevel   = "PLAYGROUND_LOG_LEVEL"
	EnvValidation = "PLAYGROUND_VALIDATION"

	DefaultPath = "playground.toml"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Window struct {
	Title  string `toml:"title"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
}

type Renderer struct {
	Validation bool `toml:"validation"`
	// PresentMode is "mailbox", "fifo" or "immediate". Unsupported modes fall back to fifo.
	PresentMode   string `toml:"present_mode"`
	MSAA          bool   `toml:"msaa"`
	PipelineCache string `toml:"pipeline_cache"`
	HotReload     bool   `toml:"hot_reload"`
}

type Assets struct {
	VertexShader   string `toml:"vertex_shader"`
	FragmentShader string `toml:"fragment_shader"`
	Texture        string `toml:"texture"`
}

type Camera struct {
	Speed       float32 `toml:"speed"`
	FOV         float32 `toml:"fov"`
	Near        float32 `toml:"near"`
	Far         float32 `toml:"far"`
	Sensitivity float32 `toml:"sensitivity"`
}

type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type Configuration struct {
	Window   Window   `toml:"window"`
	Renderer Renderer `toml:"renderer"`
	Assets   Assets   `toml:"assets"`
	Camera   Camera   `toml:"camera"`
	Log      Log      `toml:"log"`
}

func Default() Configuration {
	return Configuration{
		Window: Window{
			Title:  "Vulkan Playground",
			Width:  1024,
			Height: 768,
		},
		Renderer: Renderer{
			Validation:    true,
			PresentMode:   "mailbox",
			PipelineCache: "pipeline_cache.bin",
		},
		Assets: Assets{
			VertexShader:   "res/basic_vert.spv",
			FragmentShader: "res/basic_frag.spv",
			Texture:        "res/block_blue.png",
		},
		Camera: Camera{
			Speed:       8,
			FOV:         45,
			Near:        0.1,
			Far:         100,
			Sensitivity: 0.002,
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
	}
}

// Path returns the configuration file named by PLAYGROUND_CONFIG, or playground.toml.
func Path() string {
	return envy.Get(EnvConfigPath, DefaultPath)
}

// Load reads path over the defaults and applies environment overrides. A missing file is not
// an error. The environment, including any .env file, is re-read on every call.
func Load(path string) (Configuration, error) {
	cfg := Default()
	envy.Reload()

	f, err := os.Open(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, errors.Wrapf(err, "opening config %s", path)
	} else if err == nil {
		defer f.Close()
		if err := Decode(f, &cfg); err != nil {
			return cfg, errors.Wrapf(err, "config %s", path)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Decode reads TOML from r into cfg. Keys that do not map to a field are rejected.
func Decode(r io.Reader, cfg *Configuration) error {
	err := toml.NewDecoder(r).DisallowUnknownFields().Decode(cfg)
	if err != nil {
		return errors.Mark(errors.Wrap(err, "decoding toml"), ErrInvalidConfig)
	}
	return nil
}

func applyEnv(cfg *Configuration) error {
	cfg.Log.Level = envy.Get(EnvLogLevel, cfg.Log.Level)

	validation := envy.Get(EnvValidation, "")
	if validation != "" {
		enabled, err := strconv.ParseBool(validation)
		if err != nil {
			return errors.Mark(errors.Wrapf(err, "%s=%q", EnvValidation, validation), ErrInvalidConfig)
		}
		cfg.Renderer.Validation = enabled
	}
	return nil
}

func (c Configuration) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return errors.Mark(errors.Newf("window size %dx%d", c.Window.Width, c.Window.Height), ErrInvalidConfig)
	}

	switch c.Renderer.PresentMode {
	case "mailbox", "fifo", "immediate":
	default:
		return errors.Mark(errors.Newf("unknown present mode %q", c.Renderer.PresentMode), ErrInvalidConfig)
	}

	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		return errors.Mark(errors.Newf("camera depth range %g..%g", c.Camera.Near, c.Camera.Far), ErrInvalidConfig)
	}

	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return errors.Mark(errors.Wrap(err, "log level"), ErrInvalidConfig)
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		return errors.Mark(errors.Newf("unknown log format %q", c.Log.Format), ErrInvalidConfig)
	}
	return nil
}

// ConfigureLogger applies the level and format to logger.
func ConfigureLogger(logger *logrus.Logger, cfg Log) error {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return errors.Mark(errors.Wrap(err, "log level"), ErrInvalidConfig)
	}
	logger.SetLevel(level)

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return nil
}
