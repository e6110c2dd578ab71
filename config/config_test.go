package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "playground.toml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[window]
width = 640
height = 480

[renderer]
present_mode = "fifo"
msaa = true

[camera]
speed = 2.5
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 640, cfg.Window.Width)
	require.Equal(t, 480, cfg.Window.Height)
	require.Equal(t, "Vulkan Playground", cfg.Window.Title)
	require.Equal(t, "fifo", cfg.Renderer.PresentMode)
	require.True(t, cfg.Renderer.MSAA)
	require.True(t, cfg.Renderer.Validation)
	require.Equal(t, float32(2.5), cfg.Camera.Speed)
	require.Equal(t, float32(45), cfg.Camera.FOV)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, `
[window]
widht = 640
`)

	_, err := Load(path)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestDecodeRejectsMalformedToml(t *testing.T) {
	cfg := Default()
	err := Decode(strings.NewReader("[window\nwidth = "), &cfg)
	require.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	bad := Default()
	bad.Renderer.PresentMode = "vsync-ish"
	require.True(t, errors.Is(bad.Validate(), ErrInvalidConfig))

	bad = Default()
	bad.Window.Height = 0
	require.True(t, errors.Is(bad.Validate(), ErrInvalidConfig))

	bad = Default()
	bad.Camera.Far = bad.Camera.Near
	require.True(t, errors.Is(bad.Validate(), ErrInvalidConfig))

	bad = Default()
	bad.Log.Level = "chatty"
	require.True(t, errors.Is(bad.Validate(), ErrInvalidConfig))
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvValidation, "false")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.Log.Level)
	require.False(t, cfg.Renderer.Validation)
}

func TestEnvironmentRejectsBadBool(t *testing.T) {
	t.Setenv(EnvValidation, "sometimes")

	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestConfigureLogger(t *testing.T) {
	logger := logrus.New()

	require.NoError(t, ConfigureLogger(logger, Log{Level: "warn", Format: "json"}))
	require.Equal(t, logrus.WarnLevel, logger.GetLevel())
	require.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)

	require.Error(t, ConfigureLogger(logger, Log{Level: "loud"}))
}
