package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/torvik/cloudlink/internal/protocol"
)

const (
	appName    = "cloudlink"
	configFile = "config.yaml"
)

// Config is the tool configuration file. All fields have working defaults,
// so a missing file is not an error.
type Config struct {
	// LogLevel is the tap server log level (debug, info, warn, error).
	// The offline CLI reads CLOUDLINK_LOG_LEVEL instead.
	LogLevel string `yaml:"log_level,omitempty"`

	// Mode is the serial link operating mode: "api" or "escaped".
	Mode string `yaml:"mode,omitempty"`

	Tap TapConfig `yaml:"tap,omitempty"`
}

// TapConfig holds the listen addresses of the diagnostic tap server.
type TapConfig struct {
	// Listen is the TCP address the serial-over-TCP bridge connects to.
	Listen string `yaml:"listen"`

	// WSListen is the HTTP address serving the WebSocket diagnostic stream.
	WSListen string `yaml:"ws_listen"`
}

// Default returns a Config with working defaults: plain API mode, tap on
// localhost.
func Default() *Config {
	return &Config{
		Mode: "api",
		Tap: TapConfig{
			Listen:   "127.0.0.1:9750",
			WSListen: "127.0.0.1:9751",
		},
	}
}

// OperatingMode parses the configured mode string.
func (c *Config) OperatingMode() (protocol.OperatingMode, error) {
	switch c.Mode {
	case "", "api":
		return protocol.ModeAPI, nil
	case "escaped":
		return protocol.ModeEscapedAPI, nil
	default:
		return 0, fmt.Errorf("unknown operating mode %q (expected api or escaped)", c.Mode)
	}
}

// Dir returns the OS-appropriate configuration directory for the application:
//   - Linux: $XDG_CONFIG_HOME/cloudlink or $HOME/.config/cloudlink
//   - macOS: $HOME/.config/cloudlink (following XDG convention on macOS)
//   - Windows: %LOCALAPPDATA%\cloudlink
func Dir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			userProfile := os.Getenv("USERPROFILE")
			if userProfile == "" {
				return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
			}
			baseDir = filepath.Join(userProfile, "AppData", "Local", appName)
		} else {
			baseDir = filepath.Join(localAppData, appName)
		}

	default:
		xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigHome != "" {
			baseDir = filepath.Join(xdgConfigHome, appName)
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("cannot determine home directory: %w", err)
			}
			baseDir = filepath.Join(homeDir, ".config", appName)
		}
	}

	return baseDir, nil
}

// Path returns the full path to the configuration file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// Load reads the configuration from the default path. A missing file yields
// Default() without error.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the configuration from path. A missing file yields
// Default() without error; a malformed file is an error.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration to the default path, creating the config
// directory if needed.
func (c *Config) Save() error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return c.SaveTo(filepath.Join(dir, configFile))
}

// SaveTo writes the configuration to path.
func (c *Config) SaveTo(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
