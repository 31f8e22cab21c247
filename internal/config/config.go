// Package config loads the desktop shell configuration from defaults, an optional
// YAML file, an optional .env file and the process environment.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Mode selects between the development and production wiring.
type Mode string

const (
	ModeDevelopment Mode = "development"
	ModeProduction  Mode = "production"
)

// EnvPrefix is the prefix of environment overrides, e.g. TOKENRING_BACKEND_PORT.
const EnvPrefix = "TOKENRING"

// Config is the complete shell configuration.
type Config struct {
	Mode       Mode           `mapstructure:"mode"`
	InstanceID string         `mapstructure:"instance_id"`
	Window     WindowConfig   `mapstructure:"window"`
	Backend    BackendConfig  `mapstructure:"backend"`
	Frontend   FrontendConfig `mapstructure:"frontend"`
	Log        LogConfig      `mapstructure:"log"`
	Links      LinksConfig    `mapstructure:"links"`
}

// WindowConfig holds the primary window geometry.
type WindowConfig struct {
	Title     string `mapstructure:"title"`
	Width     int    `mapstructure:"width"`
	Height    int    `mapstructure:"height"`
	MinWidth  int    `mapstructure:"min_width"`
	MinHeight int    `mapstructure:"min_height"`
}

// BackendConfig describes how the backend child process is launched.
type BackendConfig struct {
	Host             string        `mapstructure:"host"`
	Port             int           `mapstructure:"port"`
	Command          string        `mapstructure:"command"`
	Script           string        `mapstructure:"script"`
	WorkingDirectory string        `mapstructure:"working_directory"`
	DataDirectory    string        `mapstructure:"data_directory"`
	GracePeriod      time.Duration `mapstructure:"grace_period"`
}

// FrontendConfig holds the URLs the window loads.
type FrontendConfig struct {
	DevPort       int           `mapstructure:"dev_port"`
	DevPath       string        `mapstructure:"dev_path"`
	ProductionURL string        `mapstructure:"production_url"`
	StartupDelay  time.Duration `mapstructure:"startup_delay"`
}

// LogConfig controls the host log stream.
type LogConfig struct {
	Level   string `mapstructure:"level"`
	File    string `mapstructure:"file"`
	Console bool   `mapstructure:"console"`
}

// LinksConfig holds the external pages opened from the Help menu.
type LinksConfig struct {
	Documentation string `mapstructure:"documentation"`
	Issues        string `mapstructure:"issues"`
}

// LoadOptions tunes where Load looks for optional inputs.
type LoadOptions struct {
	// ConfigFile is an explicit YAML file. When empty, desktop.yaml is looked up
	// in ~/.tokenring and the working directory, and a missing file is not an error.
	ConfigFile string
	// EnvFile is a dotenv file loaded before reading the environment. A missing
	// file is ignored.
	EnvFile string
}

// Address returns the host:port the backend HTTP listener binds to.
func (b BackendConfig) Address() string {
	return net.JoinHostPort(b.Host, strconv.Itoa(b.Port))
}

// Args returns the fixed backend arguments.
func (b BackendConfig) Args() []string {
	return []string{
		"--workingDirectory", b.WorkingDirectory,
		"--dataDirectory", b.DataDirectory,
		"--http", b.Address(),
	}
}

// DevURL returns the development server URL.
func (f FrontendConfig) DevURL() string {
	return fmt.Sprintf("http://localhost:%d%s", f.DevPort, f.DevPath)
}

// IsDevelopment reports whether the development wiring is active.
func (c *Config) IsDevelopment() bool {
	return c.Mode == ModeDevelopment
}

// FrontendURL returns the URL the window should load for the current mode.
func (c *Config) FrontendURL() string {
	if c.IsDevelopment() {
		return c.Frontend.DevURL()
	}
	return c.Frontend.ProductionURL
}

// Default returns the built-in configuration for the given environment lookup.
func Default(getenv func(string) string) *Config {
	v := newViper(HomeDir(getenv))
	if mode := getenv("NODE_ENV"); mode != "" {
		v.Set("mode", mode)
	}
	cfg := &Config{}
	// defaults only; decoding a freshly built viper cannot fail
	_ = v.Unmarshal(cfg)
	cfg.finish(getenv)
	return cfg
}

// Load builds the configuration. Precedence, lowest first: defaults, config
// file, .env file, environment.
func Load(opts LoadOptions) (*Config, error) {
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", opts.EnvFile, err)
		}
	}

	v := newViper(HomeDir(os.Getenv))
	bindEnv(v, os.Getenv)

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else {
		v.SetConfigName("desktop")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Join(HomeDir(os.Getenv), ".tokenring"))
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.finish(os.Getenv)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func newViper(home string) *viper.Viper {
	v := viper.New()
	v.SetDefault("mode", string(ModeProduction))
	v.SetDefault("instance_id", "ai.tokenring.coder.desktop")

	v.SetDefault("window.title", "TokenRing Coder")
	v.SetDefault("window.width", 1400)
	v.SetDefault("window.height", 900)
	v.SetDefault("window.min_width", 1000)
	v.SetDefault("window.min_height", 600)

	v.SetDefault("backend.host", "127.0.0.1")
	v.SetDefault("backend.port", 3456)
	v.SetDefault("backend.command", "node")
	v.SetDefault("backend.script", "")
	v.SetDefault("backend.working_directory", home)
	v.SetDefault("backend.data_directory", filepath.Join(home, ".tokenring"))
	v.SetDefault("backend.grace_period", 5*time.Second)

	v.SetDefault("frontend.dev_port", 5173)
	v.SetDefault("frontend.dev_path", "/chat")
	v.SetDefault("frontend.production_url", "http://127.0.0.1:3456/chat/")
	v.SetDefault("frontend.startup_delay", 2*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.console", true)

	v.SetDefault("links.documentation", "https://docs.tokenring.ai")
	v.SetDefault("links.issues", "https://github.com/tokenring-ai/coder/issues")
	return v
}

func bindEnv(v *viper.Viper, getenv func(string) string) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// NODE_ENV keeps its historical name; it wins over TOKENRING_MODE.
	if mode := getenv("NODE_ENV"); mode != "" {
		v.Set("mode", mode)
	}
}

// finish normalizes values that depend on other values or on the host.
func (c *Config) finish(getenv func(string) string) {
	if c.Mode != ModeDevelopment {
		c.Mode = ModeProduction
	}
	home := HomeDir(getenv)
	c.Backend.WorkingDirectory = ExpandHome(c.Backend.WorkingDirectory, home)
	c.Backend.DataDirectory = ExpandHome(c.Backend.DataDirectory, home)
	if c.Backend.Script != "" {
		c.Backend.Script = ExpandHome(c.Backend.Script, home)
	} else if c.Backend.Command == "node" {
		c.Backend.Script = DefaultBackendScript(c.Mode)
	}
	if c.Log.File == "" {
		c.Log.File = filepath.Join(c.Backend.DataDirectory, "logs", "desktop.log")
	} else {
		c.Log.File = ExpandHome(c.Log.File, home)
	}
}

// Validate checks the values a user can break through the file or environment.
func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.Window.MinWidth > c.Window.Width || c.Window.MinHeight > c.Window.Height {
		return fmt.Errorf("window minimum %dx%d exceeds size %dx%d",
			c.Window.MinWidth, c.Window.MinHeight, c.Window.Width, c.Window.Height)
	}
	if c.Backend.Port <= 0 || c.Backend.Port > 65535 {
		return fmt.Errorf("backend port out of range: %d", c.Backend.Port)
	}
	if c.Backend.Command == "" {
		return errors.New("backend command is required")
	}
	if c.Backend.GracePeriod <= 0 {
		return fmt.Errorf("backend grace period must be positive, got %s", c.Backend.GracePeriod)
	}
	if c.Frontend.StartupDelay < 0 {
		return fmt.Errorf("frontend startup delay must not be negative, got %s", c.Frontend.StartupDelay)
	}
	if c.Frontend.DevPort <= 0 || c.Frontend.DevPort > 65535 {
		return fmt.Errorf("frontend dev port out of range: %d", c.Frontend.DevPort)
	}
	u, err := url.Parse(c.Frontend.ProductionURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid production url %q", c.Frontend.ProductionURL)
	}
	return nil
}
