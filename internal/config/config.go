package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ProjectName = "asynctui"

	DefaultTickRate      = 250 // milliseconds
	DefaultFrameRate     = 30
	DefaultDrainBatch    = 64
	DefaultScheduleDelay = time.Second
	DefaultLogLevel      = "info"
	ConfigFileName       = "config.yaml"
	LogFileName          = ProjectName + ".log"
)

// Config is built once at startup and passed down explicitly.
type Config struct {
	// TickRate is the event source timer interval in milliseconds.
	TickRate int `yaml:"tick_rate"`
	// FrameRate caps render frequency. Zero renders as fast as the model
	// lock allows.
	FrameRate int `yaml:"frame_rate"`
	// DrainBatch bounds how many actions one dispatch cycle processes
	// before yielding.
	DrainBatch    int           `yaml:"drain_batch"`
	ScheduleDelay time.Duration `yaml:"schedule_delay"`
	LogLevel      string        `yaml:"log_level"`

	DataDir   string `yaml:"-"`
	ConfigDir string `yaml:"-"`
	GitCommit string `yaml:"-"`
}

func DefaultConfig() *Config {
	return &Config{
		TickRate:      DefaultTickRate,
		FrameRate:     DefaultFrameRate,
		DrainBatch:    DefaultDrainBatch,
		ScheduleDelay: DefaultScheduleDelay,
		LogLevel:      DefaultLogLevel,
	}
}

// Resolve builds the configuration from defaults, the environment and the
// config file. An explicit path must exist; the default file is optional.
func Resolve(path string) (*Config, error) {
	env := Environ(os.Getenv)

	cfg := DefaultConfig()
	cfg.DataDir = env.DataDir()
	cfg.ConfigDir = env.ConfigDir()
	cfg.GitCommit = env.GitCommit()
	if lvl := env.LogLevel(); lvl != "" {
		cfg.LogLevel = lvl
	}

	explicit := path != ""
	if !explicit {
		path = filepath.Join(cfg.ConfigDir, ConfigFileName)
	}
	if err := cfg.merge(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}
	return cfg, nil
}

// Load reads a yaml file on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := cfg.merge(path); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) merge(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) Validate() error {
	if c.TickRate <= 0 {
		return fmt.Errorf("config: tick rate must be positive, got %d", c.TickRate)
	}
	if c.FrameRate < 0 {
		return fmt.Errorf("config: frame rate must not be negative, got %d", c.FrameRate)
	}
	if c.DrainBatch <= 0 {
		return fmt.Errorf("config: drain batch must be positive, got %d", c.DrainBatch)
	}
	if c.ScheduleDelay < 0 {
		return fmt.Errorf("config: schedule delay must not be negative, got %s", c.ScheduleDelay)
	}
	return nil
}

func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.TickRate) * time.Millisecond
}

// FrameInterval is zero when rendering is unpaced.
func (c *Config) FrameInterval() time.Duration {
	if c.FrameRate <= 0 {
		return 0
	}
	return time.Second / time.Duration(c.FrameRate)
}

func (c *Config) LogPath() string {
	return filepath.Join(c.DataDir, LogFileName)
}

// Environ resolves project directories from environment lookups.
type Environ func(key string) string

func envKey(suffix string) string {
	return strings.ToUpper(ProjectName) + "_" + suffix
}

func (e Environ) DataDir() string {
	if dir := e(envKey("DATA")); dir != "" {
		return dir
	}
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, ProjectName)
	}
	return filepath.Join(".", ".data")
}

func (e Environ) ConfigDir() string {
	if dir := e(envKey("CONFIG")); dir != "" {
		return dir
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, ProjectName)
	}
	return filepath.Join(".", ".config")
}

func (e Environ) GitCommit() string {
	if hash := e(envKey("GIT_INFO")); hash != "" {
		return hash
	}
	return "Unknown"
}

func (e Environ) LogLevel() string {
	return e(envKey("LOG_LEVEL"))
}
