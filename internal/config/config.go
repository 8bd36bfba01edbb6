package config

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

// Manager handles loading and hot-reloading configuration.
type Manager struct {
	mu        sync.RWMutex
	config    *Config
	callbacks []func(*Config)
}

// NewManager creates a new config manager and loads initial config.
func NewManager(cfgFile string) (*Manager, error) {
	cm := &Manager{
		callbacks: make([]func(*Config), 0),
	}

	if err := cm.initViper(cfgFile); err != nil {
		return nil, err
	}

	cfg, err := cm.load()
	if err != nil {
		return nil, err
	}
	cm.config = cfg

	return cm, nil
}

// initViper sets up viper with defaults and config file.
func (cm *Manager) initViper(cfgFile string) error {
	defaults := DefaultConfig()
	viper.SetDefault("cache.budget_bytes", defaults.Cache.BudgetBytes)
	viper.SetDefault("viewer.preload_radius", defaults.Viewer.PreloadRadius)
	viper.SetDefault("viewer.page_padding", defaults.Viewer.PagePadding)
	viper.SetDefault("viewer.default_scale", defaults.Viewer.DefaultScale)
	viper.SetDefault("render.workers", defaults.Render.Workers)
	viper.SetDefault("render.queue_size", defaults.Render.QueueSize)
	viper.SetDefault("server.host", defaults.Server.Host)
	viper.SetDefault("server.port", defaults.Server.Port)

	// Environment variables with LEAF_ prefix
	viper.SetEnvPrefix("LEAF")
	viper.AutomaticEnv()

	// Config file
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.leaf")
	}

	// Try to read config file (not required)
	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// load parses the current viper state into a Config struct.
func (cm *Manager) load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Get returns the current configuration (thread-safe).
func (cm *Manager) Get() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// OnChange registers a callback for config changes.
func (cm *Manager) OnChange(fn func(*Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, fn)
}

// WatchConfig enables hot-reloading of configuration.
func (cm *Manager) WatchConfig() {
	viper.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := cm.load()
		if err != nil {
			return
		}

		cm.mu.Lock()
		cm.config = cfg
		callbacks := make([]func(*Config), len(cm.callbacks))
		copy(callbacks, cm.callbacks)
		cm.mu.Unlock()

		for _, fn := range callbacks {
			fn(cfg)
		}
	})
	viper.WatchConfig()
}

// Validate checks that config values are usable.
func (c *Config) Validate() error {
	if c.Cache.BudgetBytes < 0 {
		return fmt.Errorf("cache.budget_bytes must be non-negative, got %d", c.Cache.BudgetBytes)
	}
	if c.Viewer.PreloadRadius < 0 {
		return fmt.Errorf("viewer.preload_radius must be non-negative, got %d", c.Viewer.PreloadRadius)
	}
	if c.Viewer.PagePadding < 0 {
		return fmt.Errorf("viewer.page_padding must be non-negative, got %g", c.Viewer.PagePadding)
	}
	if c.Viewer.DefaultScale <= 0 {
		return fmt.Errorf("viewer.default_scale must be positive, got %g", c.Viewer.DefaultScale)
	}
	return nil
}

// WriteDefault writes the default configuration to the specified path.
func WriteDefault(path string) error {
	cfg := DefaultConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# leaf configuration
# cache.budget_bytes and viewer.preload_radius are hot-reloadable;
# edits to this file apply to a running server without a restart.

`)
	return os.WriteFile(path, append(header, data...), 0o644)
}
