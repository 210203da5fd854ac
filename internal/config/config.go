// Package config handles loading and hot-reloading configuration for the
// export service and the gateway service, mirroring the viper-backed
// manager used throughout the rest of the pack's ingestion tooling.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Manager handles loading and hot-reloading configuration.
type Manager struct {
	mu        sync.RWMutex
	config    *Config
	callbacks []func(*Config)
}

// NewManager creates a new config manager and loads the initial config.
// cfgFile may be empty, in which case viper searches "." and
// "$HOME/.corpus" for a "config.yaml".
func NewManager(cfgFile string) (*Manager, error) {
	cm := &Manager{callbacks: make([]func(*Config), 0)}

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

func (cm *Manager) initViper(cfgFile string) error {
	defaults := DefaultConfig()
	viper.SetDefault("catalog", defaults.Catalog)
	viper.SetDefault("object_store", defaults.ObjectStore)
	viper.SetDefault("rel_store", defaults.RelStore)
	viper.SetDefault("vector_store", defaults.VectorStore)
	viper.SetDefault("acquirer", defaults.Acquirer)
	viper.SetDefault("embedding", defaults.Embedding)
	viper.SetDefault("jobs", defaults.Jobs)
	viper.SetDefault("rewriter", defaults.Rewriter)
	viper.SetDefault("gateway", defaults.Gateway)

	viper.SetEnvPrefix("MAKTABA")
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.corpus")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}

func (cm *Manager) load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Get returns the current configuration (thread-safe).
func (cm *Manager) Get() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// OnChange registers a callback invoked after every reload.
func (cm *Manager) OnChange(fn func(*Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, fn)
}

// WatchConfig enables hot-reloading of the config file.
func (cm *Manager) WatchConfig() {
	viper.OnConfigChange(func(_ fsnotify.Event) {
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

var envPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// ResolveEnvVars expands ${ENV_VAR} references in value.
func ResolveEnvVars(value string) string {
	if value == "" {
		return value
	}
	return envPattern.ReplaceAllStringFunc(value, func(match string) string {
		return os.Getenv(match[2 : len(match)-1])
	})
}
