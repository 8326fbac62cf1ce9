package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

type Cache struct {
	subredditsDir string
	cache         map[string]*Config
	mu            sync.RWMutex
}

func NewCache(subredditsDir string) *Cache {
	return &Cache{
		subredditsDir: subredditsDir,
		cache:         make(map[string]*Config),
	}
}

func (c *Cache) Run() error {
	if _, err := os.Stat(c.subredditsDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(c.subredditsDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		fileName := filepath.Base(file)
		name := fileName[:len(fileName)-4] // Remove .yml extension

		config, err := c.LoadConfig(name)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		slog.Debug("Subreddit definition loaded", "subreddit", name, "enabled", config.Settings.Enabled, "limit", config.Settings.Limit)
	}

	return nil
}

func (c *Cache) LoadConfig(name string) (*Config, error) {
	configFile := c.getConfigFilePath(name)
	config, err := c.parseConfig(configFile)
	if err != nil {
		return nil, err
	}

	// Set subreddit name from filename
	config.Name = name

	if err := c.validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configFile, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[config.Name] = config

	return config, nil
}

func (c *Cache) GetConfig(name string) (*Config, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	config, ok := c.cache[name]
	if !ok {
		return nil, fmt.Errorf("subreddit definition '%s' not found", name)
	}
	return config, nil
}

func (c *Cache) GetConfigs() map[string]*Config {
	c.mu.RLock()
	defer c.mu.RUnlock()

	configsCopy := make(map[string]*Config, len(c.cache))
	for k, v := range c.cache {
		configsCopy[k] = v
	}
	return configsCopy
}

func (c *Cache) GetEnabledConfigs() map[string]*Config {
	c.mu.RLock()
	defer c.mu.RUnlock()

	enabledConfigs := make(map[string]*Config)
	for k, v := range c.cache {
		if v.Settings.Enabled {
			enabledConfigs[k] = v
		}
	}
	return enabledConfigs
}

func (c *Cache) GetConfigCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

func (c *Cache) parseConfig(configFile string) (*Config, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return &config, nil
}

func (c *Cache) validateConfig(config *Config) error {
	if config == nil {
		return fmt.Errorf("config is nil")
	}

	if config.Name == "" {
		return fmt.Errorf("subreddit name is required")
	}

	if config.Settings.Limit < 0 || config.Settings.Limit > 100 {
		return fmt.Errorf("limit must be between 0 and 100")
	}

	return nil
}

func (c *Cache) getConfigFilePath(name string) string {
	return filepath.Join(c.subredditsDir, name+".yml")
}
