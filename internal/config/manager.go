package config

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"
)

// Manager owns the live configuration and notifies watchers when the file changes
type Manager struct {
	mu       sync.RWMutex
	config   *Config
	watchers []func(*Config)

	configPath   string
	lastModTime  time.Time
	pollInterval time.Duration
	watchCancel  context.CancelFunc
	watchRunning bool
}

// NewManager creates a new configuration manager
func NewManager() *Manager {
	return &Manager{
		config:       DefaultConfig(),
		pollInterval: time.Second,
	}
}

// LoadFromFile loads, validates and installs the configuration at configPath
func (m *Manager) LoadFromFile(configPath string) error {
	configPath = ExpandPath(configPath)

	cfg, err := LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	m.mu.Lock()
	m.config = cfg
	m.configPath = configPath
	if stat, err := os.Stat(configPath); err == nil {
		m.lastModTime = stat.ModTime()
	}
	watchers := m.watchers
	m.mu.Unlock()

	notify(watchers, cfg)
	return nil
}

// GetConfig returns a copy of the current configuration
func (m *Manager) GetConfig() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyConfig(m.config)
}

// ConfigPath returns the file the configuration was loaded from
func (m *Manager) ConfigPath() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.configPath
}

// UpdateConfig validates and installs cfg
func (m *Manager) UpdateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}
	cfg = copyConfig(cfg)
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	m.mu.Lock()
	m.config = cfg
	watchers := m.watchers
	m.mu.Unlock()

	notify(watchers, cfg)
	return nil
}

// SaveToFile saves the current configuration to a file
func (m *Manager) SaveToFile(filePath string) error {
	cfg := m.GetConfig()
	if err := cfg.SaveConfig(filePath); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	m.mu.Lock()
	if filePath == m.configPath {
		if stat, err := os.Stat(filePath); err == nil {
			m.lastModTime = stat.ModTime()
		}
	}
	m.mu.Unlock()
	return nil
}

// AddWatcher registers fn to be called with every new configuration
func (m *Manager) AddWatcher(fn func(*Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.watchers = append(m.watchers, fn)
}

// Watch starts polling the configuration file for changes
func (m *Manager) Watch(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.configPath == "" {
		return fmt.Errorf("no config file path set")
	}
	if m.watchRunning {
		return fmt.Errorf("already watching configuration file")
	}

	watchCtx, cancel := context.WithCancel(ctx)
	m.watchCancel = cancel
	m.watchRunning = true

	go m.watchConfigFile(watchCtx)
	return nil
}

// StopWatching stops watching the configuration file
func (m *Manager) StopWatching() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.watchCancel != nil {
		m.watchCancel()
		m.watchCancel = nil
	}
	m.watchRunning = false
}

func (m *Manager) watchConfigFile(ctx context.Context) {
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.checkConfigFileChanges()
		}
	}
}

// checkConfigFileChanges reloads the file when its mtime moved forward.
// Invalid edits are ignored and the previous configuration stays active.
func (m *Manager) checkConfigFileChanges() {
	m.mu.RLock()
	configPath := m.configPath
	lastModTime := m.lastModTime
	m.mu.RUnlock()

	if configPath == "" {
		return
	}
	stat, err := os.Stat(configPath)
	if err != nil {
		return
	}
	if stat.ModTime().After(lastModTime) {
		_ = m.LoadFromFile(configPath)
	}
}

func copyConfig(cfg *Config) *Config {
	if cfg == nil {
		return nil
	}
	c := *cfg
	return &c
}

func notify(watchers []func(*Config), cfg *Config) {
	for _, w := range watchers {
		w(copyConfig(cfg))
	}
}
