// Package config provides configuration management for the touch bridge.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the file.
const (
	EnvRemoteURL = "TOUCHBRIDGE_REMOTE_URL"
	EnvAPIToken  = "TOUCHBRIDGE_API_TOKEN"
)

// Config represents the application configuration
type Config struct {
	// Remote describes the HID server actions are forwarded to
	Remote RemoteConfig `yaml:"remote"`

	// Listen describes the local touchpad page server
	Listen ListenConfig `yaml:"listen"`

	// Log controls the global logger
	Log LogConfig `yaml:"log"`

	// TrayEnabled shows a system tray icon while serving
	TrayEnabled bool `yaml:"tray_enabled"`
}

// RemoteConfig points at the remote HID server.
type RemoteConfig struct {
	// URL is the server base URL (e.g. "http://192.168.1.20:8088")
	URL string `yaml:"url" validate:"omitempty,url"`

	// Token is sent as a bearer token when set
	Token string `yaml:"token,omitempty"`

	// Timeout bounds each request
	Timeout time.Duration `yaml:"timeout" validate:"gte=0"`

	// DiscoveryPort is the port probed by LAN discovery
	DiscoveryPort int `yaml:"discovery_port" validate:"gte=1,lte=65535"`
}

// ListenConfig is the local HTTP listener.
type ListenConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port" validate:"gte=1,lte=65535"`

	// OpenFirewall adds an inbound firewall rule for Port on Windows
	OpenFirewall bool `yaml:"open_firewall"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=trace debug info warn error"`
	Format string `yaml:"format" validate:"omitempty,oneof=console json"`
}

// Addr returns the listen address.
func (l ListenConfig) Addr() string {
	return fmt.Sprintf("%s:%d", l.Host, l.Port)
}

// DefaultConfig returns a new Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Remote: RemoteConfig{
			Timeout:       5 * time.Second,
			DiscoveryPort: 8088,
		},
		Listen: ListenConfig{
			Port: 8090,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		TrayEnabled: true,
	}
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Manager handles loading and saving configuration
type Manager struct {
	mu         sync.Mutex
	configPath string
	config     *Config
	onChanged  func()
}

// NewManager creates a manager for the default config path.
func NewManager() (*Manager, error) {
	configPath, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return NewManagerAt(configPath), nil
}

// NewManagerAt creates a manager for an explicit file.
func NewManagerAt(path string) *Manager {
	return &Manager{
		configPath: path,
		config:     DefaultConfig(),
	}
}

// DefaultPath returns the path to the configuration file
func DefaultPath() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "touchbridge")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		configDir = filepath.Join(appData, "touchbridge")
	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, ".config", "touchbridge")
	}

	return filepath.Join(configDir, "config.yaml"), nil
}

// Path returns the file the manager reads and writes.
func (m *Manager) Path() string {
	return m.configPath
}

// Load reads the configuration from disk and applies environment overrides.
// A missing file leaves the defaults in place. The change callback runs once
// the new configuration is in place.
func (m *Manager) Load() error {
	if err := m.load(); err != nil {
		return err
	}

	m.mu.Lock()
	fn := m.onChanged
	m.mu.Unlock()
	if fn != nil {
		fn()
	}
	return nil
}

func (m *Manager) load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cfg := DefaultConfig()
	data, err := os.ReadFile(m.configPath)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return err
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse %s: %w", m.configPath, err)
		}
	}

	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	m.config = cfg
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvRemoteURL); v != "" {
		cfg.Remote.URL = v
	}
	if v := os.Getenv(EnvAPIToken); v != "" {
		cfg.Remote.Token = v
	}
}

// Save writes the configuration to disk
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := yaml.Marshal(m.config)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(m.configPath), 0755); err != nil {
		return err
	}

	log.Info().Str("component", "config").Str("path", m.configPath).Int("bytes", len(data)).
		Msg("saving configuration")
	return os.WriteFile(m.configPath, data, 0600)
}

// Get returns the current configuration
func (m *Manager) Get() *Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.config
}

// Set updates the configuration
func (m *Manager) Set(config *Config) {
	m.mu.Lock()
	m.config = config
	fn := m.onChanged
	m.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// RegisterChangeCallback registers a function to be called when config changes
func (m *Manager) RegisterChangeCallback(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChanged = fn
}
