package shared

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Client      ClientConfig      `toml:"client"`
	Registry    RegistryConfig    `toml:"registry"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	Batch       BatchConfig       `toml:"batch"`
	Credentials CredentialsConfig `toml:"credentials"`
}

// ClientConfig controls outbound oEmbed requests.
type ClientConfig struct {
	UserAgent string `toml:"user_agent"`
	Timeout   int    `toml:"timeout"` // seconds
	MaxWidth  int    `toml:"max_width"`
	MaxHeight int    `toml:"max_height"`
}

// TimeoutDuration returns the configured timeout, or 15 seconds when unset.
func (c ClientConfig) TimeoutDuration() time.Duration {
	if c.Timeout <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.Timeout) * time.Second
}

// RegistryConfig points at an optional replacement for the bundled providers.json.
type RegistryConfig struct {
	Path string `toml:"path"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// BatchConfig contains settings for batch fetches.
type BatchConfig struct {
	RateLimit float64 `toml:"rate_limit"` // requests per second
}

// CredentialsConfig contains credentials for token-gated providers.
type CredentialsConfig struct {
	Providers []ProviderCredentials `toml:"providers"`
}

// ProviderCredentials authorizes requests to a single provider's endpoints.
//
// A static AccessToken takes precedence over the client credentials grant.
type ProviderCredentials struct {
	Name         string `toml:"name"`
	AccessToken  string `toml:"access_token"`
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	TokenURL     string `toml:"token_url"`
}

// Configured reports whether enough fields are set to obtain a token.
func (p ProviderCredentials) Configured() bool {
	if p.AccessToken != "" {
		return true
	}
	return p.ClientID != "" && p.ClientSecret != "" && p.TokenURL != ""
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
// An existing file is left untouched; use [WriteConfigFile] to replace it.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}
	return WriteConfigFile(path)
}

// WriteConfigFile writes the embedded example config to path, replacing any existing file.
func WriteConfigFile(path string) error {
	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveConfig encodes config as TOML and writes it to path.
//
// Credentials are written too, so the file is created with owner-only permissions.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
