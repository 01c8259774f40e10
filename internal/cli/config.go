package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/evcraddock/been/internal/client"
)

const defaultServerURL = "http://localhost:8080"

// CLIConfig holds CLI configuration persisted to disk.
type CLIConfig struct {
	ServerURL        string          `yaml:"server_url,omitempty"`
	Session          *client.Session `yaml:"session,omitempty"`
	GeoNamesUsername string          `yaml:"geonames_username,omitempty"`
	RedisURL         string          `yaml:"redis_url,omitempty"`
}

// configPath returns the path to the CLI config file.
func configPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "been", "config.yaml"), nil
}

// loadConfig reads the CLI config from disk.
// Returns a zero-value config if the file doesn't exist.
func loadConfig() (CLIConfig, error) {
	path, err := configPath()
	if err != nil {
		return CLIConfig{}, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return CLIConfig{}, nil
	}
	if err != nil {
		return CLIConfig{}, fmt.Errorf("reading config: %w", err)
	}

	var cfg CLIConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return CLIConfig{}, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// saveConfig writes the CLI config to disk. The file holds the session
// token, so it is only readable by the owner.
func saveConfig(cfg CLIConfig) error {
	path, err := configPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// getServerURL returns the server URL from env var, config, or default.
func getServerURL() string {
	if v := os.Getenv("BEEN_SERVER_URL"); v != "" {
		return v
	}
	cfg, err := loadConfig()
	if err == nil && cfg.ServerURL != "" {
		return cfg.ServerURL
	}
	return defaultServerURL
}

// serverConfigured reports whether an account server was set explicitly
// rather than falling back to the default.
func serverConfigured() bool {
	if os.Getenv("BEEN_SERVER_URL") != "" {
		return true
	}
	cfg, err := loadConfig()
	return err == nil && (cfg.ServerURL != "" || cfg.Session != nil)
}

// getGeoNamesUsername returns the GeoNames account from env var or config.
// Empty skips the GeoNames step of the city lookup.
func getGeoNamesUsername() string {
	if v := os.Getenv("BEEN_GEONAMES_USERNAME"); v != "" {
		return v
	}
	cfg, err := loadConfig()
	if err == nil {
		return cfg.GeoNamesUsername
	}
	return ""
}

// getRedisURL returns the city cache URL from env var or config.
func getRedisURL() string {
	if v := os.Getenv("BEEN_REDIS_URL"); v != "" {
		return v
	}
	cfg, err := loadConfig()
	if err == nil {
		return cfg.RedisURL
	}
	return ""
}

// devMode reports whether BEEN_DEV_MODE is set.
func devMode() bool {
	b, _ := strconv.ParseBool(os.Getenv("BEEN_DEV_MODE"))
	return b
}

// configSessions keeps the signed-in session in the config file.
type configSessions struct{}

func (configSessions) LoadSession() (*client.Session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return cfg.Session, nil
}

func (configSessions) SaveSession(s *client.Session) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.Session = s
	return saveConfig(cfg)
}
