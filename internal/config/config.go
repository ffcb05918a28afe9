package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	APIURL         string `toml:"api_url"`
	PageSize       int    `toml:"page_size"`
	RequestTimeout int    `toml:"request_timeout_seconds"`

	// Embedded development backend (timedeck serve)
	ServeAddr      string `toml:"serve_addr"`
	ServeDB        string `toml:"serve_db"`
	ServeJWTSecret string `toml:"serve_jwt_secret"`
}

func DefaultConfig() *Config {
	return &Config{
		APIURL:         "http://localhost:8080",
		PageSize:       10,
		RequestTimeout: 30,
		ServeAddr:      ":8080",
		ServeJWTSecret: "timedeck-dev-secret",
	}
}

func (c *Config) Timeout() time.Duration {
	if c.RequestTimeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.RequestTimeout) * time.Second
}

func TimedeckDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".timedeck"), nil
}

func ConfigPath() (string, error) {
	dir, err := TimedeckDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

func SessionPath() (string, error) {
	dir, err := TimedeckDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "session.json"), nil
}

func DatabasePath() (string, error) {
	dir, err := TimedeckDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "db", "timedeck.sqlite"), nil
}

func ErrorLogPath() (string, error) {
	dir, err := TimedeckDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "errors.log"), nil
}

func EnsureDirectories() error {
	dir, err := TimedeckDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	dbDir := filepath.Join(dir, "db")
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return err
	}

	return nil
}

func Load() (*Config, error) {
	configPath, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()

	// If config file doesn't exist, create it with defaults
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := EnsureDirectories(); err != nil {
			return nil, err
		}
		if err := Save(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	if _, err := toml.DecodeFile(configPath, cfg); err != nil {
		return nil, err
	}

	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultConfig().PageSize
	}
	cfg.ServeDB = expandPath(cfg.ServeDB)

	return cfg, nil
}

func Save(cfg *Config) error {
	configPath, err := ConfigPath()
	if err != nil {
		return err
	}

	f, err := os.Create(configPath)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}

func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[1:])
	}
	return path
}
