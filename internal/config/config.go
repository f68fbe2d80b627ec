package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap/zapcore"

	"hushwire/internal/domain"
)

// FileName is the config file looked up inside the home directory.
const FileName = "config.toml"

// Config carries the client settings shared by every command. Flag values
// override whatever the file says.
type Config struct {
	// Home is the state directory: keystore, config file.
	Home string
	// RelayURL is the relay base URL, e.g. http://127.0.0.1:8080. Empty
	// means no relay is configured; offline commands still work.
	RelayURL string
	Username string
	DeviceID string
	LogLevel string
}

// Validate fills defaults and returns nil if the config is usable.
func (cfg *Config) Validate() error {
	if cfg.DeviceID == "" {
		cfg.DeviceID = string(domain.DefaultDeviceID)
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if _, err := zapcore.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("config: LogLevel %q: %w", cfg.LogLevel, err)
	}
	return nil
}

// Load parses and validates b as a config file body.
func Load(b []byte) (*Config, error) {
	cfg := new(Config)
	md, err := toml.Decode(string(b), cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) != 0 {
		return nil, fmt.Errorf("config: undecoded keys in config file: %v", undecoded)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile loads the config from home. A missing file is not an error; the
// returned config then carries only defaults and the home path.
func LoadFile(home string) (*Config, error) {
	b, err := os.ReadFile(filepath.Join(home, FileName))
	if os.IsNotExist(err) {
		cfg := &Config{Home: home}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	cfg, err := Load(b)
	if err != nil {
		return nil, err
	}
	if cfg.Home == "" {
		cfg.Home = home
	}
	return cfg, nil
}
