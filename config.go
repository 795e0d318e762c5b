package pomostudy

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "POMOSTUDY_"

type Config struct {
	DatabasePath string `koanf:"db_path"`
	SettingsPath string `koanf:"settings_path"`
	LogLevel     string `koanf:"log_level"`
	Owner        string `koanf:"owner"`

	// bot only
	BotName     string `koanf:"bot_name"`
	BotToken    string `koanf:"bot_token"`
	MetricsAddr string `koanf:"metrics_addr"`
}

// LoadEnv loads .env in production and .env.dev otherwise. Missing files are ignored.
func LoadEnv(isProd bool) {
	if isProd {
		_ = godotenv.Load(".env")
	} else {
		_ = godotenv.Load(".env.dev")
	}
}

// LoadConfig reads the optional YAML file at path and then applies POMOSTUDY_*
// environment variables on top, e.g. POMOSTUDY_DB_PATH -> db_path.
func LoadConfig(path string) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		content, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
		default:
			if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
				return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.applyDefaults(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() error {
	if c.BotName == "" {
		c.BotName = "Pomostudy"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Owner == "" {
		c.Owner = os.Getenv("USER")
	}
	if c.DatabasePath == "" || c.SettingsPath == "" {
		dir, err := DataDir()
		if err != nil {
			return err
		}
		if c.DatabasePath == "" {
			c.DatabasePath = filepath.Join(dir, "history.db")
		}
		if c.SettingsPath == "" {
			c.SettingsPath = filepath.Join(dir, "settings.yaml")
		}
	}
	return nil
}

// DataDir is the per-user directory holding the history database and settings file.
func DataDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(configDir, "pomostudy"), nil
}

// RequireBotToken is checked by the bot entrypoints only.
func (c Config) RequireBotToken() error {
	if c.BotToken == "" {
		return fmt.Errorf("required environment variable: %sBOT_TOKEN", envPrefix)
	}
	return nil
}
