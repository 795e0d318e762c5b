// Package settingsfile persists timer settings as YAML.
package settingsfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/benjamonnguyen/pomostudy"
)

// yamlSettings uses pointers so keys missing from the file keep their defaults.
type yamlSettings struct {
	WorkMinutes             *int  `yaml:"work_minutes"`
	ShortBreakMinutes       *int  `yaml:"short_break_minutes"`
	LongBreakMinutes        *int  `yaml:"long_break_minutes"`
	SessionsBeforeLongBreak *int  `yaml:"sessions_before_long_break"`
	Notifications           *bool `yaml:"notifications"`
}

// Load reads settings from path. If the file does not exist, default settings
// are returned. Values present in the file are validated.
func Load(path string) (pomostudy.Settings, error) {
	settings := pomostudy.DefaultSettings()

	rawData, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}
		return settings, fmt.Errorf("read settings file: %w", err)
	}

	var fileData yamlSettings
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		return settings, fmt.Errorf("parse settings yaml: %w", err)
	}

	applyYamlSettings(&settings, fileData)
	if err := settings.Validate(); err != nil {
		return pomostudy.DefaultSettings(), fmt.Errorf("%s: %w", path, err)
	}
	return settings, nil
}

// Save validates settings and writes them to path, creating parent directories.
func Save(path string, settings pomostudy.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}

	serialized, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshal settings yaml: %w", err)
	}

	if err := os.WriteFile(path, serialized, 0o644); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}
	return nil
}

func applyYamlSettings(settings *pomostudy.Settings, fileData yamlSettings) {
	if fileData.WorkMinutes != nil {
		settings.WorkMinutes = *fileData.WorkMinutes
	}
	if fileData.ShortBreakMinutes != nil {
		settings.ShortBreakMinutes = *fileData.ShortBreakMinutes
	}
	if fileData.LongBreakMinutes != nil {
		settings.LongBreakMinutes = *fileData.LongBreakMinutes
	}
	if fileData.SessionsBeforeLongBreak != nil {
		settings.SessionsBeforeLongBreak = *fileData.SessionsBeforeLongBreak
	}
	if fileData.Notifications != nil {
		settings.Notifications = *fileData.Notifications
	}
}
