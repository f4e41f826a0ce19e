package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/linkfield/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	cfgKeyBackend       = "backend"
	cfgKeyDataDir       = "data_dir"
	cfgKeyDefaultLocale = "default_locale"
	cfgKeyFieldID       = "field_id"
	cfgKeyLogLevel      = "log_level"
)

// settings is the content of config.yaml.
type settings struct {
	Backend       string `yaml:"backend" mapstructure:"backend"`
	DataDir       string `yaml:"data_dir,omitempty" mapstructure:"data_dir"`
	DefaultLocale string `yaml:"default_locale" mapstructure:"default_locale"`
	FieldID       string `yaml:"field_id" mapstructure:"field_id"`
	LogLevel      string `yaml:"log_level" mapstructure:"log_level"`
}

func defaultSettings() settings {
	return settings{
		Backend:       types.BackendSQLite,
		DefaultLocale: types.DefaultLocale,
		FieldID:       types.DefaultFieldID,
		LogLevel:      "warn",
	}
}

// loadSettings reads config.yaml from configDir using Viper. Keys missing
// from the file, or a missing file, fall back to the defaults. Each key can
// also be set through a LINKFIELD_ environment variable.
func loadSettings(configDir string) (settings, error) {
	d := defaultSettings()

	v := viper.New()
	v.SetDefault(cfgKeyBackend, d.Backend)
	v.SetDefault(cfgKeyDataDir, "")
	v.SetDefault(cfgKeyDefaultLocale, d.DefaultLocale)
	v.SetDefault(cfgKeyFieldID, d.FieldID)
	v.SetDefault(cfgKeyLogLevel, d.LogLevel)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	v.SetEnvPrefix("LINKFIELD")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return settings{}, fmt.Errorf("read config: %w", err)
		}
	}

	var s settings
	if err := v.Unmarshal(&s); err != nil {
		return settings{}, fmt.Errorf("decode config: %w", err)
	}
	return s, nil
}

// writeConfigIfMissing creates configDir and writes s to config.yaml unless
// the file already exists. It reports whether a file was written.
func writeConfigIfMissing(configDir string, s settings) (bool, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return false, fmt.Errorf("create config directory: %w", err)
	}

	path := filepath.Join(configDir, configFileExt)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat config file: %w", err)
	}

	data, err := yaml.Marshal(&s)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	header := []byte("# linkfield configuration\n")
	if err := os.WriteFile(path, append(header, data...), 0o644); err != nil {
		return false, err
	}
	return true, nil
}
