package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	// AppName names the config directory.
	AppName = "lwjgl3ify-installer"
	// FileName is the config file inside the config directory.
	FileName = "config.toml"
	// EnvPrefix prefixes environment overrides, e.g. LWJGL3IFY_INSTALLER_GITHUB_TOKEN.
	EnvPrefix = "LWJGL3IFY_INSTALLER"
)

// Settings are the persisted user preferences
type Settings struct {
	// InstancesFolder is the last instances root the user picked
	InstancesFolder string   `mapstructure:"instances_folder" toml:"instances_folder"`
	GitHubToken     string   `mapstructure:"github_token" toml:"github_token,omitempty"`
	Sound           bool     `mapstructure:"sound" toml:"sound"`
	AssetPatterns   []string `mapstructure:"asset_patterns" toml:"asset_patterns,omitempty"`
}

// Default returns the settings used when nothing is configured
func Default() Settings {
	return Settings{Sound: true}
}

// Dir returns the platform config directory for the installer
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config directory: %w", err)
	}
	return filepath.Join(base, AppName), nil
}

// DefaultPath returns the config file used when --config is not given
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// Load reads settings from path, or DefaultPath when path is empty. A missing
// file is not an error: defaults and environment overrides still apply.
// The resolved path is returned so callers can Save back to it.
func Load(path string) (Settings, string, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return Default(), "", err
		}
		path = p
	}

	v := viper.New()

	defaults := Default()
	v.SetDefault("instances_folder", defaults.InstancesFolder)
	v.SetDefault("github_token", defaults.GitHubToken)
	v.SetDefault("sound", defaults.Sound)
	v.SetDefault("asset_patterns", defaults.AssetPatterns)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fileExists(path) {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return Default(), path, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Default(), path, fmt.Errorf("failed to parse config: %w", err)
	}
	s.InstancesFolder = strings.TrimSpace(s.InstancesFolder)
	return s, path, nil
}

// Save writes s to path as TOML, creating the directory if needed
func Save(path string, s Settings) error {
	data, err := toml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	// 0600: the file may hold a GitHub token
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// RememberFolder stores folder as the instances root in the config at path,
// keeping every other setting as it is on disk. Environment overrides are
// not written back.
func RememberFolder(path, folder string) error {
	s := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case !os.IsNotExist(err):
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if s.InstancesFolder == folder && err == nil {
		return nil
	}
	s.InstancesFolder = folder
	return Save(path, s)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
