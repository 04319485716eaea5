// Package config handles converter configuration loading and management.
package config

// Config holds all converter settings.
type Config struct {
	Plugins PluginsConfig `yaml:"plugins"`
	Options OptionsConfig `yaml:"options"`
	Logging LoggingConfig `yaml:"logging"`
}

// PluginsConfig holds plugin selection settings.
type PluginsConfig struct {
	// Importer and Converter force a plugin instead of picking one by
	// file extension. Empty means autodetect.
	Importer  string `yaml:"importer"`
	Converter string `yaml:"converter"`

	// Prefer maps a lowercase file extension (with leading dot) to the
	// plugin name that should claim it when several plugins match.
	Prefer map[string]string `yaml:"prefer"`
}

// OptionsConfig holds default plugin options applied before any
// command-line overrides.
type OptionsConfig struct {
	Importer  map[string]string `yaml:"importer"`
	Converter map[string]string `yaml:"converter"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Plugins: PluginsConfig{
			Prefer: map[string]string{},
		},
		Options: OptionsConfig{
			Importer:  map[string]string{},
			Converter: map[string]string{},
		},
		Logging: LoggingConfig{
			Level:   "warn",
			LogFile: "",
		},
	}
}
