package log

// Config controls the global logger.
type Config struct {
	// Name is attached to every entry as the "service" field.
	Name string `conf:"name" yaml:"name" json:"name"`

	// Level is one of debug, info, warn, error.
	Level string `conf:"level" yaml:"level" json:"level"`

	// Format is "json" or "console".
	Format string `conf:"format" yaml:"format" json:"format"`

	// File enables file output with rotation when non-empty.
	// Entries are written to both stderr and the file.
	File       string `conf:"file"        yaml:"file"        json:"file"`
	MaxSizeMB  int    `conf:"max_size_mb" yaml:"max_size_mb" json:"max_size_mb"`
	MaxBackups int    `conf:"max_backups" yaml:"max_backups" json:"max_backups"`
	MaxAgeDays int    `conf:"max_age_days" yaml:"max_age_days" json:"max_age_days"`
}

func (c Config) withDefaults() Config {
	if c.Name == "" {
		c.Name = "mercato"
	}

	if c.Level == "" {
		c.Level = "info"
	}

	if c.Format == "" {
		c.Format = "json"
	}

	if c.MaxSizeMB <= 0 {
		c.MaxSizeMB = 100
	}

	return c
}
