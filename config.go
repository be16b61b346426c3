package entitykit

import (
	"github.com/kelseyhightower/envconfig"
)

// Config holds the environment-driven settings of the library. All variables
// are prefixed with ENTITYKIT_ (e.g. ENTITYKIT_DATABASE_URL).
type Config struct {
	// DatabaseURL is the Postgres connection string.
	DatabaseURL string `envconfig:"DATABASE_URL"`

	// MaxPageSize bounds (and defaults) list page sizes for engines built
	// from this config.
	MaxPageSize int `envconfig:"MAX_PAGE_SIZE" default:"100"`

	// ChangeLog enables before/after change recording on engines built from
	// this config.
	ChangeLog bool `envconfig:"CHANGE_LOG" default:"false"`
}

// LoadConfig reads Config from the environment.
func LoadConfig() (Config, error) {
	var c Config
	if err := envconfig.Process("entitykit", &c); err != nil {
		return Config{}, err
	}
	return c, nil
}

// EngineOptions translates the config into engine construction options.
func (c Config) EngineOptions() []Option {
	opts := []Option{WithMaxPageSize(c.MaxPageSize)}
	if c.ChangeLog {
		opts = append(opts, WithChangeLog())
	}
	return opts
}
