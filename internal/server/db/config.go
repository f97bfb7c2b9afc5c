package db

import "time"

// Config controls the connection pool. The pool bounds the number of
// in-flight transactions; AcquireTimeout is the backpressure limit a request
// may wait for a free connection before failing.
type Config struct {
	DSN             string        `conf:"dsn"               yaml:"dsn"               json:"dsn"`
	MaxOpenConns    int           `conf:"max_open_conns"    yaml:"max_open_conns"    json:"max_open_conns"`
	MaxIdleConns    int           `conf:"max_idle_conns"    yaml:"max_idle_conns"    json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `conf:"conn_max_lifetime" yaml:"conn_max_lifetime" json:"conn_max_lifetime"`
	AcquireTimeout  time.Duration `conf:"acquire_timeout"   yaml:"acquire_timeout"   json:"acquire_timeout"`
	Debug           bool          `conf:"debug"             yaml:"debug"             json:"debug"`
}

func (c Config) withDefaults() Config {
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = 10
	}

	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = c.MaxOpenConns / 2
	}

	if c.AcquireTimeout <= 0 {
		c.AcquireTimeout = 5 * time.Second
	}

	return c
}
