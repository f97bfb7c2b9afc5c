// Package conf loads the application configuration from file and
// environment. Environment variables use the MERCATO_ prefix with
// underscores for nesting, e.g. MERCATO_SERVER_PORT=8080.
package conf

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/mercatohq/mercato/internal/log"
	"github.com/mercatohq/mercato/internal/pkg/pushclient"
	"github.com/mercatohq/mercato/internal/server"
	"github.com/mercatohq/mercato/internal/server/biz"
	"github.com/mercatohq/mercato/internal/server/db"
)

type Config struct {
	Server  server.Config     `conf:"server"  yaml:"server"  json:"server"`
	DB      db.Config         `conf:"db"      yaml:"db"      json:"db"`
	Log     log.Config        `conf:"log"     yaml:"log"     json:"log"`
	Auth    biz.AuthConfig    `conf:"auth"    yaml:"auth"    json:"auth"`
	Upload  biz.UploadConfig  `conf:"upload"  yaml:"upload"  json:"upload"`
	Sitemap biz.SitemapConfig `conf:"sitemap" yaml:"sitemap" json:"sitemap"`
	Push    pushclient.Config `conf:"push"    yaml:"push"    json:"push"`
}

// Load reads mercato.yml (working directory, /etc/mercato, ~/.mercato) and
// overlays MERCATO_* environment variables. A missing file is fine; a
// malformed one is not.
func Load() (Config, error) {
	v := viper.New()

	v.SetConfigName("mercato")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/mercato")
	v.AddConfigPath("$HOME/.mercato")

	v.SetEnvPrefix("MERCATO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("conf: read config: %w", err)
		}
	}

	var config Config

	err := v.Unmarshal(&config, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "conf"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	})
	if err != nil {
		return Config{}, fmt.Errorf("conf: unmarshal config: %w", err)
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.name", "mercato")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.request_timeout", "30s")

	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.acquire_timeout", "5s")

	v.SetDefault("log.name", "mercato")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("auth.token_ttl", "168h")

	v.SetDefault("upload.dir", "uploads")
	v.SetDefault("upload.base_url", "/static/uploads")
	v.SetDefault("upload.max_size_bytes", 10<<20)

	v.SetDefault("push.timeout", "10s")
}
