package config

import (
	"log/slog"
	"reflect"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/tonkeeper/tongo/config"
)

type Config struct {
	Port        int                 `env:"PORT" envDefault:"8081"`
	LogLevel    slog.Level          `env:"LOG_LEVEL" envDefault:"INFO"`
	PostgresURI string              `env:"POSTGRES_URI,required"`
	Token       string              `env:"TOKEN"` // empty disables authorization
	LiteServers []config.LiteServer `env:"LITE_SERVERS"`
	// StartSeqno is the first masterchain block to index when the journal is empty.
	StartSeqno   uint32        `env:"START_SEQNO"`
	PollInterval time.Duration `env:"POLL_INTERVAL" envDefault:"5s"`
	FanoutDepth  int           `env:"FANOUT_DEPTH" envDefault:"64"`
}

func Load() Config {
	var (
		c  Config
		ll slog.Level
	)
	if err := env.ParseWithFuncs(&c, map[reflect.Type]env.ParserFunc{
		reflect.TypeOf(ll): func(v string) (interface{}, error) {
			var level slog.Level
			err := level.UnmarshalText([]byte(v))
			return level, err
		},
		reflect.TypeOf([]config.LiteServer{}): func(v string) (interface{}, error) {
			servers, err := config.ParseLiteServersEnvVar(v)
			if err != nil {
				return nil, err
			}
			return servers, nil
		},
	}); err != nil {
		panic("parse config error: " + err.Error())
	}
	return c
}
