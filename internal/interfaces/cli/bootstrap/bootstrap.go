// Package bootstrap holds the startup steps shared by the CLI commands.
package bootstrap

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"

	"github.com/RobertLogos32/bto-prova/internal/infrastructure/cache"
	"github.com/RobertLogos32/bto-prova/internal/infrastructure/config"
	"github.com/RobertLogos32/bto-prova/internal/shared/biztime"
	"github.com/RobertLogos32/bto-prova/internal/shared/logger"
)

// Options are the flags every subcommand accepts.
type Options struct {
	Env        string
	ConfigPath string
}

func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&o.Env, "env", "e", "development", "Environment (development, test, production)")
	fs.StringVarP(&o.ConfigPath, "config", "c", "", "Path to config file (default: ./configs/config.yaml)")
}

// Environment returns the ENV variable when set, the flag value otherwise.
func (o *Options) Environment() string {
	if envVar := os.Getenv("ENV"); envVar != "" {
		return envVar
	}
	return o.Env
}

// Load reads the configuration and initializes logging and the business
// timezone. The returned config has Server.Mode set to the gin mode.
func Load(o Options) (*config.Config, error) {
	env := o.Environment()

	cfg, err := config.Load(env, o.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Server.Mode = MapEnvToGinMode(env)

	if err := logger.Init(&cfg.Logger, cfg.Server.Mode == gin.DebugMode); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := biztime.Init(cfg.Server.Timezone); err != nil {
		return nil, fmt.Errorf("failed to initialize business timezone: %w", err)
	}

	return cfg, nil
}

// OpenRedis connects to redis when it is enabled; otherwise it returns nil
// and the broker keeps its coordination state in process.
func OpenRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	client, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func MapEnvToGinMode(environment string) string {
	switch environment {
	case "production", "prod", "release":
		return gin.ReleaseMode
	case "test", "testing":
		return gin.TestMode
	default:
		return gin.DebugMode
	}
}
