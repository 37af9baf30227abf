package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"

	sharedConfig "github.com/RobertLogos32/bto-prova/internal/shared/config"
)

type Config struct {
	Server     sharedConfig.ServerConfig     `mapstructure:"server"`
	Database   sharedConfig.DatabaseConfig   `mapstructure:"database"`
	Logger     sharedConfig.LoggerConfig     `mapstructure:"logger"`
	Redis      sharedConfig.RedisConfig      `mapstructure:"redis"`
	Telegram   sharedConfig.TelegramConfig   `mapstructure:"telegram"`
	Provider   sharedConfig.ProviderConfig   `mapstructure:"provider"`
	Activation sharedConfig.ActivationConfig `mapstructure:"activation"`
	AdminAPI   sharedConfig.AdminAPIConfig   `mapstructure:"admin_api"`
}

var (
	appConfig   *Config
	appConfigMu sync.RWMutex
)

// Load loads configuration from file and environment variables.
// A missing config file is tolerated so the service can run from env alone.
func Load(env, configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath("../configs")
		v.AddConfigPath("../../configs")
	}

	v.SetEnvPrefix("OTPBROKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if env != "" && env != "default" {
		v.Set("server.mode", env)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	appConfigMu.Lock()
	appConfig = &config
	appConfigMu.Unlock()

	return &config, nil
}

// Get returns the loaded configuration
func Get() *Config {
	appConfigMu.RLock()
	defer appConfigMu.RUnlock()
	return appConfig
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case sharedConfig.DriverMySQL, sharedConfig.DriverPostgres:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	positive := []struct {
		key   string
		value time.Duration
	}{
		{"activation.poll_interval", c.Activation.PollInterval},
		{"activation.backoff_interval", c.Activation.BackoffInterval},
		{"activation.max_lifetime", c.Activation.MaxLifetime},
		{"activation.sweep_interval", c.Activation.SweepInterval},
		{"activation.await_step", c.Activation.AwaitStep},
		{"activation.await_timeout", c.Activation.AwaitTimeout},
	}
	for _, d := range positive {
		if d.value <= 0 {
			return fmt.Errorf("%s must be positive, got %s", d.key, d.value)
		}
	}
	if c.Provider.BalanceProbeInterval < 0 {
		return fmt.Errorf("provider.balance_probe_interval must not be negative")
	}
	if c.AdminAPI.Enabled && c.AdminAPI.Token == "" {
		return fmt.Errorf("admin_api.token is required when the admin API is enabled")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.timezone", "Europe/Rome")

	// Database defaults
	v.SetDefault("database.driver", sharedConfig.DriverPostgres)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.username", "otpbot")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "otp_bot_db")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.conn_max_lifetime", 60)
	v.SetDefault("database.connect_timeout", 30)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output_path", "stdout")

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Telegram defaults
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.admin_chat_ids", []int64{})
	v.SetDefault("telegram.poll_timeout", 30)
	v.SetDefault("telegram.api_base_url", "https://api.telegram.org")
	v.SetDefault("telegram.workers", 4)

	// Number provider defaults
	v.SetDefault("provider.base_url", "https://api.sms-activate.org/stubs/handler_api.php")
	v.SetDefault("provider.api_key", "")
	v.SetDefault("provider.country", 86)
	v.SetDefault("provider.timeout", "15s")
	v.SetDefault("provider.balance_probe_interval", "10m")

	// Activation polling defaults
	v.SetDefault("activation.poll_interval", "20s")
	v.SetDefault("activation.backoff_interval", "60s")
	v.SetDefault("activation.cycle_timeout", "5m")
	v.SetDefault("activation.max_lifetime", "20m")
	v.SetDefault("activation.sweep_interval", "1m")
	v.SetDefault("activation.await_step", "5s")
	v.SetDefault("activation.await_timeout", "120s")
	v.SetDefault("activation.allocation_lock_ttl", "60s")
	v.SetDefault("activation.single_code_services", []string{})

	// Admin API defaults
	v.SetDefault("admin_api.enabled", false)
	v.SetDefault("admin_api.token", "")
	v.SetDefault("admin_api.allowed_origins", []string{})
}
