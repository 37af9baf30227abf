package config

import (
	"fmt"
	"net/url"
	"time"
)

type ServerConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Mode     string `mapstructure:"mode"`
	Timezone string `mapstructure:"timezone"`
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
	// ConnectTimeout bounds the startup ping retries, in seconds.
	ConnectTimeout int `mapstructure:"connect_timeout"`
}

// GetDSN builds the driver specific DSN. Times are always parsed as UTC.
func (d *DatabaseConfig) GetDSN() string {
	if d.Driver == DriverPostgres {
		sslMode := d.SSLMode
		if sslMode == "" {
			sslMode = "require"
		}
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(d.Username, d.Password),
			Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
			Path:     d.Database,
			RawQuery: "sslmode=" + sslMode + "&TimeZone=UTC",
		}
		return u.String()
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&collation=utf8mb4_general_ci&parseTime=true&loc=UTC",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// RedisConfig enables the cross-process allocation lock and the persisted
// Telegram offset. Without it both fall back to in-process state.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type TelegramConfig struct {
	BotToken     string  `mapstructure:"bot_token"`
	AdminChatIDs []int64 `mapstructure:"admin_chat_ids"`
	PollTimeout  int     `mapstructure:"poll_timeout"`
	APIBaseURL   string  `mapstructure:"api_base_url"`
	Workers      int     `mapstructure:"workers"`
}

// IsConfigured reports whether the bot front end should be started.
func (t *TelegramConfig) IsConfigured() bool {
	return t.BotToken != ""
}

type ProviderConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Country int           `mapstructure:"country"`
	Timeout time.Duration `mapstructure:"timeout"`
	// BalanceProbeInterval publishes the balance as a metric; zero disables it.
	BalanceProbeInterval time.Duration `mapstructure:"balance_probe_interval"`
}

type ActivationConfig struct {
	PollInterval      time.Duration `mapstructure:"poll_interval"`
	BackoffInterval   time.Duration `mapstructure:"backoff_interval"`
	CycleTimeout      time.Duration `mapstructure:"cycle_timeout"`
	MaxLifetime       time.Duration `mapstructure:"max_lifetime"`
	SweepInterval     time.Duration `mapstructure:"sweep_interval"`
	AwaitStep         time.Duration `mapstructure:"await_step"`
	AwaitTimeout      time.Duration `mapstructure:"await_timeout"`
	AllocationLockTTL time.Duration `mapstructure:"allocation_lock_ttl"`
	SingleCodeService []string      `mapstructure:"single_code_services"`
}

type AdminAPIConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Token   string `mapstructure:"token"`
	// AllowedOrigins are the browser origins allowed to call the admin API.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}
