package api_config

import (
	"time"

	"github.com/NordCoder/Tasker/internal/obs"
	pg "github.com/NordCoder/Tasker/internal/repository/postgres"
)

type App struct {
	Name       string `mapstructure:"name"`
	Env        string `mapstructure:"env"`
	Version    string `mapstructure:"version"`
	APIVersion int    `mapstructure:"api_version"`
}

type Server struct {
	HTTPAddr        string        `mapstructure:"http_addr"`
	GRPCAddr        string        `mapstructure:"grpc_addr"`
	MetricsAddr     string        `mapstructure:"metrics_addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	GracefulTimeout time.Duration `mapstructure:"graceful_timeout"`
	AllowOrigins    []string      `mapstructure:"allow_origins"`
}

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type DB struct {
	Driver    string `mapstructure:"driver"`
	pg.Config `mapstructure:",squash"`
}

type OTEL struct {
	Enable       bool    `mapstructure:"enable"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	ServiceName  string  `mapstructure:"service_name"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// Auth has no defaults: every field must be supplied.
type Auth struct {
	AccessSecret  string        `mapstructure:"access_secret"`
	AccessTTL     time.Duration `mapstructure:"access_ttl"`
	RefreshSecret string        `mapstructure:"refresh_secret"`
	RefreshTTL    time.Duration `mapstructure:"refresh_ttl"`
	BcryptCost    int           `mapstructure:"bcrypt_cost"`
	RotateRefresh bool          `mapstructure:"rotate_refresh"`
}

// RateLimit caps requests per client address. The strict limit covers the
// credential routes on top of the general one.
type RateLimit struct {
	Enable          bool          `mapstructure:"enable"`
	SkipLoopback    bool          `mapstructure:"skip_loopback"`
	GeneralRequests int           `mapstructure:"general_requests"`
	GeneralWindow   time.Duration `mapstructure:"general_window"`
	StrictRequests  int           `mapstructure:"strict_requests"`
	StrictWindow    time.Duration `mapstructure:"strict_window"`
}

type Sweeper struct {
	Enable     bool          `mapstructure:"enable"`
	Tick       time.Duration `mapstructure:"tick"`
	BatchLimit int           `mapstructure:"batch_limit"`
}

type Kafka struct {
	Enable            bool     `mapstructure:"enable"`
	Brokers           []string `mapstructure:"brokers"`
	Topic             string   `mapstructure:"topic"`
	Partitions        int      `mapstructure:"partitions"`
	ReplicationFactor int      `mapstructure:"replication_factor"`
}

type Outbox struct {
	Workers       int           `mapstructure:"workers"`
	BatchSize     int           `mapstructure:"batch_size"`
	WaitTime      time.Duration `mapstructure:"wait_time"`
	InProgressTTL time.Duration `mapstructure:"in_progress_ttl"`
}

type Config struct {
	App       App       `mapstructure:"app"`
	Server    Server    `mapstructure:"server"`
	DB        DB        `mapstructure:"db"`
	OTEL      OTEL      `mapstructure:"otel"`
	Log       Log       `mapstructure:"log"`
	Auth      Auth      `mapstructure:"auth"`
	RateLimit RateLimit `mapstructure:"rate_limit"`
	Sweeper   Sweeper   `mapstructure:"sweeper"`
	Kafka     Kafka     `mapstructure:"kafka"`
	Outbox    Outbox    `mapstructure:"outbox"`
}

func (c *Config) AsOTELConfig() *obs.OTELConfig {
	return &obs.OTELConfig{
		Enable:      c.OTEL.Enable,
		Endpoint:    c.OTEL.OTLPEndpoint,
		ServiceName: c.OTEL.ServiceName,
		Version:     c.App.Version,
		Env:         c.App.Env,
		SampleRatio: c.OTEL.SampleRatio,
	}
}

func (c *Config) AsLoggerConfig() obs.LogConfig {
	return obs.LogConfig{
		Level:  c.Log.Level,
		Pretty: c.Log.Pretty,
		App:    c.App.Name,
		Env:    c.App.Env,
		Ver:    c.App.Version,
	}
}

type ErrConfig string

func (e ErrConfig) Error() string { return string(e) }
