package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

type Config struct {
	HTTPPort           string        `envconfig:"HTTP_PORT" default:"8080"`
	GRPCHealthPort     string        `envconfig:"GRPC_HEALTH_PORT" default:"9090"`
	APIBaseURL         string        `envconfig:"API_BASE_URL" default:"http://localhost:8081/api"`
	RequestTimeout     time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
	UpstreamTimeout    time.Duration `envconfig:"UPSTREAM_TIMEOUT" default:"10s"`
	ShutdownTimeout    time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	MaxRequestBodySize int64         `envconfig:"MAX_REQUEST_BODY_SIZE" default:"5242880"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	LogJSON  bool   `envconfig:"LOG_JSON" default:"true"`

	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	KafkaBrokers []string `envconfig:"KAFKA_BROKERS"`
	KafkaTopic   string   `envconfig:"KAFKA_TOPIC" default:"checkout-events"`

	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName  string `envconfig:"OTEL_SERVICE_NAME" default:"foodclub-storefront"`

	SessionIdleTTL  time.Duration `envconfig:"SESSION_IDLE_TTL" default:"2h"`
	SessionSweep    time.Duration `envconfig:"SESSION_SWEEP_INTERVAL" default:"1m"`
	WidgetTimeout   time.Duration `envconfig:"CHECKOUT_WIDGET_TIMEOUT" default:"15m"`
	MenuCacheTTL    time.Duration `envconfig:"MENU_CACHE_TTL" default:"5m"`
	AdminSessionTTL time.Duration `envconfig:"ADMIN_SESSION_TTL" default:"12h"`
	CookieSecure    bool          `envconfig:"COOKIE_SECURE" default:"false"`

	BreakerMaxFailures uint32        `envconfig:"BREAKER_MAX_FAILURES" default:"5"`
	BreakerOpenTimeout time.Duration `envconfig:"BREAKER_OPEN_TIMEOUT" default:"30s"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return errors.New("API_BASE_URL is required")
	}
	if c.HTTPPort == "" {
		return errors.New("HTTP_PORT is required")
	}
	if c.WidgetTimeout < 0 {
		return errors.New("CHECKOUT_WIDGET_TIMEOUT must not be negative")
	}
	return nil
}
