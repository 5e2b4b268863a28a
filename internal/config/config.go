package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"

	"github.com/jwalitptl/hospital-api/pkg/messaging/kafka"
	"github.com/jwalitptl/hospital-api/pkg/messaging/redis"
)

type Config struct {
	Env       string          `mapstructure:"env"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Log       LogConfig       `mapstructure:"log"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Broker    BrokerConfig    `mapstructure:"broker"`
	Chapa     ChapaConfig     `mapstructure:"chapa"`
	Email     EmailConfig     `mapstructure:"email"`
	Storage   StorageConfig   `mapstructure:"storage"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Worker    WorkerConfig    `mapstructure:"worker"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxHeaderBytes  int           `mapstructure:"max_header_bytes"`
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Name         string `mapstructure:"name"`
	SSLMode      string `mapstructure:"sslmode"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

// DSN returns the lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type JWTConfig struct {
	Secret             string `mapstructure:"secret"`
	RefreshSecret      string `mapstructure:"refresh_secret"`
	ExpiryHours        int    `mapstructure:"expiry_hours"`
	RefreshExpiryHours int    `mapstructure:"refresh_expiry_hours"`
	Issuer             string `mapstructure:"issuer"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
}

// BrokerConfig selects the realtime fan-out transport: redis, kafka or memory.
type BrokerConfig struct {
	Driver       string   `mapstructure:"driver"`
	Channel      string   `mapstructure:"channel"`
	KafkaBrokers []string `mapstructure:"kafka_brokers"`
	KafkaGroup   string   `mapstructure:"kafka_group"`
}

type ChapaConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	SecretKey     string        `mapstructure:"secret_key"`
	WebhookSecret string        `mapstructure:"webhook_secret"`
	CallbackURL   string        `mapstructure:"callback_url"`
	ReturnURL     string        `mapstructure:"return_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

type EmailConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type StorageConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Bucket        string `mapstructure:"bucket"`
	Region        string `mapstructure:"region"`
	Endpoint      string `mapstructure:"endpoint"`
	PublicBaseURL string `mapstructure:"public_base_url"`
	UsePathStyle  bool   `mapstructure:"use_path_style"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

type WorkerConfig struct {
	BatchSize             int           `mapstructure:"batch_size"`
	PollInterval          time.Duration `mapstructure:"poll_interval"`
	RetryAttempts         int           `mapstructure:"retry_attempts"`
	RetryDelay            time.Duration `mapstructure:"retry_delay"`
	NotificationRetention time.Duration `mapstructure:"notification_retention"`
	CleanupInterval       time.Duration `mapstructure:"cleanup_interval"`
	// Port serves the worker's health and metrics endpoints.
	Port int `mapstructure:"port"`
}

// Secrets are read from HOSPITAL_* environment variables and override
// whatever the config file holds.
type Secrets struct {
	JWTSecret          string `envconfig:"JWT_SECRET"`
	JWTRefreshSecret   string `envconfig:"JWT_REFRESH_SECRET"`
	DatabasePassword   string `envconfig:"DB_PASSWORD"`
	ChapaSecretKey     string `envconfig:"CHAPA_SECRET_KEY"`
	ChapaWebhookSecret string `envconfig:"CHAPA_WEBHOOK_SECRET"`
	SMTPPassword       string `envconfig:"SMTP_PASSWORD"`
	AWSAccessKey       string `envconfig:"AWS_ACCESS_KEY_ID"`
	AWSSecretKey       string `envconfig:"AWS_SECRET_ACCESS_KEY"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.request_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.max_header_bytes", 1<<20)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.name", "hospital")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)

	v.SetDefault("jwt.expiry_hours", 1)
	v.SetDefault("jwt.refresh_expiry_hours", 24*7)
	v.SetDefault("jwt.issuer", "hospital-api")

	v.SetDefault("log.level", "info")

	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.retry_backoff", 100*time.Millisecond)
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("broker.driver", "memory")
	v.SetDefault("broker.channel", "hospital.realtime")
	v.SetDefault("broker.kafka_group", "hospital-api")

	v.SetDefault("chapa.base_url", "https://api.chapa.co/v1/transaction/")
	v.SetDefault("chapa.timeout", 15*time.Second)

	v.SetDefault("email.port", 587)
	v.SetDefault("email.from", "no-reply@hospital.local")

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_second", 20.0)
	v.SetDefault("rate_limit.burst", 40)

	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"})

	v.SetDefault("worker.batch_size", 50)
	v.SetDefault("worker.poll_interval", 5*time.Second)
	v.SetDefault("worker.retry_attempts", 5)
	v.SetDefault("worker.retry_delay", time.Minute)
	v.SetDefault("worker.notification_retention", 90*24*time.Hour)
	v.SetDefault("worker.cleanup_interval", 24*time.Hour)
	v.SetDefault("worker.port", 8081)
}

// LoadConfig reads config.yaml from the given paths (or the standard
// locations), applies environment overrides and validates the result.
// A missing config file is not an error.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{".", "./config", "/app/config"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	var secrets Secrets
	if err := envconfig.Process("HOSPITAL", &secrets); err != nil {
		return nil, fmt.Errorf("failed to read secrets from environment: %w", err)
	}
	config.applySecrets(secrets)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) applySecrets(s Secrets) {
	override := func(dst *string, val string) {
		if val != "" {
			*dst = val
		}
	}
	override(&c.JWT.Secret, s.JWTSecret)
	override(&c.JWT.RefreshSecret, s.JWTRefreshSecret)
	override(&c.Database.Password, s.DatabasePassword)
	override(&c.Chapa.SecretKey, s.ChapaSecretKey)
	override(&c.Chapa.WebhookSecret, s.ChapaWebhookSecret)
	override(&c.Email.Password, s.SMTPPassword)
	override(&c.Storage.AccessKey, s.AWSAccessKey)
	override(&c.Storage.SecretKey, s.AWSSecretKey)
}

// Validate checks settings the server cannot start without.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("config: jwt secret is required (HOSPITAL_JWT_SECRET)")
	}
	if c.JWT.RefreshSecret == "" {
		c.JWT.RefreshSecret = c.JWT.Secret
	}
	switch c.Broker.Driver {
	case "memory", "redis", "kafka":
	default:
		return fmt.Errorf("config: unknown broker driver %q", c.Broker.Driver)
	}
	if c.Broker.Driver == "redis" && c.Redis.URL == "" {
		return errors.New("config: redis.url is required for the redis broker")
	}
	if c.Broker.Driver == "kafka" && len(c.Broker.KafkaBrokers) == 0 {
		return errors.New("config: broker.kafka_brokers is required for the kafka broker")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *RedisConfig) ToBrokerConfig() redis.Config {
	return redis.Config{
		URL:          c.URL,
		MaxRetries:   c.MaxRetries,
		RetryBackoff: c.RetryBackoff,
		PoolSize:     c.PoolSize,
		MinIdleConns: c.MinIdleConns,
	}
}

func (c *BrokerConfig) ToKafkaConfig() kafka.Config {
	return kafka.Config{
		Brokers:     c.KafkaBrokers,
		GroupPrefix: c.KafkaGroup,
	}
}
