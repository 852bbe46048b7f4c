package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env        string     `yaml:"env" env-default:"local"`
	HTTPServer HTTPServer `yaml:"http_server"`
	Postgres   Postgres   `yaml:"postgres"`
	JWT        JWT        `yaml:"jwt"`
	Paystack   Paystack   `yaml:"paystack"`
	Payments   Payments   `yaml:"payments"`
	RateLimit  RateLimit  `yaml:"rate_limit"`
	Retry      Retry      `yaml:"retry"`
	Kafka      Kafka      `yaml:"kafka"`
	ES         ES         `yaml:"elasticsearch"`
	Minio      Minio      `yaml:"minio"`
}

type Paystack struct {
	BaseURL   string        `yaml:"base_url" env-default:"https://api.paystack.co"`
	SecretKey string        `yaml:"secret_key" env:"PAYSTACK_SECRET_KEY"`
	Timeout   time.Duration `yaml:"timeout" env-default:"10s"`
}

type Payments struct {
	Provider          string   `yaml:"provider" env-default:"paystack"`
	HomeCurrency      string   `yaml:"home_currency" env-default:"NGN"`
	AllowedCurrencies []string `yaml:"allowed_currencies" env-default:"NGN,USD"`
	AmountTolerance   float64  `yaml:"amount_tolerance" env-default:"0.01"`
}

type RateLimit struct {
	Attempts int           `yaml:"attempts" env-default:"10"`
	Window   time.Duration `yaml:"window" env-default:"60s"`
	BlockFor time.Duration `yaml:"block_for" env-default:"5m"`
}

type Retry struct {
	MaxAttempts int           `yaml:"max_attempts" env-default:"3"`
	BaseDelay   time.Duration `yaml:"base_delay" env-default:"100ms"`
}

type Kafka struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic" env-default:"enrollment.completed"`
}

type Minio struct {
	Endpoint   string        `yaml:"endpoint" env-default:"minio:9000"`
	AccessKey  string        `yaml:"access_key"`
	SecretKey  string        `yaml:"secret_key"`
	UseSSL     bool          `yaml:"use_ssl"`
	Bucket     string        `yaml:"bucket" env-default:"course-covers"`
	PresignTTL time.Duration `yaml:"presign_ttl" env-default:"1h"`
}

type ES struct {
	Hosts    []string `yaml:"hosts"`
	Index    string   `yaml:"index" env-default:"courses"`
	Password string   `yaml:"password"`
}

type JWT struct {
	SecretKey  string        `yaml:"secret_key"`
	AccessTTL  time.Duration `yaml:"access_token_ttl"`
	RefreshTTL time.Duration `yaml:"refresh_token_ttl"`
}

type Postgres struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env-default:"localhost:8081"`
	Timeout     time.Duration `yaml:"timeout" env-default:"5s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("Config file not exist: %s", configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("Can not read config file %s", err)
	}

	return &cfg
}
