package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	SMS      SMSConfig      `mapstructure:"sms"`
	Sweep    SweepConfig    `mapstructure:"sweep"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// SMSConfig selects the active delivery gateway and carries per-gateway
// credentials. Exactly one gateway is active per deployment.
type SMSConfig struct {
	Gateway      string             `mapstructure:"gateway"` // umeskia, textsms, hostpinnacle
	Timeout      time.Duration      `mapstructure:"timeout"`
	Umeskia      UmeskiaConfig      `mapstructure:"umeskia"`
	TextSMS      TextSMSConfig      `mapstructure:"textsms"`
	HostPinnacle HostPinnacleConfig `mapstructure:"hostpinnacle"`
}

type UmeskiaConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	APIKey   string `mapstructure:"api_key"`
	AppID    string `mapstructure:"app_id"`
	SenderID string `mapstructure:"sender_id"`
}

type TextSMSConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	APIKey    string `mapstructure:"api_key"`
	PartnerID string `mapstructure:"partner_id"`
	SenderID  string `mapstructure:"sender_id"`
}

type HostPinnacleConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	UserID   string `mapstructure:"user_id"`
	Password string `mapstructure:"password"`
	SenderID string `mapstructure:"sender_id"`
}

// SweepConfig controls the periodic retry of completed transactions that
// still have no voucher bound.
type SweepConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Interval   time.Duration `mapstructure:"interval"`
	BatchSize  int           `mapstructure:"batch_size"`
	RunTimeout time.Duration `mapstructure:"run_timeout"`
}

// AuthConfig holds operator credentials and JWT settings for the manual
// trigger and voucher administration endpoints.
type AuthConfig struct {
	OperatorUsername     string        `mapstructure:"operator_username"`
	OperatorPasswordHash string        `mapstructure:"operator_password_hash"` // argon2id encoded
	JWTSecret            string        `mapstructure:"jwt_secret"`
	JWTExpiry            time.Duration `mapstructure:"jwt_expiry"`
	JWTIssuer            string        `mapstructure:"jwt_issuer"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: HFS_ (Hotspot
// Fulfillment Service). Nested keys use underscore: HFS_DATABASE_HOST,
// HFS_SMS_GATEWAY, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "hotspot_billing")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("sms.gateway", "umeskia")
	v.SetDefault("sms.timeout", "30s")
	v.SetDefault("sms.umeskia.base_url", "https://comms.umeskiasoftwares.com")
	v.SetDefault("sms.umeskia.sender_id", "UMS_SMS")
	v.SetDefault("sms.textsms.base_url", "https://sms.textsms.co.ke")
	v.SetDefault("sms.textsms.sender_id", "TextSMS")
	v.SetDefault("sms.hostpinnacle.base_url", "https://smsportal.hostpinnacle.co.ke")
	v.SetDefault("sweep.enabled", true)
	v.SetDefault("sweep.interval", "2m")
	v.SetDefault("sweep.batch_size", 50)
	v.SetDefault("sweep.run_timeout", "1m")
	v.SetDefault("auth.operator_username", "")
	v.SetDefault("auth.operator_password_hash", "")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.jwt_expiry", "24h")
	v.SetDefault("auth.jwt_issuer", "hotspot-fulfillment")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: HFS_DATABASE_HOST -> database.host
	v.SetEnvPrefix("HFS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required — env vars can suffice)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}
