package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	// Server
	Env               string
	Port              string
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration

	// Database
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	// JWT
	JWTSecret        string
	JWTExpirationDur time.Duration

	// Admin endpoints are disabled while this is empty.
	AdminAPIKey string

	// Reporting
	Timezone *time.Location
	TopN     int
}

var appConfig *Config

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("port", "8080")
	v.SetDefault("http_read_header_timeout", "5s")
	v.SetDefault("http_write_timeout", "30s")

	v.SetDefault("db_driver", "postgres")
	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", "5432")
	v.SetDefault("db_user", "jizhang")
	v.SetDefault("db_password", "jizhang")
	v.SetDefault("db_name", "jizhang")
	v.SetDefault("db_sslmode", "disable")
	v.SetDefault("sqlite_path", "jizhang.db")

	v.SetDefault("jwt_secret", "fallback-secret-key-for-dev-only")
	v.SetDefault("jwt_expires_in", "24h")

	v.SetDefault("admin_api_key", "")

	v.SetDefault("timezone", "Asia/Shanghai")
	v.SetDefault("top_n", 5)
}

// Load reads configuration from a .env file, an optional jizhang.yaml and the
// environment, in increasing order of precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigName("jizhang")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	config := &Config{
		Env:  v.GetString("env"),
		Port: v.GetString("port"),

		DBDriver:   strings.ToLower(v.GetString("db_driver")),
		DBHost:     v.GetString("db_host"),
		DBPort:     v.GetString("db_port"),
		DBUser:     v.GetString("db_user"),
		DBPassword: v.GetString("db_password"),
		DBName:     v.GetString("db_name"),
		DBSSLMode:  v.GetString("db_sslmode"),
		SQLitePath: v.GetString("sqlite_path"),

		JWTSecret:   v.GetString("jwt_secret"),
		AdminAPIKey: v.GetString("admin_api_key"),
		TopN:        v.GetInt("top_n"),
	}

	if config.DBDriver != "postgres" && config.DBDriver != "sqlite" {
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", config.DBDriver)
	}

	config.JWTExpirationDur = durationOr(v, "jwt_expires_in", 24*time.Hour)
	config.ReadHeaderTimeout = durationOr(v, "http_read_header_timeout", 5*time.Second)
	config.WriteTimeout = durationOr(v, "http_write_timeout", 30*time.Second)

	loc, err := time.LoadLocation(v.GetString("timezone"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	config.Timezone = loc

	if config.TopN <= 0 {
		config.TopN = 5
	}

	appConfig = config
	return config, nil
}

// durationOr parses a duration setting, falling back when it is malformed.
func durationOr(v *viper.Viper, key string, fallback time.Duration) time.Duration {
	raw := v.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %s\n", strings.ToUpper(key), raw, fallback)
		return fallback
	}
	return d
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}
