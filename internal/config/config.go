package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendDynamoDB = "dynamodb"

	ConsoleAuthNone   = "none"
	ConsoleAuthAPIKey = "api_key"
)

type Config struct {
	APIURL         string        `mapstructure:"API_URL"`
	HTTPTimeout    time.Duration `mapstructure:"HTTP_TIMEOUT"`
	SessionBackend string        `mapstructure:"SESSION_BACKEND"`
	SessionFile    string        `mapstructure:"SESSION_FILE"`
	SessionProfile string        `mapstructure:"SESSION_PROFILE"`
	RedisAddr      string        `mapstructure:"REDIS_ADDR"`
	RedisPassword  string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB        int           `mapstructure:"REDIS_DB"`
	DynamoDBTable  string        `mapstructure:"DYNAMODB_TABLE"`
	AWSRegion      string        `mapstructure:"AWS_REGION"`
	LogLevel       string        `mapstructure:"LOG_LEVEL"`
	LogFormat      string        `mapstructure:"LOG_FORMAT"`
	ConsoleAddr    string        `mapstructure:"CONSOLE_ADDR"`
	ConsoleAuth    string        `mapstructure:"CONSOLE_AUTH_MODE"`
	ConsoleAPIKey  string        `mapstructure:"CONSOLE_API_KEY"`
	TracingEnabled bool          `mapstructure:"TRACING_ENABLED"`
}

var keys = []string{
	"API_URL", "HTTP_TIMEOUT",
	"SESSION_BACKEND", "SESSION_FILE", "SESSION_PROFILE",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
	"DYNAMODB_TABLE", "AWS_REGION",
	"LOG_LEVEL", "LOG_FORMAT",
	"CONSOLE_ADDR", "CONSOLE_AUTH_MODE", "CONSOLE_API_KEY",
	"TRACING_ENABLED",
}

// New returns a viper instance with defaults and VITALNOTES_* environment
// bindings. AWS_REGION is also read without the prefix.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("VITALNOTES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("API_URL", "http://localhost:8085/api")
	v.SetDefault("HTTP_TIMEOUT", "30s")
	v.SetDefault("SESSION_BACKEND", BackendFile)
	v.SetDefault("SESSION_FILE", defaultSessionFile())
	v.SetDefault("SESSION_PROFILE", "default")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("CONSOLE_ADDR", "127.0.0.1:8090")
	v.SetDefault("CONSOLE_AUTH_MODE", ConsoleAuthNone)
	v.SetDefault("TRACING_ENABLED", false)

	for _, key := range keys {
		_ = v.BindEnv(key)
	}
	_ = v.BindEnv("AWS_REGION", "VITALNOTES_AWS_REGION", "AWS_REGION")
	return v
}

// Load reads an optional config file into v and decodes the result. A
// missing file is only an error when it was named explicitly.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.SessionBackend = strings.ToLower(strings.TrimSpace(cfg.SessionBackend))
	cfg.ConsoleAuth = strings.ToLower(strings.TrimSpace(cfg.ConsoleAuth))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIURL) == "" {
		return fmt.Errorf("API_URL is required")
	}
	if c.HTTPTimeout < 0 {
		return fmt.Errorf("HTTP_TIMEOUT must not be negative")
	}
	switch c.SessionBackend {
	case BackendFile:
		if c.SessionFile == "" {
			return fmt.Errorf("SESSION_FILE is required for the file session backend")
		}
	case BackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis session backend")
		}
	case BackendDynamoDB:
		if c.DynamoDBTable == "" || c.AWSRegion == "" {
			return fmt.Errorf("DYNAMODB_TABLE and AWS_REGION are required for the dynamodb session backend")
		}
	default:
		return fmt.Errorf("SESSION_BACKEND must be %q, %q or %q, got %q", BackendFile, BackendRedis, BackendDynamoDB, c.SessionBackend)
	}
	switch c.ConsoleAuth {
	case ConsoleAuthNone:
	case ConsoleAuthAPIKey:
		if c.ConsoleAPIKey == "" {
			return fmt.Errorf("CONSOLE_API_KEY is required when CONSOLE_AUTH_MODE is %q", ConsoleAuthAPIKey)
		}
	default:
		return fmt.Errorf("CONSOLE_AUTH_MODE must be %q or %q, got %q", ConsoleAuthNone, ConsoleAuthAPIKey, c.ConsoleAuth)
	}
	return nil
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "vitalnotes", "session.json")
}
