package config

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	StorePostgres = "postgres"
	StoreBolt     = "bolt"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Addr           string
	Store          string
	BoltPath       string
	JWTSecret      string
	AllowedOrigins []string
	OTLPAddr       string
	LogLevel       string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
}

// Load reads an optional .env file and the environment, then lets args
// override any value with a flag. args excludes the program name.
func Load(name string, args []string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found")
	}

	var origins string
	cfg := &Config{}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(&cfg.Addr, "addr", env("ADDR", "0.0.0.0:8080"), "server address")
	fs.StringVar(&cfg.Store, "store", env("STORE", StorePostgres), "storage backend: postgres or bolt")
	fs.StringVar(&cfg.BoltPath, "bolt-path", env("BOLT_PATH", "groupdecision.db"), "bolt database file")
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", os.Getenv("JWT_SECRET"), "HS256 access token secret")
	fs.StringVar(&origins, "allowed-origins", env("ALLOWED_ORIGINS", "*"), "comma separated CORS origins")
	fs.StringVar(&cfg.OTLPAddr, "otlp-grpc", os.Getenv("OTLP_GRPC"), "otlp/gRPC collector address, disabled when empty. Example value: localhost:4317")
	fs.StringVar(&cfg.LogLevel, "log-level", env("LOG_LEVEL", "INFO"), "log level")
	fs.StringVar(&cfg.DBHost, "db-host", os.Getenv("POSTGRES_HOST"), "Database host")
	fs.StringVar(&cfg.DBPort, "db-port", env("POSTGRES_PORT", "5432"), "Database port")
	fs.StringVar(&cfg.DBUser, "db-user", os.Getenv("POSTGRES_USER"), "Database user")
	fs.StringVar(&cfg.DBPassword, "db-pass", os.Getenv("POSTGRES_PASSWORD"), "Database password")
	fs.StringVar(&cfg.DBName, "db-name", os.Getenv("POSTGRES_DB"), "Database name")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
		}
	}
	return cfg, nil
}

// Validate checks the settings the HTTP server needs.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("%w: JWT_SECRET is required", ErrInvalidConfig)
	}
	switch c.Store {
	case StorePostgres:
		if c.DBHost == "" || c.DBName == "" {
			return fmt.Errorf("%w: POSTGRES_HOST and POSTGRES_DB are required for the postgres store", ErrInvalidConfig)
		}
	case StoreBolt:
		if c.BoltPath == "" {
			return fmt.Errorf("%w: BOLT_PATH is required for the bolt store", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store %q", ErrInvalidConfig, c.Store)
	}
	if _, err := c.Level(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(c.LogLevel))
	return level, err
}

func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

func env(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
