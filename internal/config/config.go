package config

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	DriverMongo  = "mongo"
	DriverSQLite = "sqlite"
)

// Config holds application level configuration aggregated from env/config files.
// It is read once at startup and passed by value afterwards.
type Config struct {
	Server struct {
		Addr string
	}
	Database struct {
		Driver string
		URI    string
		Name   string
		Path   string
	}
	Auth struct {
		JWTSecret  string
		BcryptCost int
	}
	Storage struct {
		Bucket    string
		KeyPrefix string
		Region    string
		Endpoint  string
	}
	AWS struct {
		Profile string
	}
	Log struct {
		Level string
	}
}

// Load reads configuration from environment variables and optional config files.
func Load() (Config, error) {
	loadDotEnv(".env")

	v := viper.New()
	v.SetEnvPrefix("HEALTH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", "0.0.0.0:5000")
	v.SetDefault("database.driver", DriverMongo)
	v.SetDefault("database.uri", "mongodb://localhost:27017/ai_health")
	v.SetDefault("database.name", "ai_health")
	v.SetDefault("database.path", "data/health.db")
	v.SetDefault("auth.jwtsecret", "")
	v.SetDefault("auth.bcryptcost", 10)
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.keyprefix", "recommendations")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("aws.profile", "")
	v.SetDefault("log.level", "info")

	// plain names used by existing deployments
	_ = v.BindEnv("auth.jwtsecret", "HEALTH_AUTH_JWTSECRET", "JWT_SECRET")
	_ = v.BindEnv("database.uri", "HEALTH_DATABASE_URI", "DB_URI")

	v.SetConfigName("config")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional file

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" && os.Getenv("HEALTH_SERVER_ADDR") == "" {
		host, _, err := net.SplitHostPort(cfg.Server.Addr)
		if err != nil {
			host = ""
		}
		cfg.Server.Addr = net.JoinHostPort(host, port)
	}

	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate reports configuration that cannot produce a working server.
// A missing JWT secret is left to the caller, which treats it as fatal.
func (c Config) Validate() error {
	switch c.Database.Driver {
	case DriverMongo:
		if strings.TrimSpace(c.Database.URI) == "" {
			return fmt.Errorf("database uri is required for driver %q", c.Database.Driver)
		}
	case DriverSQLite:
		if strings.TrimSpace(c.Database.Path) == "" {
			return fmt.Errorf("database path is required for driver %q", c.Database.Driver)
		}
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("auth bcrypt cost %d out of range [4, 31]", c.Auth.BcryptCost)
	}
	return nil
}

func loadDotEnv(path string) {
	file, err := os.Open(path)
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		partsIndex := strings.Index(line, "=")
		if partsIndex <= 0 {
			continue
		}

		key := strings.TrimSpace(line[:partsIndex])
		value := strings.TrimSpace(line[partsIndex+1:])
		value = strings.Trim(value, `"'`)
		if key == "" {
			continue
		}

		if _, exists := os.LookupEnv(key); !exists {
			_ = os.Setenv(key, value)
		}
	}
}
