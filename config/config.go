package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type JWTConfig struct {
	SecretKey      string        `mapstructure:"secretKey"`
	Issuer         string        `mapstructure:"issuer"`
	Audience       string        `mapstructure:"audience"`
	AccessTokenTTL time.Duration `mapstructure:"accessTokenTTL"`
}

type MongoConfig struct {
	URI      string        `mapstructure:"uri"`
	Database string        `mapstructure:"database"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type PostgresConfig struct {
	Host              string `mapstructure:"host"`
	Password          string `mapstructure:"password"`
	Port              string `mapstructure:"port"`
	Username          string `mapstructure:"username"`
	DB                string `mapstructure:"db"`
	SSLMODE           string `mapstructure:"SSLMODE"`
	MAXCONWAITINGTIME int    `mapstructure:"MAXCONWAITINGTIME"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type Config struct {
	Mode   string `mapstructure:"mode"`
	Server struct {
		HTTPPort string        `mapstructure:"HTTPPort"`
		Timeout  time.Duration `mapstructure:"HTTPTimeout"`
	} `mapstructure:"server"`
	Store struct {
		Driver string `mapstructure:"driver"`
	} `mapstructure:"store"`
	Repositories struct {
		Mongo    MongoConfig    `mapstructure:"mongo"`
		Postgres PostgresConfig `mapstructure:"postgres"`
	} `mapstructure:"repositories"`
	Redis RedisConfig `mapstructure:"redis"`
	JWT   JWTConfig   `mapstructure:"jwt"`
	CORS  struct {
		AllowedOrigins []string `mapstructure:"allowedOrigins"`
	} `mapstructure:"cors"`
	RateLimit struct {
		AuthRequestsPerMinute int `mapstructure:"authRequestsPerMinute"`
	} `mapstructure:"rateLimit"`
	Handlers struct {
		Prometheus struct {
			Port string `mapstructure:"port"`
		} `mapstructure:"prometheus"`
	} `mapstructure:"handlers"`
}

// InitConfig loads config.yml from the usual locations, falling back to the
// embedded copy. Any key can be overridden with a TODO_ prefixed variable,
// e.g. TODO_JWT_SECRETKEY or TODO_STORE_DRIVER.
func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	v.SetEnvPrefix("TODO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	err := v.ReadInConfig()
	if err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %w", err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err = config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.JWT.SecretKey == "" {
		errs = append(errs, errors.New("jwt.secretKey must not be empty"))
	}
	if c.JWT.AccessTokenTTL <= 0 {
		errs = append(errs, errors.New("jwt.accessTokenTTL must be positive"))
	}
	switch c.Store.Driver {
	case StoreMongo, StorePostgres, StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown store.driver %q", c.Store.Driver))
	}
	if c.Server.HTTPPort == "" {
		errs = append(errs, errors.New("server.HTTPPort must not be empty"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
