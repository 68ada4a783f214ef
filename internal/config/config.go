// Package config reads the server settings from the environment, after an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

type Config struct {
	Host          string `env:"HOST,default=0.0.0.0"`
	Port          int    `env:"PORT,default=8080"`
	AllowedOrigin string `env:"ALLOWED_ORIGIN,default=*"`

	RoomGracePeriod time.Duration `env:"ROOM_GRACE_PERIOD,default=5m"`
	IDMaxAttempts   int           `env:"ID_MAX_ATTEMPTS,default=10"`

	MaxMessageSize int64 `env:"MAX_MESSAGE_SIZE,default=8388608"`
	SendBufferSize int   `env:"SEND_BUFFER_SIZE,default=256"`
	HubBufferSize  int   `env:"HUB_BUFFER_SIZE,default=512"`

	JWTSecret       string        `env:"JWT_SECRET,default=change-me"`
	CreatorTokenTTL time.Duration `env:"CREATOR_TOKEN_TTL,default=24h"`

	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=text"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
}

// Load reads .env when present and then the process environment. Variables
// already set in the environment win over the file.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT out of range: %d", c.Port))
	}
	if c.RoomGracePeriod <= 0 {
		errs = append(errs, fmt.Errorf("ROOM_GRACE_PERIOD must be positive"))
	}
	if c.IDMaxAttempts <= 0 {
		errs = append(errs, fmt.Errorf("ID_MAX_ATTEMPTS must be positive"))
	}
	if c.MaxMessageSize <= 0 || c.SendBufferSize <= 0 || c.HubBufferSize <= 0 {
		errs = append(errs, fmt.Errorf("MAX_MESSAGE_SIZE, SEND_BUFFER_SIZE and HUB_BUFFER_SIZE must be positive"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, fmt.Errorf("JWT_SECRET must not be empty"))
	}
	if c.CreatorTokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("CREATOR_TOKEN_TTL must be positive"))
	}
	return errors.Join(errs...)
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
