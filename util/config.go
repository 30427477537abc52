package util

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

const (
	TokenKindJWT    = "jwt"
	TokenKindPaseto = "paseto"
)

type Config struct {
	Port            string        `mapstructure:"PORT" validate:"required,number"`
	LogLevel        string        `mapstructure:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	LogFormat       string        `mapstructure:"LOG_FORMAT" validate:"oneof=json console"`
	AllowedOrigins  []string      `mapstructure:"ALLOWED_ORIGINS"`
	ClockSeconds    int           `mapstructure:"CLOCK_SECONDS" validate:"gt=0"`
	MaxMessageBytes int64         `mapstructure:"MAX_MESSAGE_BYTES" validate:"gte=256"`
	RequireAuth     bool          `mapstructure:"REQUIRE_AUTH"`
	TokenKind       string        `mapstructure:"TOKEN_KIND" validate:"oneof=jwt paseto"`
	JWTSecret       string        `mapstructure:"JWT_SECRET"`
	PasetoKey       string        `mapstructure:"PASETO_KEY" validate:"omitempty,len=32"`
	TokenTTL        time.Duration `mapstructure:"TOKEN_TTL" validate:"gt=0"`
	RedisAddress    string        `mapstructure:"REDIS_ADDR" validate:"omitempty,hostname_port"`
	RedisPassword   string        `mapstructure:"REDIS_PW"`
	RedisTTL        time.Duration `mapstructure:"REDIS_TTL" validate:"gt=0"`
}

var defaults = map[string]any{
	"PORT":              "8080",
	"LOG_LEVEL":         "info",
	"LOG_FORMAT":        "json",
	"ALLOWED_ORIGINS":   []string{},
	"CLOCK_SECONDS":     DefaultClockSeconds,
	"MAX_MESSAGE_BYTES": 4096,
	"REQUIRE_AUTH":      false,
	"TOKEN_KIND":        TokenKindJWT,
	"JWT_SECRET":        "",
	"PASETO_KEY":        "",
	"TOKEN_TTL":         24 * time.Hour,
	"REDIS_ADDR":        "",
	"REDIS_PW":          "",
	"REDIS_TTL":         12 * time.Hour,
}

// LoadConfig reads an optional .env file, then the environment.
func LoadConfig() (*Config, error) {
	godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	config.AllowedOrigins = lo.Compact(lo.Map(config.AllowedOrigins, func(o string, _ int) string {
		return strings.TrimSpace(o)
	}))

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if err := Validate.Struct(c); err != nil {
		return err
	}

	if c.RequireAuth && !c.TokensEnabled() {
		return errors.New("REQUIRE_AUTH needs JWT_SECRET (jwt) or PASETO_KEY (paseto)")
	}

	return nil
}

// TokensEnabled reports whether a key is configured for the chosen token kind.
func (c *Config) TokensEnabled() bool {
	switch c.TokenKind {
	case TokenKindJWT:
		return c.JWTSecret != ""
	case TokenKindPaseto:
		return c.PasetoKey != ""
	}
	return false
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%v", c.Port)
}
