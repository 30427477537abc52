package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Port:            "8080",
		LogLevel:        "info",
		LogFormat:       "json",
		ClockSeconds:    300,
		MaxMessageBytes: 4096,
		TokenKind:       TokenKindJWT,
		TokenTTL:        time.Hour,
		RedisTTL:        time.Hour,
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ALLOWED_ORIGINS", "http://localhost:3000, http://localhost:5173")
	t.Setenv("CLOCK_SECONDS", "600")

	config, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, "9090", config.Port)
	require.Equal(t, ":9090", config.Addr())
	require.Equal(t, 600, config.ClockSeconds)
	require.Equal(t, []string{"http://localhost:3000", "http://localhost:5173"}, config.AllowedOrigins)
	require.Equal(t, 12*time.Hour, config.RedisTTL)
	require.False(t, config.RequireAuth)
}

func TestLoadConfigInvalid(t *testing.T) {
	t.Setenv("PORT", "eighty")

	_, err := LoadConfig()
	require.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		c := validConfig()
		require.NoError(t, c.Validate())
	})

	t.Run("bad log level", func(t *testing.T) {
		c := validConfig()
		c.LogLevel = "verbose"
		require.Error(t, c.Validate())
	})

	t.Run("auth without secret", func(t *testing.T) {
		c := validConfig()
		c.RequireAuth = true
		require.Error(t, c.Validate())

		c.JWTSecret = "YELLOW SUBMARINE, BLACK WIZARDRY"
		require.NoError(t, c.Validate())
	})

	t.Run("paseto key length", func(t *testing.T) {
		c := validConfig()
		c.TokenKind = TokenKindPaseto
		c.PasetoKey = "short"
		require.Error(t, c.Validate())

		c.PasetoKey = "YELLOW SUBMARINE, BLACK WIZARDRY"
		require.NoError(t, c.Validate())
		require.True(t, c.TokensEnabled())
	})

	t.Run("redis address", func(t *testing.T) {
		c := validConfig()
		c.RedisAddress = "localhost:6379"
		require.NoError(t, c.Validate())

		c.RedisAddress = "localhost"
		require.Error(t, c.Validate())
	})
}

func TestRoomIDValidation(t *testing.T) {
	type payload struct {
		RoomID string `json:"roomId" validate:"required,roomid"`
	}

	require.NoError(t, Validate.Struct(payload{RoomID: "ABCD"}))
	require.NoError(t, Validate.Struct(payload{RoomID: "X7K2QP"}))
	require.Error(t, Validate.Struct(payload{RoomID: "abcd"}))
	require.Error(t, Validate.Struct(payload{RoomID: "AB-CD"}))
	require.Error(t, Validate.Struct(payload{RoomID: "ABCDEFGHIJKLMNOPQ"}))
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("debug", "console")
	require.NoError(t, err)
	require.NotNil(t, logger)

	_, err = NewLogger("loud", "json")
	require.Error(t, err)

	_, err = NewLogger("info", "xml")
	require.Error(t, err)
}

func TestGeneral(t *testing.T) {
	require.Equal(t, "room:ABCD", GetRoomKey("ABCD"))
	require.Equal(t, "yes", StartedEnum(true).String())
	require.Equal(t, "no", StartedEnum(false).String())
}
