package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := parse()
	require.NoError(t, err)
	assert.Equal(t, uint16(3001), cfg.HttpServerPort)
	assert.Equal(t, 9, cfg.WrongGuessLimit)
	assert.Equal(t, 10, cfg.WinPoints)
	assert.Zero(t, cfg.TurnTimeout)
	assert.Empty(t, cfg.CreatorTeam)
	assert.Equal(t, []string{"*"}, cfg.CorsAllowOrigins)
	assert.Equal(t, 24*time.Hour, cfg.StatsTTL)
}

func TestOverrides(t *testing.T) {
	t.Setenv("WRONG_GUESS_LIMIT", "6")
	t.Setenv("TURN_TIMEOUT", "45s")
	t.Setenv("CREATOR_TEAM", "A")
	t.Setenv("CORS_ALLOW_ORIGINS", "http://localhost:5173,https://play.example.com")

	cfg, err := parse()
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.WrongGuessLimit)
	assert.Equal(t, 45*time.Second, cfg.TurnTimeout)
	assert.Equal(t, "A", cfg.CreatorTeam)
	assert.Equal(t, []string{"http://localhost:5173", "https://play.example.com"}, cfg.CorsAllowOrigins)
}

func TestValidation(t *testing.T) {
	cases := map[string]string{
		"WRONG_GUESS_LIMIT": "27",
		"WIN_POINTS":        "0",
		"CREATOR_TEAM":      "C",
		"HTTP_SERVER_PORT":  "80",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			_, err := parse()
			assert.Error(t, err)
		})
	}
}
