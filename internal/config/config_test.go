package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const validConfig = `
server:
  addr: ":8080"
api:
  base_url: "http://localhost:8080"
  token: "tok"
payment:
  window_seconds: 300
  tick_interval_seconds: 2
pools:
  - pool_id: "thai-main"
    name: "Thai Main"
    festival_enabled: true
    windows:
      - { start: "07:00", end: "10:30" }
      - { start: "17:30", end: "10:30" }
    festival_window: { start: "23:30", end: "02:00" }
`

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "http://localhost:8080", cfg.API.BaseURL)
	assert.Equal(t, "tok", cfg.API.Token)
	assert.Equal(t, 300, cfg.Payment.WindowSeconds)
	assert.Equal(t, 2, cfg.Payment.TickIntervalSeconds)

	pools, err := cfg.Schedules()
	require.NoError(t, err)
	require.Len(t, pools, 1)
	assert.Len(t, pools[0].Windows, 2)
	assert.True(t, pools[0].Windows[1].CrossesMidnight())
	require.NotNil(t, pools[0].Festival)
	assert.True(t, pools[0].FestivalEnabled)
	assert.Len(t, pools[0].EffectiveWindows(), 3)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "api:\n  base_url: \"http://x\"\n"))
	require.NoError(t, err)
	assert.Equal(t, 900, cfg.Payment.WindowSeconds)
	assert.Equal(t, 1, cfg.Payment.TickIntervalSeconds)
	assert.Equal(t, 15*time.Minute, time.Duration(cfg.Payment.WindowSeconds)*time.Second)
}

func TestLoadMissingBaseURL(t *testing.T) {
	_, err := Load(writeConfig(t, "server:\n  addr: \":8080\"\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api.base_url")
}

func TestLoadRejectsMalformedWindow(t *testing.T) {
	bad := `
api:
  base_url: "http://x"
pools:
  - pool_id: "p"
    windows:
      - { start: "25:00", end: "10:00" }
`
	_, err := Load(writeConfig(t, bad))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "window")
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://override")
	t.Setenv("API_TOKEN", "envtok")
	t.Setenv("PAYMENT_WINDOW_SECONDS", "60")
	t.Setenv("PAYMENT_TICK_INTERVAL_SECONDS", "bogus")

	cfg, err := Load(writeConfig(t, validConfig))
	require.NoError(t, err)
	assert.Equal(t, "http://override", cfg.API.BaseURL)
	assert.Equal(t, "envtok", cfg.API.Token)
	assert.Equal(t, 60, cfg.Payment.WindowSeconds)
	assert.Equal(t, 2, cfg.Payment.TickIntervalSeconds, "bad override keeps the file value")
}
