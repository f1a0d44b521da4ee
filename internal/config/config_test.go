package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/gym-scheduler/internal/domain/booking"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"GYM_TOKEN", "TOKEN", "GYM_OPEN_ID", "OPEN_ID", "SEND_KEY", "DATABASE_URL", "REDIS_URL", "STATUS_ADDR", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, []int{0}, cfg.Days)
	assert.Equal(t, 10*time.Second, cfg.ReqIntervalDuration())
	assert.Equal(t, 600*time.Second, cfg.Intervals().Normal)
	assert.Equal(t, 60*time.Second, cfg.Intervals().Eager)
	assert.Equal(t, 3, cfg.Concurrency)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, 51, cfg.SportID)
	assert.False(t, cfg.AllowSolo)
	assert.Equal(t, booking.MustClock("07:00"), cfg.RefreshAt())

	w, err := cfg.SchedulerWindows()
	require.NoError(t, err)
	assert.Equal(t, booking.MustClock("06:55"), w.EagerStart)
	assert.Equal(t, booking.MustClock("23:59"), w.NormalEnd)

	prefs, err := cfg.PreferenceTable()
	require.NoError(t, err)
	assert.Equal(t, 10, prefs.Hours[328235])
	assert.Equal(t, 8, prefs.Resources["225"])
}

func TestLoad_YAMLWithEnvExpansion(t *testing.T) {
	clearEnv(t)
	t.Setenv("MY_SECRET", "from-env")
	path := writeFile(t, "gym.yaml", `
token: ${MY_SECRET}
open_id: oid
days: [1, 2]
req_interval: 3
consider_solo_fields: true
preferences:
  fields:
    "221": 9
  hours:
    "328236": 4
`)

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Token)
	assert.Equal(t, []int{1, 2}, cfg.Days)
	assert.Equal(t, 3*time.Second, cfg.ReqIntervalDuration())
	assert.True(t, cfg.AllowSolo)
	require.NoError(t, cfg.RequireSession())

	prefs, err := cfg.PreferenceTable()
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"221": 9}, prefs.Resources)
	assert.Equal(t, map[int]int{328236: 4}, prefs.Hours)
}

func TestLoad_TOML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "gym.toml", `
concurrency = 5
refresh_time = "07:01"

[windows]
eager_start = "06:50"
`)

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Concurrency)
	assert.Equal(t, booking.MustClock("07:01"), cfg.RefreshAt())
	w, err := cfg.SchedulerWindows()
	require.NoError(t, err)
	assert.Equal(t, booking.MustClock("06:50"), w.EagerStart)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("TOKEN", "legacy")
	t.Setenv("GYM_OPEN_ID", "env-oid")
	t.Setenv("STATUS_ADDR", ":9090")
	path := writeFile(t, "gym.yml", "token: file\nopen_id: file\n")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "legacy", cfg.Token)
	assert.Equal(t, "env-oid", cfg.OpenID)
	assert.Equal(t, ":9090", cfg.StatusAddr)
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "gym.json", "{}")

	_, err := Load(path)

	assert.Error(t, err)
}

func TestLoad_ExplicitZeroReqIntervalIsKept(t *testing.T) {
	clearEnv(t)

	for name, body := range map[string]string{
		"gym.yaml": "req_interval: 0\n",
		"gym.toml": "req_interval = 0\n",
	} {
		t.Run(name, func(t *testing.T) {
			cfg, err := Load(writeFile(t, name, body))

			require.NoError(t, err)
			require.NotNil(t, cfg.ReqInterval)
			assert.Zero(t, cfg.ReqIntervalDuration())
		})
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		c := Config{}
		c.applyDefaults()
		return c
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative day", func(c *Config) { c.Days = []int{-1} }},
		{"negative req interval", func(c *Config) { n := -1; c.ReqInterval = &n }},
		{"zero concurrency", func(c *Config) { c.Concurrency = -1 }},
		{"bad refresh", func(c *Config) { c.RefreshTime = "7am" }},
		{"bad window", func(c *Config) { c.Windows.EagerEnd = "25:00" }},
		{"reversed window", func(c *Config) { c.Windows.EagerEnd = "06:00" }},
		{"overlapping windows", func(c *Config) { c.Windows.NormalStart = "07:00" }},
		{"bad hour key", func(c *Config) { c.Preferences.Hours = map[string]int{"noon": 1} }},
		{"negative weight", func(c *Config) { c.Preferences.Fields = map[string]int{"220": -1} }},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }},
	}

	require.NoError(t, valid().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestRequireSession(t *testing.T) {
	assert.Error(t, Config{}.RequireSession())
	assert.Error(t, Config{Token: "t"}.RequireSession())
	assert.NoError(t, Config{Token: "t", OpenID: "o"}.RequireSession())
}
