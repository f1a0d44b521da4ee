package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/example/gym-scheduler/internal/catalog"
	"github.com/example/gym-scheduler/internal/domain/booking"
	"github.com/example/gym-scheduler/internal/scheduler"
)

type Config struct {
	// session captured from the WeChat H5 client
	Token   string `yaml:"token"    toml:"token"`
	OpenID  string `yaml:"open_id"  toml:"open_id"`
	SendKey string `yaml:"send_key" toml:"send_key"`

	BaseURL string `yaml:"base_url" toml:"base_url"`
	SportID int    `yaml:"sport_id" toml:"sport_id"`

	// hunt
	Days          []int  `yaml:"days"                 toml:"days"`
	ReqInterval   *int   `yaml:"req_interval"         toml:"req_interval"`   // seconds; nil = unset
	Interval      int    `yaml:"interval"             toml:"interval"`       // seconds
	EagerInterval int    `yaml:"eager_interval"       toml:"eager_interval"` // seconds
	Concurrency   int    `yaml:"concurrency"          toml:"concurrency"`
	RefreshTime   string `yaml:"refresh_time"         toml:"refresh_time"`
	MaxRetries    int    `yaml:"max_retries"          toml:"max_retries"`
	AllowSolo     bool   `yaml:"consider_solo_fields" toml:"consider_solo_fields"`

	Windows     WindowsConfig     `yaml:"windows"     toml:"windows"`
	Preferences PreferencesConfig `yaml:"preferences" toml:"preferences"`

	LogLevel    string `yaml:"log_level"    toml:"log_level"`
	DatabaseURL string `yaml:"database_url" toml:"database_url"`
	RedisURL    string `yaml:"redis_url"    toml:"redis_url"`
	StatusAddr  string `yaml:"status_addr"  toml:"status_addr"`
}

type WindowsConfig struct {
	EagerStart  string `yaml:"eager_start"  toml:"eager_start"`
	EagerEnd    string `yaml:"eager_end"    toml:"eager_end"`
	NormalStart string `yaml:"normal_start" toml:"normal_start"`
	NormalEnd   string `yaml:"normal_end"   toml:"normal_end"`
}

// PreferencesConfig weighs fields and hours; 0 = ignore, 10 = must book.
// Keys are upstream ids as strings.
type PreferencesConfig struct {
	Fields map[string]int `yaml:"fields" toml:"fields"`
	Hours  map[string]int `yaml:"hours"  toml:"hours"`
}

// Load reads .env, the optional config file at path and the environment, in
// that order of increasing precedence, then applies defaults and validates.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		if err := decodeFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	applyEnv(&cfg)
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	expanded := os.ExpandEnv(string(data))

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	case ".toml":
		if _, err := toml.Decode(expanded, cfg); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported config format %q (want .yaml, .yml or .toml)", filepath.Ext(path))
	}
	return nil
}

func applyEnv(cfg *Config) {
	set := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := os.Getenv(k); v != "" {
				*dst = v
				return
			}
		}
	}
	set(&cfg.Token, "GYM_TOKEN", "TOKEN")
	set(&cfg.OpenID, "GYM_OPEN_ID", "OPEN_ID")
	set(&cfg.SendKey, "SEND_KEY")
	set(&cfg.DatabaseURL, "DATABASE_URL")
	set(&cfg.RedisURL, "REDIS_URL")
	set(&cfg.StatusAddr, "STATUS_ADDR")
	set(&cfg.LogLevel, "LOG_LEVEL")
}

func (c *Config) applyDefaults() {
	if c.SportID == 0 {
		c.SportID = 51
	}
	if len(c.Days) == 0 {
		c.Days = []int{0}
	}
	if c.ReqInterval == nil {
		def := 10
		c.ReqInterval = &def
	}
	if c.Interval == 0 {
		c.Interval = 600
	}
	if c.EagerInterval == 0 {
		c.EagerInterval = 60
	}
	if c.Concurrency == 0 {
		c.Concurrency = 3
	}
	if c.RefreshTime == "" {
		c.RefreshTime = "07:00"
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 5
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	def := scheduler.DefaultWindows()
	if c.Windows.EagerStart == "" {
		c.Windows.EagerStart = def.EagerStart.String()
	}
	if c.Windows.EagerEnd == "" {
		c.Windows.EagerEnd = def.EagerEnd.String()
	}
	if c.Windows.NormalStart == "" {
		c.Windows.NormalStart = def.NormalStart.String()
	}
	if c.Windows.NormalEnd == "" {
		c.Windows.NormalEnd = def.NormalEnd.String()
	}

	prefs := catalog.DefaultPreferences()
	if len(c.Preferences.Fields) == 0 {
		c.Preferences.Fields = prefs.Resources
	}
	if len(c.Preferences.Hours) == 0 {
		c.Preferences.Hours = make(map[string]int, len(prefs.Hours))
		for id, w := range prefs.Hours {
			c.Preferences.Hours[strconv.Itoa(id)] = w
		}
	}
}

func (c Config) Validate() error {
	if len(c.Days) == 0 {
		return fmt.Errorf("days required")
	}
	for _, d := range c.Days {
		if d < 0 {
			return fmt.Errorf("days must be >= 0, got %d", d)
		}
	}
	if c.SportID < 1 {
		return fmt.Errorf("sport_id must be >= 1")
	}
	if c.ReqInterval == nil || *c.ReqInterval < 0 {
		return fmt.Errorf("req_interval must be >= 0")
	}
	if c.Interval < 1 {
		return fmt.Errorf("interval must be >= 1")
	}
	if c.EagerInterval < 1 {
		return fmt.Errorf("eager_interval must be >= 1")
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be >= 1")
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("max_retries must be >= 1")
	}
	if _, err := booking.ParseClock(c.RefreshTime); err != nil {
		return fmt.Errorf("refresh_time: %w", err)
	}
	w, err := c.SchedulerWindows()
	if err != nil {
		return err
	}
	if w.EagerEnd.Before(w.EagerStart) {
		return fmt.Errorf("windows: eager_end must not be before eager_start")
	}
	if w.NormalEnd.Before(w.NormalStart) {
		return fmt.Errorf("windows: normal_end must not be before normal_start")
	}
	if !w.EagerEnd.Before(w.NormalStart) && !w.NormalEnd.Before(w.EagerStart) {
		return fmt.Errorf("windows: eager and normal windows overlap")
	}
	if _, err := c.PreferenceTable(); err != nil {
		return err
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error")
	}
	return nil
}

// RequireSession reports whether the credentials needed to place orders are set.
func (c Config) RequireSession() error {
	if c.Token == "" {
		return fmt.Errorf("token required (set GYM_TOKEN or TOKEN)")
	}
	if c.OpenID == "" {
		return fmt.Errorf("open_id required (set GYM_OPEN_ID or OPEN_ID)")
	}
	return nil
}

func (c Config) SchedulerWindows() (scheduler.Windows, error) {
	var w scheduler.Windows
	for _, f := range []struct {
		name string
		src  string
		dst  *booking.ClockTime
	}{
		{"eager_start", c.Windows.EagerStart, &w.EagerStart},
		{"eager_end", c.Windows.EagerEnd, &w.EagerEnd},
		{"normal_start", c.Windows.NormalStart, &w.NormalStart},
		{"normal_end", c.Windows.NormalEnd, &w.NormalEnd},
	} {
		t, err := booking.ParseClock(f.src)
		if err != nil {
			return scheduler.Windows{}, fmt.Errorf("windows.%s: %w", f.name, err)
		}
		*f.dst = t
	}
	return w, nil
}

func (c Config) PreferenceTable() (booking.PreferenceTable, error) {
	p := booking.PreferenceTable{
		Resources: make(map[string]int, len(c.Preferences.Fields)),
		Hours:     make(map[int]int, len(c.Preferences.Hours)),
	}
	for id, w := range c.Preferences.Fields {
		if w < 0 {
			return booking.PreferenceTable{}, fmt.Errorf("preferences.fields[%s]: weight must be >= 0", id)
		}
		p.Resources[id] = w
	}
	for key, w := range c.Preferences.Hours {
		id, err := strconv.Atoi(key)
		if err != nil {
			return booking.PreferenceTable{}, fmt.Errorf("preferences.hours: invalid hour id %q", key)
		}
		if w < 0 {
			return booking.PreferenceTable{}, fmt.Errorf("preferences.hours[%s]: weight must be >= 0", key)
		}
		p.Hours[id] = w
	}
	return p, nil
}

func (c Config) RefreshAt() booking.ClockTime {
	t, _ := booking.ParseClock(c.RefreshTime)
	return t
}

func (c Config) ReqIntervalDuration() time.Duration {
	if c.ReqInterval == nil {
		return 0
	}
	return time.Duration(*c.ReqInterval) * time.Second
}

func (c Config) Intervals() scheduler.Intervals {
	return scheduler.Intervals{
		Eager:  time.Duration(c.EagerInterval) * time.Second,
		Normal: time.Duration(c.Interval) * time.Second,
	}
}
