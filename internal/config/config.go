// Package config centralises configuration for the sync engine: a YAML file
// for the structured sections, with environment variables (optionally loaded
// from .env) taking precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrStrictTokenOnly is returned when strict token-only mode is enabled but
// no token material is configured. This is fatal before any network call.
var ErrStrictTokenOnly = errors.New("strict token-only mode is enabled, but no garmin.token_store_b64 is configured")

// Config captures the runtime configuration for a sync run.
type Config struct {
	Sync       SyncConfig       `yaml:"sync"`
	Activities ActivitiesConfig `yaml:"activities"`
	Garmin     GarminConfig     `yaml:"garmin"`
	Daemon     DaemonConfig     `yaml:"daemon"`

	// DBPath is where the sqlite state store lives. Not part of the YAML
	// file; resolved from DB_PATH / DATA_DIR.
	DBPath string `yaml:"-"`
}

// SyncConfig controls pagination and the backfill window.
type SyncConfig struct {
	PerPage        int    `yaml:"per_page"`
	RecentDays     int    `yaml:"recent_days"`
	StartDate      string `yaml:"start_date"` // YYYY-MM-DD, UTC midnight
	LookbackYears  int    `yaml:"lookback_years"`
	ResumeBackfill *bool  `yaml:"resume_backfill"`
	PruneDeleted   bool   `yaml:"prune_deleted"`
}

// ActivitiesConfig is the type-filter configuration whose fingerprint scopes
// the backfill cursor.
type ActivitiesConfig struct {
	IncludeAllTypes *bool             `yaml:"include_all_types"`
	ExcludeTypes    []string          `yaml:"exclude_types"`
	FeaturedTypes   []string          `yaml:"featured_types"`
	GroupOtherTypes *bool             `yaml:"group_other_types"`
	OtherBucket     string            `yaml:"other_bucket"`
	TypeAliases     map[string]string `yaml:"type_aliases"`
	GroupAliases    map[string]string `yaml:"group_aliases"`
}

// GarminConfig holds account identity material and the API wrapper endpoint.
type GarminConfig struct {
	Email           string `yaml:"email"`
	Password        string `yaml:"password"`
	TokenStoreB64   string `yaml:"token_store_b64"`
	StrictTokenOnly bool   `yaml:"strict_token_only"`
	APIURL          string `yaml:"api_url"`
}

// DaemonConfig configures daemon mode.
type DaemonConfig struct {
	Schedule   string `yaml:"schedule"`
	ListenAddr string `yaml:"listen_addr"`
}

// Load reads the YAML config file (if present), then applies .env and
// environment overrides and defaults.
func Load(path string) (Config, error) {
	// No .env file is fine; the system environment still applies.
	_ = godotenv.Load()

	var cfg Config
	if path == "" {
		path = getEnv("GARMINSYNC_CONFIG", "config.yaml")
	}
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Garmin.Email = getEnv("GARMIN_EMAIL", c.Garmin.Email)
	c.Garmin.Password = getEnv("GARMIN_PASSWORD", c.Garmin.Password)
	c.Garmin.TokenStoreB64 = getEnv("GARMIN_TOKEN_STORE_B64", c.Garmin.TokenStoreB64)
	c.Garmin.APIURL = getEnv("GARMIN_API_URL", c.Garmin.APIURL)
	if value, ok := os.LookupEnv("GARMIN_STRICT_TOKEN_ONLY"); ok {
		c.Garmin.StrictTokenOnly = toBool(value)
	}

	c.Sync.PerPage = getIntEnv("SYNC_PER_PAGE", c.Sync.PerPage)
	c.Sync.RecentDays = getIntEnv("SYNC_RECENT_DAYS", c.Sync.RecentDays)
	c.Sync.StartDate = getEnv("SYNC_START_DATE", c.Sync.StartDate)

	c.Daemon.Schedule = getEnv("SYNC_SCHEDULE", c.Daemon.Schedule)
	c.Daemon.ListenAddr = getEnv("LISTEN_ADDR", c.Daemon.ListenAddr)

	c.DBPath = os.Getenv("DB_PATH")
	if c.DBPath == "" {
		dataDir := getEnv("DATA_DIR", "./data")
		c.DBPath = dataDir + "/garminsync.db"
	}
}

func (c *Config) applyDefaults() {
	if c.Sync.PerPage <= 0 {
		c.Sync.PerPage = 200
	}
	if c.Sync.RecentDays == 0 {
		c.Sync.RecentDays = 7
	}
	if c.Garmin.APIURL == "" {
		c.Garmin.APIURL = "http://garmin-api:8081"
	}
	if c.Daemon.Schedule == "" {
		c.Daemon.Schedule = "@hourly"
	}
	if c.Daemon.ListenAddr == "" {
		c.Daemon.ListenAddr = ":8888"
	}
}

// Validate checks for fatal configuration errors before any network call.
func (c *Config) Validate() error {
	if c.Garmin.StrictTokenOnly && strings.TrimSpace(c.Garmin.TokenStoreB64) == "" {
		return ErrStrictTokenOnly
	}
	if c.Sync.StartDate != "" {
		if _, err := time.Parse("2006-01-02", c.Sync.StartDate); err != nil {
			return fmt.Errorf("sync.start_date %q is not YYYY-MM-DD: %w", c.Sync.StartDate, err)
		}
	}
	return nil
}

// ResumeBackfill defaults to true when unset.
func (s SyncConfig) ResumeEnabled() bool {
	return s.ResumeBackfill == nil || *s.ResumeBackfill
}

// StartAfterTS resolves the backfill lower bound: an explicit start date wins,
// then a lookback in years relative to now, else zero (full history).
func (s SyncConfig) StartAfterTS(now time.Time) int64 {
	if s.StartDate != "" {
		if t, err := time.Parse("2006-01-02", s.StartDate); err == nil {
			return t.UTC().Unix()
		}
	}
	if s.LookbackYears <= 0 {
		return 0
	}
	return now.UTC().AddDate(-s.LookbackYears, 0, 0).Unix()
}

// Scope builds the canonical type-filter fingerprint object persisted with
// the backfill cursor. Slices are sorted and deduplicated so equality is a
// stable byte comparison of the marshaled form.
func (a ActivitiesConfig) Scope() map[string]any {
	includeAll := a.IncludeAllTypes == nil || *a.IncludeAllTypes
	scope := map[string]any{
		"include_all_types": includeAll,
		"exclude_types":     sortedUnique(a.ExcludeTypes),
	}
	if includeAll {
		return scope
	}

	groupOther := a.GroupOtherTypes == nil || *a.GroupOtherTypes
	otherBucket := a.OtherBucket
	if otherBucket == "" {
		otherBucket = "OtherSports"
	}
	scope["featured_types"] = sortedUnique(a.FeaturedTypes)
	scope["group_other_types"] = groupOther
	scope["other_bucket"] = otherBucket
	scope["type_aliases"] = copyStringMap(a.TypeAliases)
	scope["group_aliases"] = copyStringMap(a.GroupAliases)
	return scope
}

func sortedUnique(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func copyStringMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func toBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
