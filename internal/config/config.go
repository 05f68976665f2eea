package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const envProduction = "production"

// Config holds runtime settings read from the environment.
type Config struct {
	AppEnv         string
	LogLevel       string
	LogFormat      string
	HTTPListenAddr string
	PublicBasePath string

	DatabaseURL              string
	ConsultationsDatabaseURL string
	DatabaseSchema           string
	DatabaseMaxConns         int32

	// ReportOffset is the fixed UTC offset used for every calendar-day and hour bucket.
	ReportOffset time.Duration

	MetricsNamespace string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisTLS      bool
	CacheTTL      time.Duration

	OverviewRefreshInterval time.Duration

	AuditStorePath    string
	StrictTransitions bool
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:                   getEnv("APP_ENV", "development"),
		LogLevel:                 getEnv("LOG_LEVEL", "info"),
		LogFormat:                getEnv("LOG_FORMAT", "text"),
		HTTPListenAddr:           getEnv("HTTP_LISTEN_ADDR", ":8080"),
		PublicBasePath:           getEnv("PUBLIC_BASE_PATH", ""),
		DatabaseURL:              getEnv("DATABASE_URL", ""),
		ConsultationsDatabaseURL: getEnv("CONSULTATIONS_DATABASE_URL", ""),
		DatabaseSchema:           getEnv("DATABASE_SCHEMA", ""),
		MetricsNamespace:         getEnv("METRICS_NAMESPACE", "petcare_dashboard"),
		RedisAddr:                getEnv("REDIS_ADDR", ""),
		RedisPassword:            getEnv("REDIS_PASSWORD", ""),
		AuditStorePath:           getEnv("AUDIT_STORE_PATH", ""),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.ConsultationsDatabaseURL == "" {
		cfg.ConsultationsDatabaseURL = cfg.DatabaseURL
	}

	var err error
	maxConns, err := getInt("DATABASE_MAX_CONNS", 10)
	if err != nil {
		return nil, err
	}
	if maxConns <= 0 {
		return nil, fmt.Errorf("DATABASE_MAX_CONNS must be positive, got %d", maxConns)
	}
	cfg.DatabaseMaxConns = int32(maxConns)

	if cfg.ReportOffset, err = ParseOffset(getEnv("REPORT_TZ_OFFSET", "+05:30")); err != nil {
		return nil, fmt.Errorf("REPORT_TZ_OFFSET: %w", err)
	}
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.RedisTLS, err = getBool("REDIS_TLS", false); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = getDuration("CACHE_TTL", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.OverviewRefreshInterval, err = getDuration("OVERVIEW_REFRESH_INTERVAL", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.StrictTransitions, err = getBool("CONSULTATION_STRICT_TRANSITIONS", true); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsProduction reports whether diagnostic details must be hidden from responses.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, envProduction)
}

// ReportLocation returns the fixed zone matching ReportOffset.
func (c *Config) ReportLocation() *time.Location {
	return FixedZone(c.ReportOffset)
}

// ParseOffset parses a "+HH:MM" / "-HH:MM" / "HH:MM" UTC offset.
func ParseOffset(raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, errors.New("empty offset")
	}
	sign := time.Duration(1)
	switch s[0] {
	case '+':
		s = s[1:]
	case '-':
		sign = -1
		s = s[1:]
	}
	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		mm = "0"
	}
	hours, err := strconv.Atoi(hh)
	if err != nil || hours < 0 || hours > 14 {
		return 0, fmt.Errorf("invalid offset hours %q", raw)
	}
	minutes, err := strconv.Atoi(mm)
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("invalid offset minutes %q", raw)
	}
	return sign * (time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute), nil
}

// FixedZone builds a named location for an offset, e.g. "UTC+05:30".
func FixedZone(offset time.Duration) *time.Location {
	sign := '+'
	d := offset
	if d < 0 {
		sign = '-'
		d = -d
	}
	name := fmt.Sprintf("UTC%c%02d:%02d", sign, int(d.Hours()), int(d.Minutes())%60)
	return time.FixedZone(name, int(offset.Seconds()))
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, v)
	}
	return i, nil
}

func getBool(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: invalid boolean %q", key, v)
	}
	return b, nil
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", key, v)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: duration must be positive", key)
	}
	return d, nil
}
