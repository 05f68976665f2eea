package config

import (
	"testing"
	"time"
)

func TestParseOffset(t *testing.T) {
	cases := map[string]time.Duration{
		"+05:30": 5*time.Hour + 30*time.Minute,
		"05:30":  5*time.Hour + 30*time.Minute,
		"-03:00": -3 * time.Hour,
		"+0":     0,
		"+9":     9 * time.Hour,
	}
	for in, want := range cases {
		got, err := ParseOffset(in)
		if err != nil {
			t.Fatalf("ParseOffset(%q) error: %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseOffset(%q) = %v, want %v", in, got, want)
		}
	}

	for _, bad := range []string{"", "abc", "+25:00", "+05:75"} {
		if _, err := ParseOffset(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestFixedZoneName(t *testing.T) {
	loc := FixedZone(5*time.Hour + 30*time.Minute)
	if loc.String() != "UTC+05:30" {
		t.Fatalf("unexpected zone name %q", loc.String())
	}
	_, offset := time.Date(2024, 1, 1, 0, 0, 0, 0, loc).Zone()
	if offset != 19800 {
		t.Fatalf("expected 19800 seconds, got %d", offset)
	}
	if FixedZone(-time.Hour).String() != "UTC-01:00" {
		t.Fatalf("unexpected negative zone name %q", FixedZone(-time.Hour).String())
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/dash")
	t.Setenv("CONSULTATIONS_DATABASE_URL", "")
	t.Setenv("APP_ENV", "")
	t.Setenv("REPORT_TZ_OFFSET", "")
	t.Setenv("CONSULTATION_STRICT_TRANSITIONS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ConsultationsDatabaseURL != cfg.DatabaseURL {
		t.Fatalf("expected consultations url to default to database url, got %q", cfg.ConsultationsDatabaseURL)
	}
	if cfg.ReportOffset != 5*time.Hour+30*time.Minute {
		t.Fatalf("unexpected default offset %v", cfg.ReportOffset)
	}
	if !cfg.StrictTransitions {
		t.Fatal("expected strict transitions by default")
	}
	if cfg.IsProduction() {
		t.Fatal("default env must not be production")
	}
	if cfg.DatabaseMaxConns != 10 {
		t.Fatalf("unexpected max conns %d", cfg.DatabaseMaxConns)
	}
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error without DATABASE_URL")
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/dash")
	t.Setenv("CACHE_TTL", "soon")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid CACHE_TTL")
	}
}

func TestIsProduction(t *testing.T) {
	cfg := &Config{AppEnv: "Production"}
	if !cfg.IsProduction() {
		t.Fatal("expected production")
	}
}
