package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/verte-zerg/sessioncut/internal/segment"
	"github.com/verte-zerg/sessioncut/internal/session"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Segment.GateSize != nil || len(cfg.Inventory) != 0 {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestLoadConfigApply(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.toml", `
[segment]
gate-size = 12
score-threshold = 0.9
max-pending-lines = 500

[positions]
date-max-line = 6
attendants-after-date = [2, 20]

[shift]
set-back-days = 5

[fuzzy]
levenshtein-threshold = 0.85
ignore-case = false

[[inventory]]
num = 3760
start = "1727-12-08"
end = "1727-12-31"
mapper = "printed"
`)
	fc, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := segment.DefaultConfig()
	if err := fc.ApplyTo(&cfg); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if cfg.GateSize != 12 || cfg.MaxPendingLines != 500 {
		t.Fatalf("driver settings not applied: %+v", cfg)
	}
	if cfg.ShutThreshold != segment.DefaultConfig().ShutThreshold {
		t.Fatalf("unset value changed: %d", cfg.ShutThreshold)
	}
	if cfg.Session.ScoreThreshold != 0.9 || cfg.Session.Positions.DateMaxLine != 6 {
		t.Fatalf("session settings not applied: %+v", cfg.Session)
	}
	if cfg.Session.Positions.AttendantsAfterDate != (session.Range{Min: 2, Max: 20}) {
		t.Fatalf("range not applied: %+v", cfg.Session.Positions.AttendantsAfterDate)
	}
	if cfg.Session.Shift.SetBackDays != 5 {
		t.Fatalf("shift not applied: %+v", cfg.Session.Shift)
	}
	if cfg.Session.Fuzzy.LevenshteinThreshold != 0.85 || cfg.Session.Fuzzy.IgnoreCase {
		t.Fatalf("fuzzy not applied: %+v", cfg.Session.Fuzzy)
	}
	inv, ok := fc.Inventory(3760)
	if !ok || inv.Start != "1727-12-08" || inv.Mapper != "printed" {
		t.Fatalf("unexpected inventory: %+v %v", inv, ok)
	}
	if _, ok := fc.Inventory(1); ok {
		t.Fatalf("expected unknown inventory")
	}
}

func TestApplyRejectsBadRange(t *testing.T) {
	fc := FileConfig{Positions: PositionsConfig{HolidayAfterDate: []int{5, 1}}}
	cfg := segment.DefaultConfig()
	err := fc.ApplyTo(&cfg)
	if err == nil || !strings.Contains(err.Error(), "holiday-after-date") {
		t.Fatalf("expected range error, got %v", err)
	}
}

func TestLoadExceptions(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "exceptions.yaml", "\"1726-12-23\":\n  shift_days: 4\n")
	table, err := LoadExceptions(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if table["1726-12-23"].ShiftDays != 4 {
		t.Fatalf("unexpected table: %+v", table)
	}

	bad := writeFile(t, dir, "bad.yaml", "\"1726-13-40\":\n  shift_days: 4\n")
	if _, err := LoadExceptions(bad); err == nil {
		t.Fatalf("expected invalid date error")
	}
	back := writeFile(t, dir, "back.yaml", "\"1726-12-23\":\n  shift_days: 0\n")
	if _, err := LoadExceptions(back); err == nil {
		t.Fatalf("expected shift error")
	}
}

func TestLoadPhrases(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "phrases.yaml", `
phrases:
  - text: "PRAESIDE, Den Heere"
    variants: ["PRAESIDE Den Heere"]
    labels: [president]
  - text: "PRAESENTIBUS"
    labels: [attendants]
`)
	phrases, err := LoadPhrases(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(phrases) != 2 || !phrases[0].HasLabel("president") || len(phrases[0].Variants) != 1 {
		t.Fatalf("unexpected phrases: %+v", phrases)
	}

	unknown := writeFile(t, dir, "unknown.yaml", "phrases:\n  - text: Foo\n    labels: [chairman]\n")
	if _, err := LoadPhrases(unknown); err == nil || !strings.Contains(err.Error(), "chairman") {
		t.Fatalf("expected unknown label error, got %v", err)
	}
	dup := writeFile(t, dir, "dup.yaml", "phrases:\n  - text: Foo\n  - text: Foo\n")
	if _, err := LoadPhrases(dup); err == nil {
		t.Fatalf("expected duplicate error")
	}
}

func TestCalendarFromTables(t *testing.T) {
	fc := FileConfig{}
	if _, err := fc.Calendar("nonsense"); err == nil {
		t.Fatalf("expected unknown mapper error")
	}
	year := 1700
	fc.Segment.SaturdayRestFrom = &year
	cal, err := fc.Calendar("printed")
	if err != nil {
		t.Fatalf("calendar: %v", err)
	}
	d, err := cal.ParseISO("1727-12-13")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if d.IsWorkday() {
		t.Fatalf("expected Saturday rest day with an early rest year")
	}
}

func TestXDGPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/cfg")
	t.Setenv("XDG_DATA_HOME", "/tmp/data")
	if got := DefaultConfigPath(); got != "/tmp/cfg/sessioncut/config.toml" {
		t.Fatalf("config path: %s", got)
	}
	if got := DefaultDBPath(); got != "/tmp/data/sessioncut/sessioncut.db" {
		t.Fatalf("db path: %s", got)
	}
	if got := ResolveTablePath("names.yaml"); got != "/tmp/cfg/sessioncut/tables/names.yaml" {
		t.Fatalf("table path: %s", got)
	}
	if got := ResolveTablePath("/abs/names.yaml"); got != "/abs/names.yaml" {
		t.Fatalf("absolute table path: %s", got)
	}
}
