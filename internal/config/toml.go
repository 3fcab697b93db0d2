// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/verte-zerg/sessioncut/internal/model"
	"github.com/verte-zerg/sessioncut/internal/segment"
	"github.com/verte-zerg/sessioncut/internal/session"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Segment   SegmentConfig     `toml:"segment"`
	Positions PositionsConfig   `toml:"positions"`
	Shift     ShiftConfig       `toml:"shift"`
	Fuzzy     FuzzyConfig       `toml:"fuzzy"`
	Tables    TablesConfig      `toml:"tables"`
	Inventory []InventoryConfig `toml:"inventory"`
}

// SegmentConfig maps driver and window settings.
type SegmentConfig struct {
	GateSize           *int     `toml:"gate-size"`
	ShutThreshold      *int     `toml:"shut-threshold"`
	WindowSize         *int     `toml:"window-size"`
	ScoreThreshold     *float64 `toml:"score-threshold"`
	MinLabels          *int     `toml:"min-labels"`
	VocabularyWorkdays *int     `toml:"vocabulary-workdays"`
	MaxPendingLines    *int     `toml:"max-pending-lines"`
	SaturdayRestFrom   *int     `toml:"saturday-rest-from"`
	DB                 *string  `toml:"db"`
}

// PositionsConfig maps positional tolerances. Ranges are [min, max] pairs.
type PositionsConfig struct {
	DateMaxOffset            *int  `toml:"date-max-offset"`
	DateMaxLine              *int  `toml:"date-max-line"`
	PresidentAfterDate       []int `toml:"president-after-date"`
	AttendantsAfterDate      []int `toml:"attendants-after-date"`
	AttendantsAfterPresident []int `toml:"attendants-after-president"`
	HolidayAfterDate         []int `toml:"holiday-after-date"`
	ReviewedAfterAttendants  []int `toml:"reviewed-after-attendants"`
}

// ShiftConfig maps the date shift plausibility rules.
type ShiftConfig struct {
	PenultimateMaxWorkdays *int `toml:"penultimate-max-workdays"`
	PreviousMaxWorkdays    *int `toml:"previous-max-workdays"`
	LinesPerWorkday        *int `toml:"lines-per-workday"`
	SetBackDays            *int `toml:"set-back-days"`
}

// FuzzyConfig maps the phrase matcher thresholds.
type FuzzyConfig struct {
	CharMatchThreshold   *float64 `toml:"char-match-threshold"`
	NgramThreshold       *float64 `toml:"ngram-threshold"`
	LevenshteinThreshold *float64 `toml:"levenshtein-threshold"`
	MaxLengthVariance    *int     `toml:"max-length-variance"`
	SkipSize             *int     `toml:"skip-size"`
	IgnoreCase           *bool    `toml:"ignore-case"`
}

// TablesConfig points at YAML data tables.
type TablesConfig struct {
	Names      *string `toml:"names"`
	Exceptions *string `toml:"exceptions"`
	Phrases    *string `toml:"phrases"`
}

// InventoryConfig describes one archival volume.
type InventoryConfig struct {
	Num    int    `toml:"num"`
	Start  string `toml:"start"`
	End    string `toml:"end"`
	Mapper string `toml:"mapper"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// Inventory returns the configured inventory with the given number.
func (c FileConfig) Inventory(num int) (model.Inventory, bool) {
	for _, inv := range c.Inventory {
		if inv.Num == num {
			return model.Inventory{Num: inv.Num, Start: inv.Start, End: inv.End, Mapper: inv.Mapper}, true
		}
	}
	return model.Inventory{}, false
}

// ApplyTo copies every set value onto cfg.
func (c FileConfig) ApplyTo(cfg *segment.Config) error {
	setInt(&cfg.GateSize, c.Segment.GateSize)
	setInt(&cfg.ShutThreshold, c.Segment.ShutThreshold)
	setInt(&cfg.MaxPendingLines, c.Segment.MaxPendingLines)

	sc := &cfg.Session
	setInt(&sc.WindowSize, c.Segment.WindowSize)
	setFloat(&sc.ScoreThreshold, c.Segment.ScoreThreshold)
	setInt(&sc.MinLabels, c.Segment.MinLabels)
	setInt(&sc.VocabularyWorkdays, c.Segment.VocabularyWorkdays)

	setInt(&sc.Positions.DateMaxOffset, c.Positions.DateMaxOffset)
	setInt(&sc.Positions.DateMaxLine, c.Positions.DateMaxLine)
	ranges := []struct {
		name  string
		value []int
		dst   *session.Range
	}{
		{"president-after-date", c.Positions.PresidentAfterDate, &sc.Positions.PresidentAfterDate},
		{"attendants-after-date", c.Positions.AttendantsAfterDate, &sc.Positions.AttendantsAfterDate},
		{"attendants-after-president", c.Positions.AttendantsAfterPresident, &sc.Positions.AttendantsAfterPresident},
		{"holiday-after-date", c.Positions.HolidayAfterDate, &sc.Positions.HolidayAfterDate},
		{"reviewed-after-attendants", c.Positions.ReviewedAfterAttendants, &sc.Positions.ReviewedAfterAttendants},
	}
	for _, r := range ranges {
		if r.value == nil {
			continue
		}
		if len(r.value) != 2 || r.value[0] > r.value[1] {
			return fmt.Errorf("positions.%s must be [min, max]", r.name)
		}
		*r.dst = session.Range{Min: r.value[0], Max: r.value[1]}
	}

	setInt(&sc.Shift.PenultimateMaxWorkdays, c.Shift.PenultimateMaxWorkdays)
	setInt(&sc.Shift.PreviousMaxWorkdays, c.Shift.PreviousMaxWorkdays)
	setInt(&sc.Shift.LinesPerWorkday, c.Shift.LinesPerWorkday)
	setInt(&sc.Shift.SetBackDays, c.Shift.SetBackDays)

	setFloat(&sc.Fuzzy.CharMatchThreshold, c.Fuzzy.CharMatchThreshold)
	setFloat(&sc.Fuzzy.NgramThreshold, c.Fuzzy.NgramThreshold)
	setFloat(&sc.Fuzzy.LevenshteinThreshold, c.Fuzzy.LevenshteinThreshold)
	setInt(&sc.Fuzzy.MaxLengthVariance, c.Fuzzy.MaxLengthVariance)
	setInt(&sc.Fuzzy.SkipSize, c.Fuzzy.SkipSize)
	if c.Fuzzy.IgnoreCase != nil {
		sc.Fuzzy.IgnoreCase = *c.Fuzzy.IgnoreCase
	}
	return nil
}

func setInt(target *int, value *int) {
	if value != nil {
		*target = *value
	}
}

func setFloat(target *float64, value *float64) {
	if value != nil {
		*target = *value
	}
}
