package config

import (
	"fmt"
	"os"

	"github.com/verte-zerg/sessioncut/internal/calendar"
	"github.com/verte-zerg/sessioncut/internal/fuzzy"
	"github.com/verte-zerg/sessioncut/internal/session"
	"gopkg.in/yaml.v3"
)

type phraseFile struct {
	Phrases []phraseEntry `yaml:"phrases"`
}

type phraseEntry struct {
	Text     string   `yaml:"text"`
	Variants []string `yaml:"variants"`
	Labels   []string `yaml:"labels"`
}

func decodeYAML(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

// LoadNames reads a date name mapper table.
func LoadNames(path string) (*calendar.DateNameMapper, error) {
	var m calendar.DateNameMapper
	if err := decodeYAML(path, &m); err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid name table %s: %w", path, err)
	}
	return &m, nil
}

// LoadExceptions reads an exception table keyed by ISO date.
func LoadExceptions(path string) (calendar.ExceptionTable, error) {
	var table calendar.ExceptionTable
	if err := decodeYAML(path, &table); err != nil {
		return nil, err
	}
	cal := calendar.New(nil)
	for iso, e := range table {
		if _, err := cal.ParseISO(iso); err != nil {
			return nil, fmt.Errorf("invalid exception date %q in %s: %w", iso, path, err)
		}
		if e.ShiftDays <= 0 {
			return nil, fmt.Errorf("exception %s in %s must shift forward", iso, path)
		}
	}
	return table, nil
}

// LoadPhrases reads the fixed session phrase vocabulary.
func LoadPhrases(path string) ([]fuzzy.Phrase, error) {
	var file phraseFile
	if err := decodeYAML(path, &file); err != nil {
		return nil, err
	}
	if len(file.Phrases) == 0 {
		return nil, fmt.Errorf("phrase table %s is empty", path)
	}
	phrases := make([]fuzzy.Phrase, 0, len(file.Phrases))
	for _, p := range file.Phrases {
		for _, label := range p.Labels {
			if _, ok := session.ParseLabel(label); !ok {
				return nil, fmt.Errorf("phrase %q in %s has unknown label %q", p.Text, path, label)
			}
		}
		phrases = append(phrases, fuzzy.Phrase{Text: p.Text, Variants: p.Variants, Labels: p.Labels})
	}
	if _, err := fuzzy.NewPhraseModel(phrases); err != nil {
		return nil, fmt.Errorf("invalid phrase table %s: %w", path, err)
	}
	return phrases, nil
}

// Calendar builds the calendar for an inventory from the configured tables.
// A names table overrides the inventory's built-in mapper.
func (c FileConfig) Calendar(mapper string) (*calendar.Calendar, error) {
	var names *calendar.DateNameMapper
	if c.Tables.Names != nil && *c.Tables.Names != "" {
		m, err := LoadNames(ResolveTablePath(*c.Tables.Names))
		if err != nil {
			return nil, err
		}
		names = m
	} else {
		m, ok := calendar.BuiltinNames(mapper)
		if !ok {
			return nil, fmt.Errorf("unknown date name mapper %q", mapper)
		}
		names = m
	}
	var opts []calendar.Option
	if c.Tables.Exceptions != nil && *c.Tables.Exceptions != "" {
		table, err := LoadExceptions(ResolveTablePath(*c.Tables.Exceptions))
		if err != nil {
			return nil, err
		}
		opts = append(opts, calendar.WithExceptions(table))
	}
	if c.Segment.SaturdayRestFrom != nil {
		opts = append(opts, calendar.WithSaturdayRestFrom(*c.Segment.SaturdayRestFrom))
	}
	return calendar.New(names, opts...), nil
}

// Phrases returns the configured phrase vocabulary, or nil for the defaults.
func (c FileConfig) Phrases() ([]fuzzy.Phrase, error) {
	if c.Tables.Phrases == nil || *c.Tables.Phrases == "" {
		return nil, nil
	}
	return LoadPhrases(ResolveTablePath(*c.Tables.Phrases))
}
