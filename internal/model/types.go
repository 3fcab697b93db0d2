// Package model defines shared data structures.
package model

import (
	"strings"
	"time"
)

// Line is one transcribed text line of the input stream, already in reading order.
type Line struct {
	ID          string  `json:"id"`
	Text        string  `json:"text"`
	PageID      string  `json:"page_id,omitempty"`
	ScanID      string  `json:"scan_id,omitempty"`
	Coordinates []Point `json:"coordinates,omitempty"`
}

// Point is a single coordinate of a line hull.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// IsBlank reports whether the line carries no searchable text.
func (l Line) IsBlank() bool {
	return strings.TrimSpace(l.Text) == ""
}

// DateShiftStatus records whether a session date was corrected or flagged.
type DateShiftStatus string

// Date shift statuses.
const (
	StatusNormal      DateShiftStatus = "normal"
	StatusQuarantined DateShiftStatus = "quarantined"
	StatusSetBack     DateShiftStatus = "set_back"
)

// Evidence is one phrase match that supported the opening of a session.
type Evidence struct {
	Label   string  `json:"label"`
	Phrase  string  `json:"phrase"`
	Matched string  `json:"matched"`
	LineID  string  `json:"line_id"`
	Offset  int     `json:"offset"`
	End     int     `json:"end"`
	Score   float64 `json:"score"`
}

// SessionMetadata describes one emitted session document.
type SessionMetadata struct {
	ID             string          `json:"id"`
	Inventory      int             `json:"inventory"`
	Num            int             `json:"num"`
	Date           string          `json:"date"`
	DateSessionNum int             `json:"date_session_num"`
	WeekdayName    string          `json:"weekday_name"`
	IsWorkday      bool            `json:"is_workday"`
	Status         DateShiftStatus `json:"date_shift_status"`
	Evidence       []Evidence      `json:"evidence"`
	President      string          `json:"president,omitempty"`
	LineCount      int             `json:"line_count"`
	ForcedCut      bool            `json:"forced_cut,omitempty"`
	FirstLineID    string          `json:"first_line_id,omitempty"`
	LastLineID     string          `json:"last_line_id,omitempty"`
}

// Session is a finished session document with its lines.
type Session struct {
	Metadata SessionMetadata
	Lines    []Line
}

// Inventory describes one archival volume and its period bounds.
type Inventory struct {
	Num    int
	Start  string
	End    string
	Mapper string
}

// SessionFilter selects stored sessions.
type SessionFilter struct {
	Inventory int
	Status    DateShiftStatus
	Since     string
	Limit     int
}

// RunSummary captures a completed segmentation run.
type RunSummary struct {
	RunID       string
	Inventory   int
	InputPath   string
	StartedAt   time.Time
	EndedAt     time.Time
	Sessions    int
	Quarantined int
	SetBack     int
}
