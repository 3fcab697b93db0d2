// Package synth builds synthetic transcription streams with known session
// boundaries for exercising the segmenter.
package synth

import (
	"errors"
	"fmt"
	"math/rand"
	"time"
	"unicode"

	"github.com/verte-zerg/sessioncut/internal/calendar"
	"github.com/verte-zerg/sessioncut/internal/model"
)

// DefaultLinesPerPage is the page size used for page ids.
const DefaultLinesPerPage = 40

var bodySentences = []string{
	"Ontfangen een missive van den",
	"Resident Hop geschreven uyt",
	"Brussel den derden deser,",
	"waer by advertentie gegeven wert",
	"is goedgevonden ende verstaen",
	"dat copie van de voorschreve",
	"missive sal werden gestelt in",
	"handen van de Heeren haer Ho. Mo.",
}

var defaultPresidents = []string{"Van Welderen", "Van Heeckeren", "Van Lynden", "Torck"}

// Common OCR confusions in printed resolutions.
var confusions = map[rune][]rune{
	'e': {'c', 'o'},
	'n': {'u', 'm'},
	's': {'f'},
	'i': {'l', '1'},
	'u': {'n', 'v'},
	'c': {'e'},
	'h': {'b'},
	'a': {'o'},
}

// Options controls a generated stream.
type Options struct {
	Start      string
	End        string
	MinBody    int
	MaxBody    int
	Presidents []string
	// NoiseRate is the per-letter substitution probability applied to opening lines.
	NoiseRate float64
	// BlankRate is the probability of a blank line after a body line.
	BlankRate float64
	// SkipRate is the probability of leaving out a workday.
	SkipRate     float64
	Prefix       string
	LinesPerPage int
}

// Truth records where a generated session starts.
type Truth struct {
	Date        string `json:"date"`
	FirstLineID string `json:"first_line_id"`
	Lines       int    `json:"lines"`
}

// Generator produces synthetic line streams.
type Generator struct {
	rnd *rand.Rand
	cal *calendar.Calendar
}

// New returns a Generator with a fixed seed.
func New(cal *calendar.Calendar, seed int64) *Generator {
	if cal == nil {
		cal = calendar.New(nil)
	}
	return &Generator{rnd: rand.New(rand.NewSource(seed)), cal: cal}
}

// NewRandom returns a Generator seeded with the current time.
func NewRandom(cal *calendar.Calendar) *Generator {
	return New(cal, time.Now().UnixNano())
}

// Generate emits one session per workday from Start to End inclusive.
func (g *Generator) Generate(opts Options) ([]model.Line, []Truth, error) {
	start, err := g.cal.ParseISO(opts.Start)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse start: %w", err)
	}
	end, err := g.cal.ParseISO(opts.End)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse end: %w", err)
	}
	if end.Before(start) {
		return nil, nil, errors.New("end is before start")
	}
	if opts.MinBody <= 0 {
		opts.MinBody = 20
	}
	if opts.MaxBody < opts.MinBody {
		opts.MaxBody = opts.MinBody
	}
	if len(opts.Presidents) == 0 {
		opts.Presidents = defaultPresidents
	}
	if opts.Prefix == "" {
		opts.Prefix = "synth"
	}
	if opts.LinesPerPage <= 0 {
		opts.LinesPerPage = DefaultLinesPerPage
	}

	b := &builder{opts: opts}
	var truth []Truth
	for d := start; !d.After(end); d = d.AddDays(1) {
		if !d.IsWorkday() {
			continue
		}
		// The first day always sits so the stream opens on the start date.
		if len(truth) > 0 && opts.SkipRate > 0 && g.rnd.Float64() < opts.SkipRate {
			continue
		}
		first := len(b.lines)
		g.opening(b, d)
		body := opts.MinBody + g.rnd.Intn(opts.MaxBody-opts.MinBody+1)
		for i := 0; i < body; i++ {
			b.add(bodySentences[(first+i)%len(bodySentences)])
			if opts.BlankRate > 0 && g.rnd.Float64() < opts.BlankRate {
				b.add("")
			}
		}
		truth = append(truth, Truth{
			Date:        d.ISO(),
			FirstLineID: b.lines[first].ID,
			Lines:       len(b.lines) - first,
		})
	}
	return b.lines, truth, nil
}

func (g *Generator) opening(b *builder, d calendar.Date) {
	president := b.opts.Presidents[g.rnd.Intn(len(b.opts.Presidents))]
	noisy := func(text string) string {
		return applyNoise(g.rnd, text, b.opts.NoiseRate)
	}
	b.add(noisy(first(d.DateStrings()) + "."))
	b.add(noisy(first(d.YearStrings()) + "."))
	b.add(bodySentences[0])
	b.add(noisy("PRAESIDE, Den Heere") + " " + president + ".")
	b.add(bodySentences[1], bodySentences[2])
	b.add(noisy("PRAESENTIBUS") + ",")
}

type builder struct {
	opts  Options
	lines []model.Line
}

func (b *builder) add(texts ...string) {
	for _, text := range texts {
		n := len(b.lines)
		b.lines = append(b.lines, model.Line{
			ID:     fmt.Sprintf("%s-line-%06d", b.opts.Prefix, n),
			Text:   text,
			PageID: fmt.Sprintf("%s-page-%04d", b.opts.Prefix, n/b.opts.LinesPerPage),
		})
	}
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func applyNoise(rnd *rand.Rand, text string, rate float64) string {
	if rate <= 0 {
		return text
	}
	runes := []rune(text)
	for i, r := range runes {
		options, ok := confusions[unicode.ToLower(r)]
		if !ok || rnd.Float64() > rate {
			continue
		}
		runes[i] = options[rnd.Intn(len(options))]
	}
	return string(runes)
}
