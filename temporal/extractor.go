package temporal

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sidekick-labs/sidekick/core"
)

// Extractor derives a document's date from its filename. This is the
// document-side counterpart of the query parser; the two never share state.
type Extractor struct {
	now    func() time.Time
	logger *slog.Logger
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithExtractorNow sets the clock used for sanity checks and missing-year
// resolution. Default is time.Now.
func WithExtractorNow(now func() time.Time) ExtractorOption {
	return func(e *Extractor) {
		if now != nil {
			e.now = now
		}
	}
}

// WithExtractorLogger sets a custom logger.
// Default is slog.Default().
func WithExtractorLogger(logger *slog.Logger) ExtractorOption {
	return func(e *Extractor) {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
	}
}

// NewExtractor creates a filename date extractor.
func NewExtractor(opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// numericPattern is a filename date pattern with numeric year/month/day groups
// and a fixed confidence weight.
type numericPattern struct {
	re         *regexp.Regexp
	name       string
	confidence float32
}

var numericPatterns = []numericPattern{
	{regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})[-_\s]`), "iso_start", 1.0},
	{regexp.MustCompile(`^(\d{4})_(\d{2})_(\d{2})[-_\s]`), "iso_underscore_start", 1.0},
	{regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`), "iso_anywhere", 0.95},
	{regexp.MustCompile(`(\d{4})_(\d{2})_(\d{2})`), "iso_underscore_anywhere", 0.95},
	{regexp.MustCompile(`(?:^|[_\-\s])(\d{4})(\d{2})(\d{2})(?:[_\-\s.]|$)`), "compact", 0.9},
}

// ordinalPattern matches "January 2nd, 2025" style filenames.
var ordinalPattern = regexp.MustCompile(
	`(?i)^(` + monthAlternation + `)\s+(\d{1,2})(?:st|nd|rd|th)?,?\s*(\d{4})`)

// verbosePattern matches "January 15 notes" with an optional year.
var verbosePattern = regexp.MustCompile(
	`(?i)(?:^|[\s_\-])(` + monthAlternation + `)\s*(\d{1,2})(?:\s*,?\s*(\d{4}))?(?:[\s_\-.]|$)`)

// Extract derives a date from a filename. Patterns are tried in order of
// confidence; the first valid candidate that passes the sanity check wins.
// Returns nil if no pattern yields a plausible date.
func (e *Extractor) Extract(filename string) *core.ExtractedDate {
	if filename == "" {
		return nil
	}

	// Strip the extension for cleaner matching.
	name := filename
	if idx := strings.LastIndex(name, "."); idx > 0 {
		name = name[:idx]
	}

	for _, np := range numericPatterns {
		match := np.re.FindStringSubmatch(name)
		if match == nil {
			continue
		}
		year, _ := strconv.Atoi(match[1])
		month, _ := strconv.Atoi(match[2])
		day, _ := strconv.Atoi(match[3])
		date, valid := makeDate(year, time.Month(month), day)
		if !valid || !e.plausible(date) {
			// Keep trying looser patterns; the digits may belong to
			// something that is not a date.
			continue
		}
		e.logger.Debug("extracted date from filename",
			"filename", filename, "date", date.Format("2006-01-02"), "pattern", np.name)
		return &core.ExtractedDate{
			Date:       date,
			Source:     core.DateSourceFilename,
			Confidence: np.confidence,
		}
	}

	if match := ordinalPattern.FindStringSubmatch(name); match != nil {
		month, ok := monthNames[strings.ToLower(match[1])]
		if ok {
			day, _ := strconv.Atoi(match[2])
			year, _ := strconv.Atoi(match[3])
			if date, valid := makeDate(year, month, day); valid && e.plausible(date) {
				e.logger.Debug("extracted date from filename",
					"filename", filename, "date", date.Format("2006-01-02"), "pattern", "ordinal")
				return &core.ExtractedDate{
					Date:       date,
					Source:     core.DateSourceFilename,
					Confidence: 0.95,
				}
			}
		}
	}

	if match := verbosePattern.FindStringSubmatch(name); match != nil {
		month, ok := monthNames[strings.ToLower(match[1])]
		if ok {
			day, _ := strconv.Atoi(match[2])
			year := 0
			if match[3] != "" {
				year, _ = strconv.Atoi(match[3])
			} else {
				today := core.Day(e.now())
				year = today.Year()
				if month > today.Month() || (month == today.Month() && day > today.Day()) {
					year--
				}
			}
			if date, valid := makeDate(year, month, day); valid && e.plausible(date) {
				e.logger.Debug("extracted date from filename",
					"filename", filename, "date", date.Format("2006-01-02"), "pattern", "verbose")
				return &core.ExtractedDate{
					Date:       date,
					Source:     core.DateSourceFilename,
					Confidence: 0.8,
				}
			}
		}
	}

	return nil
}

// ExtractWithFallback extracts a date from the filename, falling back to the
// caller-supplied creation time at reduced confidence when no filename
// pattern matches. Returns nil when neither source yields a date.
func (e *Extractor) ExtractWithFallback(filename string, createdAt time.Time) *core.ExtractedDate {
	if result := e.Extract(filename); result != nil {
		return result
	}
	if !createdAt.IsZero() {
		return &core.ExtractedDate{
			Date:       core.Day(createdAt),
			Source:     core.DateSourceCreatedAt,
			Confidence: 0.5,
		}
	}
	return nil
}

// plausible rejects dates before 1990 and dates more than two years in the
// future. Digits in filenames frequently encode things other than dates.
func (e *Extractor) plausible(date time.Time) bool {
	if date.Year() < 1990 {
		return false
	}
	limit := core.Day(e.now()).AddDate(2, 0, 0)
	return !date.After(limit)
}
