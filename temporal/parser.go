package temporal

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sidekick-labs/sidekick/core"
)

// Parser detects temporal intent in free-text queries and converts it into a
// concrete date range. Parsing is deterministic and side-effect-free; the
// current date is injectable for tests.
type Parser struct {
	now func() time.Time
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithNow sets the clock used to resolve relative phrases.
// Default is time.Now.
func WithNow(now func() time.Time) ParserOption {
	return func(p *Parser) {
		if now != nil {
			p.now = now
		}
	}
}

// NewParser creates a query parser.
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// relativePattern pairs a compiled pattern with its range resolver.
type relativePattern struct {
	re      *regexp.Regexp
	resolve func(today time.Time, match []string) (core.DateRange, string)
}

var relativePatterns = []relativePattern{
	{
		re: regexp.MustCompile(`(?i)\byesterday\b`),
		resolve: func(today time.Time, _ []string) (core.DateRange, string) {
			d := today.AddDate(0, 0, -1)
			return core.DateRange{Start: d, End: d}, "yesterday"
		},
	},
	{
		re: regexp.MustCompile(`(?i)\btoday\b`),
		resolve: func(today time.Time, _ []string) (core.DateRange, string) {
			return core.DateRange{Start: today, End: today}, "today"
		},
	},
	{
		re: regexp.MustCompile(`(?i)\blast\s+week\b`),
		resolve: func(today time.Time, _ []string) (core.DateRange, string) {
			return core.DateRange{Start: today.AddDate(0, 0, -7), End: today}, "last 7 days"
		},
	},
	{
		re: regexp.MustCompile(`(?i)\bthis\s+week\b`),
		resolve: func(today time.Time, _ []string) (core.DateRange, string) {
			// Week starts on Monday.
			offset := (int(today.Weekday()) + 6) % 7
			return core.DateRange{Start: today.AddDate(0, 0, -offset), End: today}, "this week"
		},
	},
	{
		re: regexp.MustCompile(`(?i)\blast\s+month\b`),
		resolve: func(today time.Time, _ []string) (core.DateRange, string) {
			year, month := today.Year(), today.Month()
			if month == time.January {
				year, month = year-1, time.December
			} else {
				month--
			}
			start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
			end := time.Date(year, month, lastDayOfMonth(year, month), 0, 0, 0, 0, time.UTC)
			return core.DateRange{Start: start, End: end},
				fmt.Sprintf("last month (%s)", month.String())
		},
	},
	{
		re: regexp.MustCompile(`(?i)\bthis\s+month\b`),
		resolve: func(today time.Time, _ []string) (core.DateRange, string) {
			start := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
			return core.DateRange{Start: start, End: today},
				fmt.Sprintf("this month (%s)", today.Month().String())
		},
	},
	{
		re: regexp.MustCompile(`(?i)\blast\s+(\d+)\s+days?\b`),
		resolve: func(today time.Time, match []string) (core.DateRange, string) {
			n, _ := strconv.Atoi(match[1])
			return core.DateRange{Start: today.AddDate(0, 0, -n), End: today},
				fmt.Sprintf("last %d days", n)
		},
	},
	{
		re: regexp.MustCompile(`(?i)(\d+)\s+days?\s+ago\b`),
		resolve: func(today time.Time, match []string) (core.DateRange, string) {
			n, _ := strconv.Atoi(match[1])
			d := today.AddDate(0, 0, -n)
			return core.DateRange{Start: d, End: d}, fmt.Sprintf("%d days ago", n)
		},
	},
}

// Pattern for specific dates: "on January 15", "January 15, 2024", "February 8 in 2021".
var specificDatePattern = regexp.MustCompile(
	`(?i)(?:\bon\s+)?\b(` + monthAlternation + `)\s+(\d{1,2})(?:st|nd|rd|th)?` +
		`(?:\s*,?\s*(\d{4})|\s+(?:in|of)\s+(\d{4}))?\b`)

// Pattern for ISO dates: "2024-01-15", "on 2024-01-15".
var isoDatePattern = regexp.MustCompile(`(?:\bon\s+)?\b(\d{4})-(\d{2})-(\d{2})\b`)

// Pattern for month with optional year: "in January", "January 2024", "in February of 2021".
var monthPattern = regexp.MustCompile(
	`(?i)(?:\bin\s+)?\b(` + monthAlternation + `)(?:\s+(?:of\s+)?(\d{4}))?\b`)

// Parse analyzes a query for temporal intent. Pattern families are tried in a
// fixed priority order: relative phrases, then specific dates, then ISO dates,
// then month-only. The first match wins. When a pattern matches, the matched
// substring is removed from the query to produce the clean query for semantic
// search. Malformed calendar dates are treated as no match, not as errors.
func (p *Parser) Parse(query string) core.ParsedQuery {
	noIntent := core.ParsedQuery{CleanQuery: query}
	if strings.TrimSpace(query) == "" {
		return noIntent
	}
	today := core.Day(p.now())

	for _, rp := range relativePatterns {
		loc := rp.re.FindStringSubmatchIndex(query)
		if loc == nil {
			continue
		}
		match := matchGroups(query, loc)
		dr, description := rp.resolve(today, match)
		return core.ParsedQuery{
			CleanQuery:        removeMatch(query, loc[0], loc[1]),
			DateRange:         &dr,
			HasTemporalIntent: true,
			Description:       description,
		}
	}

	if result, ok := p.trySpecificDate(query, today); ok {
		return result
	}
	if result, ok := p.tryISODate(query); ok {
		return result
	}
	if result, ok := p.tryMonth(query, today); ok {
		return result
	}
	return noIntent
}

func (p *Parser) trySpecificDate(query string, today time.Time) (core.ParsedQuery, bool) {
	loc := specificDatePattern.FindStringSubmatchIndex(query)
	if loc == nil {
		return core.ParsedQuery{}, false
	}
	match := matchGroups(query, loc)

	month, ok := monthNames[strings.ToLower(match[1])]
	if !ok {
		return core.ParsedQuery{}, false
	}
	day, err := strconv.Atoi(match[2])
	if err != nil {
		return core.ParsedQuery{}, false
	}
	// Year can come after a comma ("January 15, 2024") or after a
	// preposition ("February 8 in 2021").
	yearStr := match[3]
	if yearStr == "" {
		yearStr = match[4]
	}

	var year int
	if yearStr != "" {
		year, _ = strconv.Atoi(yearStr)
	} else {
		// Most recent past-or-present occurrence.
		year = today.Year()
		candidate, valid := makeDate(year, month, day)
		if !valid {
			return core.ParsedQuery{}, false
		}
		if candidate.After(today) {
			year--
		}
	}

	date, valid := makeDate(year, month, day)
	if !valid {
		return core.ParsedQuery{}, false
	}

	dr := core.DateRange{Start: date, End: date}
	return core.ParsedQuery{
		CleanQuery:        removeMatch(query, loc[0], loc[1]),
		DateRange:         &dr,
		HasTemporalIntent: true,
		Description:       fmt.Sprintf("%s %d, %d", month.String(), day, year),
	}, true
}

func (p *Parser) tryISODate(query string) (core.ParsedQuery, bool) {
	loc := isoDatePattern.FindStringSubmatchIndex(query)
	if loc == nil {
		return core.ParsedQuery{}, false
	}
	match := matchGroups(query, loc)

	year, _ := strconv.Atoi(match[1])
	month, _ := strconv.Atoi(match[2])
	day, _ := strconv.Atoi(match[3])
	date, valid := makeDate(year, time.Month(month), day)
	if !valid {
		return core.ParsedQuery{}, false
	}

	dr := core.DateRange{Start: date, End: date}
	return core.ParsedQuery{
		CleanQuery:        removeMatch(query, loc[0], loc[1]),
		DateRange:         &dr,
		HasTemporalIntent: true,
		Description:       date.Format("January 2, 2006"),
	}, true
}

func (p *Parser) tryMonth(query string, today time.Time) (core.ParsedQuery, bool) {
	loc := monthPattern.FindStringSubmatchIndex(query)
	if loc == nil {
		return core.ParsedQuery{}, false
	}
	match := matchGroups(query, loc)

	month, ok := monthNames[strings.ToLower(match[1])]
	if !ok {
		return core.ParsedQuery{}, false
	}

	var year int
	if match[2] != "" {
		year, _ = strconv.Atoi(match[2])
	} else {
		// Most recent occurrence at month granularity: the current month
		// counts as already occurred.
		year = today.Year()
		if month > today.Month() {
			year--
		}
	}

	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year, month, lastDayOfMonth(year, month), 0, 0, 0, 0, time.UTC)
	dr := core.DateRange{Start: start, End: end}
	return core.ParsedQuery{
		CleanQuery:        removeMatch(query, loc[0], loc[1]),
		DateRange:         &dr,
		HasTemporalIntent: true,
		Description:       fmt.Sprintf("%s %d", month.String(), year),
	}, true
}

// matchGroups extracts submatch strings from FindStringSubmatchIndex output.
// Absent optional groups yield empty strings.
func matchGroups(s string, loc []int) []string {
	groups := make([]string, len(loc)/2)
	for i := range groups {
		start, end := loc[2*i], loc[2*i+1]
		if start >= 0 {
			groups[i] = s[start:end]
		}
	}
	return groups
}

// removeMatch deletes the matched span and collapses whitespace. If nothing
// meaningful remains, the original query is kept so semantic search still has
// something to work with.
func removeMatch(query string, start, end int) string {
	clean := query[:start] + query[end:]
	clean = strings.Join(strings.Fields(clean), " ")
	if clean == "" {
		return query
	}
	return clean
}
