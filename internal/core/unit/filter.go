package unit

import (
	"strings"
	"time"
	"unicode"

	"github.com/example/feecc/internal/apperr"
)

const (
	shortURLMarker   = "url.today"
	uuidLength       = 32
	internalIDLength = 13
	dateLayout       = "2006-01-02"
)

// Filter is a typed passport query. Zero-valued fields do not constrain the result.
type Filter struct {
	InternalID    string
	UUID          string
	ShortURL      string
	ModelContains string
	Types         []string
	Status        Status
	CreatedFrom   time.Time
	CreatedBefore time.Time
}

// FilterBuilder assembles a Filter from loosely-typed query parameters.
// The first invalid parameter is reported by Build.
type FilterBuilder struct {
	filter Filter
	err    error
}

// NewFilter starts an empty filter.
func NewFilter() *FilterBuilder {
	return &FilterBuilder{}
}

// Name classifies a free-form search term: a short URL, a unit uuid,
// a 13-digit internal id, or otherwise a model substring.
func (b *FilterBuilder) Name(name string) *FilterBuilder {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
	case strings.Contains(name, shortURLMarker):
		b.filter.ShortURL = name
	case len(name) == uuidLength:
		b.filter.UUID = name
	case len(name) == internalIDLength && isDigits(name):
		b.filter.InternalID = name
	default:
		b.filter.ModelContains = name
	}
	return b
}

// Date restricts the filter to units created on the given calendar day (UTC).
func (b *FilterBuilder) Date(raw string) *FilterBuilder {
	raw = strings.TrimSpace(raw)
	if raw == "" || b.err != nil {
		return b
	}
	day, err := time.Parse(dateLayout, raw)
	if err != nil {
		if ts, tsErr := time.Parse(time.RFC3339, raw); tsErr == nil {
			day = time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
		} else {
			b.err = apperr.Validation("invalid date %q: expected YYYY-MM-DD", raw)
			return b
		}
	}
	b.filter.CreatedFrom = day
	b.filter.CreatedBefore = day.AddDate(0, 0, 1)
	return b
}

// Types restricts the filter to a comma-separated list of unit types.
func (b *FilterBuilder) Types(csv string) *FilterBuilder {
	for _, t := range strings.Split(csv, ",") {
		if t = strings.TrimSpace(t); t != "" {
			b.filter.Types = append(b.filter.Types, t)
		}
	}
	return b
}

// Status restricts the filter to a single unit status.
func (b *FilterBuilder) Status(raw string) *FilterBuilder {
	if raw == "" || b.err != nil {
		return b
	}
	s, ok := ParseStatus(raw)
	if !ok {
		b.err = apperr.Validation("unknown unit status %q", raw)
		return b
	}
	b.filter.Status = s
	return b
}

// Build returns the assembled filter or the first parameter error.
func (b *FilterBuilder) Build() (Filter, error) {
	if b.err != nil {
		return Filter{}, b.err
	}
	return b.filter, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}
