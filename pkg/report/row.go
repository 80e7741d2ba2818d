package report

import (
	"fmt"
	"html/template"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/umputun/signalscope/pkg/domain"
)

const (
	defaultTitle     = "No Title"
	defaultPermalink = "#"
	defaultIntent    = "unknown"

	displayLayout = "2006-01-02 15:04"
	naiveLayout   = "2006-01-02T15:04:05.999999999"
)

// Badge defines colors of an intent badge
type Badge struct {
	Background string
	Foreground string
}

// Style returns inline css for the badge
func (b Badge) Style() template.CSS {
	return template.CSS(fmt.Sprintf("background-color: %s; color: %s", b.Background, b.Foreground)) //nolint:gosec // colors come from the constant map
}

// neutralBadge is used for intents missing from intentBadges
var neutralBadge = Badge{Background: "#d1d5db", Foreground: "#374151"}

var intentBadges = map[string]Badge{
	"discovery":      {Background: "#dbeafe", Foreground: "#1d4ed8"},
	"frustration":    {Background: "#fee2e2", Foreground: "#dc2626"},
	"recommendation": {Background: "#fef9c3", Foreground: "#ca8a04"},
	"comparison":     {Background: "#ede9fe", Foreground: "#7c3aed"},
	"decision":       {Background: "#d1fae5", Foreground: "#059669"},
	"validation":     {Background: "#cffafe", Foreground: "#0e7490"},
	"churn":          {Background: "#fecaca", Foreground: "#b91c1c"},
	defaultIntent:    neutralBadge,
}

// BadgeFor returns the badge for the intent label, case-insensitive
func BadgeFor(intent string) Badge {
	if b, ok := intentBadges[strings.ToLower(strings.TrimSpace(intent))]; ok {
		return b
	}
	return neutralBadge
}

// FormatError reports a created_utc value matching none of the accepted encodings
type FormatError struct {
	Value string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("unsupported timestamp format %q", e.Value)
}

// Row is a display-ready signal, all defaults applied
type Row struct {
	Title        string
	Permalink    string
	Intent       string // lower-cased intent label
	IntentLabel  string // capitalized for display
	Badge        Badge
	Summary      string
	Tags         []string
	Source       string
	Category     string
	Created      string    // formatted time, or the raw value if it could not be parsed
	CreatedAt    time.Time // zero if CreatedValid is false
	CreatedValid bool
}

// MakeRow converts a signal into a row. A *FormatError is returned along with a usable row
// when the timestamp can't be parsed, the row then carries the raw value.
func MakeRow(s domain.Signal) (Row, error) {
	row := Row{
		Title:     s.Title,
		Permalink: s.Permalink,
		Intent:    strings.ToLower(strings.TrimSpace(s.IntentType)),
		Summary:   s.Summary,
		Tags:      s.Tags,
		Source:    s.Source,
		Category:  s.Category,
	}
	if row.Title == "" {
		row.Title = defaultTitle
	}
	if strings.TrimSpace(row.Permalink) == "" {
		row.Permalink = defaultPermalink
	}
	if row.Intent == "" {
		row.Intent = defaultIntent
	}
	if row.Tags == nil {
		row.Tags = []string{}
	}
	row.IntentLabel = capitalize(row.Intent)
	row.Badge = BadgeFor(row.Intent)

	ts, err := ParseCreated(s.CreatedUTC)
	if err != nil {
		row.Created = s.CreatedUTC
		return row, err
	}
	row.CreatedAt = ts
	row.Created = ts.Format(displayLayout)
	row.CreatedValid = true
	return row, nil
}

// ParseCreated parses created_utc, either RFC3339 (Z suffix or explicit offset) or a naive
// timestamp treated as UTC. The result is always in UTC.
func ParseCreated(value string) (time.Time, error) {
	v := strings.TrimSpace(value)
	if ts, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return ts.UTC(), nil
	}
	if ts, err := time.ParseInLocation(naiveLayout, v, time.UTC); err == nil {
		return ts, nil
	}
	return time.Time{}, &FormatError{Value: value}
}

// capitalize upper-cases the first letter and lower-cases the rest
func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
