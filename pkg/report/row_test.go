package report

import (
	"errors"
	"html/template"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/signalscope/pkg/domain"
)

func TestParseCreated(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    time.Time
		wantErr bool
	}{
		{name: "zulu", value: "2024-03-01T10:15:00Z", want: time.Date(2024, 3, 1, 10, 15, 0, 0, time.UTC)},
		{name: "naive", value: "2024-03-01T10:15:00", want: time.Date(2024, 3, 1, 10, 15, 0, 0, time.UTC)},
		{name: "naive with micros", value: "2024-03-01T10:15:00.123456", want: time.Date(2024, 3, 1, 10, 15, 0, 123456000, time.UTC)},
		{name: "explicit utc offset", value: "2024-03-01T10:15:00+00:00", want: time.Date(2024, 3, 1, 10, 15, 0, 0, time.UTC)},
		{name: "other offset converted", value: "2024-03-01T12:15:00+02:00", want: time.Date(2024, 3, 1, 10, 15, 0, 0, time.UTC)},
		{name: "fractional zulu", value: "2024-03-01T10:15:00.5Z", want: time.Date(2024, 3, 1, 10, 15, 0, 500000000, time.UTC)},
		{name: "garbage", value: "not-a-date", wantErr: true},
		{name: "date only", value: "2024-03-01", wantErr: true},
		{name: "empty", value: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCreated(tt.value)
			if tt.wantErr {
				require.Error(t, err)
				var fmtErr *FormatError
				require.True(t, errors.As(err, &fmtErr))
				assert.Equal(t, tt.value, fmtErr.Value)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v", got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestMakeRow(t *testing.T) {
	t.Run("all fields", func(t *testing.T) {
		row, err := MakeRow(domain.Signal{
			Title:      "Looking for a CRM",
			Permalink:  "https://www.reddit.com/r/SaaS/comments/abc/",
			IntentType: "Discovery",
			Summary:    "wants a lightweight CRM",
			Tags:       []string{"crm", "smb"},
			Source:     "r/SaaS",
			CreatedUTC: "2024-03-01T10:15:00Z",
			Category:   "software",
		})
		require.NoError(t, err)
		assert.Equal(t, "Looking for a CRM", row.Title)
		assert.Equal(t, "https://www.reddit.com/r/SaaS/comments/abc/", row.Permalink)
		assert.Equal(t, "discovery", row.Intent)
		assert.Equal(t, "Discovery", row.IntentLabel)
		assert.Equal(t, intentBadges["discovery"], row.Badge)
		assert.Equal(t, []string{"crm", "smb"}, row.Tags)
		assert.Equal(t, "r/SaaS", row.Source)
		assert.Equal(t, "software", row.Category)
		assert.Equal(t, "2024-03-01 10:15", row.Created)
		assert.True(t, row.CreatedValid)
	})

	t.Run("defaults", func(t *testing.T) {
		row, err := MakeRow(domain.Signal{CreatedUTC: "2024-03-01T10:15:00"})
		require.NoError(t, err)
		assert.Equal(t, "No Title", row.Title)
		assert.Equal(t, "#", row.Permalink)
		assert.Equal(t, "unknown", row.Intent)
		assert.Equal(t, "Unknown", row.IntentLabel)
		assert.Equal(t, neutralBadge, row.Badge)
		assert.Empty(t, row.Summary)
		assert.Empty(t, row.Source)
		assert.NotNil(t, row.Tags)
		assert.Empty(t, row.Tags)
		assert.Equal(t, "2024-03-01 10:15", row.Created)
	})

	t.Run("invalid timestamp keeps raw value", func(t *testing.T) {
		row, err := MakeRow(domain.Signal{Title: "t", CreatedUTC: "not-a-date"})
		require.Error(t, err)
		var fmtErr *FormatError
		require.True(t, errors.As(err, &fmtErr))
		assert.Equal(t, "not-a-date", row.Created)
		assert.False(t, row.CreatedValid)
		assert.True(t, row.CreatedAt.IsZero())
		assert.Equal(t, "t", row.Title)
	})

	t.Run("permalink kept as is", func(t *testing.T) {
		for _, link := range []string{"/r/SaaS/comments/abc123/looking_for_a_crm/", "https://www.reddit.com/r/SaaS/", "javascript:alert(1)"} {
			row, err := MakeRow(domain.Signal{Permalink: link, CreatedUTC: "2024-03-01T10:15:00Z"})
			require.NoError(t, err)
			assert.Equal(t, link, row.Permalink)
		}
		row, _ := MakeRow(domain.Signal{Permalink: "  ", CreatedUTC: "2024-03-01T10:15:00Z"})
		assert.Equal(t, "#", row.Permalink, "blank link gets placeholder")
	})
}

func TestBadgeFor(t *testing.T) {
	tests := []struct {
		intent string
		want   Badge
	}{
		{"frustration", Badge{Background: "#fee2e2", Foreground: "#dc2626"}},
		{"FRUSTRATION", Badge{Background: "#fee2e2", Foreground: "#dc2626"}},
		{" churn ", Badge{Background: "#fecaca", Foreground: "#b91c1c"}},
		{"comparison", Badge{Background: "#ede9fe", Foreground: "#7c3aed"}},
		{"validation", Badge{Background: "#cffafe", Foreground: "#0e7490"}},
		{"xyz", neutralBadge},
		{"", neutralBadge},
	}
	for _, tt := range tests {
		t.Run(tt.intent, func(t *testing.T) {
			assert.Equal(t, tt.want, BadgeFor(tt.intent))
		})
	}
}

func TestBadge_Style(t *testing.T) {
	b := Badge{Background: "#fee2e2", Foreground: "#dc2626"}
	assert.Equal(t, template.CSS("background-color: #fee2e2; color: #dc2626"), b.Style())
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "Frustration", capitalize("frustration"))
	assert.Equal(t, "Xyz", capitalize("xyz"))
	assert.Equal(t, "Xyz", capitalize("xYZ"))
	assert.Equal(t, "Évaluation", capitalize("évaluation"))
	assert.Empty(t, capitalize(""))
}
