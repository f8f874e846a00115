package report_test

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobmate/digest-service/internal/model"
	"jobmate/digest-service/internal/report"
)

var started = time.Date(2024, 3, 10, 12, 30, 5, 0, time.UTC)

func scored(title, location string, age model.Age, score int) model.ScoredRecord {
	return model.ScoredRecord{
		CanonicalRecord: model.CanonicalRecord{
			RawRecord: model.RawRecord{
				Title:    title,
				Employer: "Acme",
				Location: location,
				Link:     "https://www.linkedin.com/jobs/view/1",
				PostedAt: "2024-03-10T09:00:00Z",
			},
			StableID: "1",
		},
		HoursSincePosted: age,
		TotalScore:       score,
	}
}

// ── Categorize ─────────────────────────────────────────────────────────────

func TestCategorize(t *testing.T) {
	cases := []struct {
		title, location string
		want            report.Category
	}{
		{"Senior Product Manager", "Bengaluru", report.CategorySenior},
		{"Lead PM, Payments", "Remote", report.CategorySenior},
		{"Associate Product Manager", "Pune", report.CategoryEntryLevel},
		{"Product Manager", "Remote, India", report.CategoryRemote},
		{"Product Manager (Remote)", "India", report.CategoryRemote},
		{"Product Manager", "Mumbai", report.CategoryMidLevel},
	}
	for _, tc := range cases {
		t.Run(tc.title, func(t *testing.T) {
			assert.Equal(t, tc.want, report.Categorize(scored(tc.title, tc.location, model.UnknownAge, 0)))
		})
	}
}

// ── Badges ─────────────────────────────────────────────────────────────────

func TestAgeBadge(t *testing.T) {
	_, ok := report.AgeBadge(model.UnknownAge)
	assert.False(t, ok)

	b, ok := report.AgeBadge(model.HoursAge(6))
	require.True(t, ok)
	assert.Equal(t, "🔥", b.Icon)
	assert.Equal(t, "6h ago", b.Text)

	b, _ = report.AgeBadge(model.HoursAge(12))
	assert.Equal(t, "⚡", b.Icon)

	b, _ = report.AgeBadge(model.HoursAge(12.5))
	assert.Equal(t, "🕒", b.Icon)
	assert.Equal(t, "12.5h ago", b.Text)
}

func TestFormatHours(t *testing.T) {
	assert.Equal(t, "unknown", report.FormatHours(model.UnknownAge))
	assert.Equal(t, "5.3", report.FormatHours(model.HoursAge(5.25)))
	assert.Equal(t, "3", report.FormatHours(model.HoursAge(3.01)))
}

// ── CSV ────────────────────────────────────────────────────────────────────

func TestWriteCSV(t *testing.T) {
	recs := []model.ScoredRecord{
		scored("Senior PM, \"Growth\"", "Bengaluru", model.HoursAge(3), 45),
		scored("Product Manager", "Pune", model.UnknownAge, 20),
	}

	var buf bytes.Buffer
	require.NoError(t, report.WriteCSV(&buf, recs))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, report.CSVHeader, rows[0])
	assert.Equal(t, "1", rows[1][0])
	assert.Equal(t, "Senior PM, \"Growth\"", rows[1][1])
	assert.Equal(t, "3", rows[1][6])
	assert.Equal(t, "45", rows[1][11])
	assert.Equal(t, "unknown", rows[2][6])
}

// ── HTML ───────────────────────────────────────────────────────────────────

func TestBuildPage(t *testing.T) {
	recs := []model.ScoredRecord{
		scored("Senior PM", "Bengaluru", model.HoursAge(2), 50),
		scored("Product Manager", "Remote", model.HoursAge(20), 30),
		scored("Principal PM", "Pune", model.UnknownAge, 25),
	}
	page := report.BuildPage("PM digest", started, recs)

	assert.Equal(t, 3, page.Stats.Total)
	assert.Equal(t, 2, page.Stats.Senior)
	assert.Equal(t, 1, page.Stats.Remote)
	require.Len(t, page.Sections, 2)
	assert.Equal(t, "Senior", page.Sections[0].Name)
	assert.Equal(t, "Senior PM", page.Sections[0].Jobs[0].Title)
	assert.NotNil(t, page.Sections[0].Jobs[0].Badge)
	assert.Nil(t, page.Sections[0].Jobs[1].Badge)
}

func TestWriteHTML_EscapesAndBadges(t *testing.T) {
	rec := scored("<script>alert(1)</script> PM", "Bengaluru", model.HoursAge(4), 40)
	rec.QuickApply = true

	var buf bytes.Buffer
	require.NoError(t, report.WriteHTML(&buf, report.BuildPage("Digest", started, []model.ScoredRecord{rec})))

	out := buf.String()
	assert.NotContains(t, out, "<script>alert")
	assert.Contains(t, out, "&lt;script&gt;")
	assert.Contains(t, out, "✅ Easy Apply")
	assert.Contains(t, out, "🔥 4h ago")
}

func TestWriteHTML_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.WriteHTML(&buf, report.BuildPage("Digest", started, nil)))
	assert.Contains(t, buf.String(), "No matching jobs")
}

// ── Table ──────────────────────────────────────────────────────────────────

func TestWriteTable(t *testing.T) {
	long := strings.Repeat("Product ", 10)
	recs := []model.ScoredRecord{
		scored(long, "Bengaluru", model.HoursAge(1.5), 40),
		scored("PM", "Pune", model.UnknownAge, 10),
		scored("PM 2", "Pune", model.UnknownAge, 5),
	}

	var buf bytes.Buffer
	require.NoError(t, report.WriteTable(&buf, recs, 2))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "TITLE")
	assert.Contains(t, lines[1], "1.5")
	assert.Contains(t, lines[1], "…")
	assert.NotContains(t, lines[1], long)
	assert.Contains(t, lines[2], "unknown")
	assert.Equal(t, "... and 1 more", lines[3])
}

// ── Writer ─────────────────────────────────────────────────────────────────

func TestWriter_Write(t *testing.T) {
	dir := t.TempDir()
	w := report.NewWriter(dir)
	d := model.Digest{
		ID:        "d1",
		ProfileID: "senior pm/india",
		StartedAt: started,
		Jobs:      []model.ScoredRecord{scored("Senior PM", "Bengaluru", model.HoursAge(2), 50)},
	}

	files, err := w.Write(d, "Senior PM")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "csv", "senior_pm_india_20240310_123005.csv"), files.CSV)
	assert.Equal(t, filepath.Join(dir, "html", "senior_pm_india_20240310_123005.html"), files.HTML)

	data, err := os.ReadFile(files.CSV)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Senior PM")

	data, err = os.ReadFile(files.HTML)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<title>Senior PM</title>")
}
