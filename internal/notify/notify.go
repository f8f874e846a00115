// Package notify delivers digest summaries to people.
package notify

import (
	"context"
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"

	"jobmate/digest-service/internal/model"
	"jobmate/digest-service/internal/report"
)

// MaxMessageRunes keeps each message under Telegram's 4096 character limit.
const MaxMessageRunes = 4000

// Field caps before escaping. Escaping grows a rune to at most five, so a
// header plus one capped entry always fits in MaxMessageRunes.
const (
	maxNameWidth  = 80
	maxTitleWidth = 200
	maxFieldWidth = 80
	maxLinkRunes  = 300
)

// Notification is the summary of one digest run.
type Notification struct {
	ProfileName string
	Total       int                  // accepted jobs in the run
	Jobs        []model.ScoredRecord // the jobs to list, most recent first
	ReportURL   string
	Remaining   int // accepted jobs not listed
}

// Notifier sends a Notification somewhere.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Nop discards notifications.
type Nop struct{}

// Notify implements Notifier.
func (Nop) Notify(context.Context, Notification) error { return nil }

// FormatMessage renders n as Telegram HTML, split into messages of at most
// MaxMessageRunes runes. Job entries are never split across messages.
func FormatMessage(n Notification) []string {
	header := fmt.Sprintf("📋 <b>%s</b>: %d new jobs\n", escapeCapped(n.ProfileName, maxNameWidth), len(n.Jobs))
	var footer strings.Builder
	if n.Remaining > 0 {
		fmt.Fprintf(&footer, "\n➕ %d more in the full report", n.Remaining)
	}
	if n.ReportURL != "" {
		fmt.Fprintf(&footer, "\n📄 <a href=\"%s\">Full report</a> (%d jobs)", html.EscapeString(n.ReportURL), n.Total)
	}

	var (
		msgs []string
		cur  strings.Builder
	)
	cur.WriteString(header)
	for i, j := range n.Jobs {
		entry := formatJob(i+1, j)
		if utf8.RuneCountInString(cur.String())+utf8.RuneCountInString(entry) > MaxMessageRunes && cur.Len() > 0 {
			msgs = append(msgs, cur.String())
			cur.Reset()
		}
		cur.WriteString(entry)
	}
	if f := footer.String(); f != "" {
		if utf8.RuneCountInString(cur.String())+utf8.RuneCountInString(f) > MaxMessageRunes {
			msgs = append(msgs, cur.String())
			cur.Reset()
		}
		cur.WriteString(f)
	}
	if cur.Len() > 0 {
		msgs = append(msgs, cur.String())
	}
	return msgs
}

func formatJob(pos int, j model.ScoredRecord) string {
	var b strings.Builder
	title := escapeCapped(j.Title, maxTitleWidth)
	if utf8.RuneCountInString(j.Link) <= maxLinkRunes {
		fmt.Fprintf(&b, "\n%d. <a href=\"%s\">%s</a>\n", pos, html.EscapeString(j.Link), title)
	} else {
		fmt.Fprintf(&b, "\n%d. %s\n", pos, title)
	}
	fmt.Fprintf(&b, "🏢 %s · 📍 %s", escapeCapped(j.Employer, maxFieldWidth), escapeCapped(j.Location, maxFieldWidth))
	if badge, ok := report.AgeBadge(j.HoursSincePosted); ok {
		fmt.Fprintf(&b, " · %s %s", badge.Icon, badge.Text)
	}
	if j.QuickApply {
		b.WriteString(" · ✅ Easy Apply")
	}
	b.WriteString("\n")
	return b.String()
}

func escapeCapped(s string, width int) string {
	return html.EscapeString(runewidth.Truncate(s, width, "…"))
}
