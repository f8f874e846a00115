package notify_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobmate/digest-service/internal/logger"
	"jobmate/digest-service/internal/model"
	"jobmate/digest-service/internal/notify"
)

func job(title string, age model.Age) model.ScoredRecord {
	return model.ScoredRecord{
		CanonicalRecord: model.CanonicalRecord{RawRecord: model.RawRecord{
			Title:    title,
			Employer: "Acme & Co",
			Location: "Bengaluru",
			Link:     "https://www.linkedin.com/jobs/view/1",
		}},
		HoursSincePosted: age,
	}
}

// ── FormatMessage ──────────────────────────────────────────────────────────

func TestFormatMessage_Single(t *testing.T) {
	j := job("Senior <PM>", model.HoursAge(2))
	j.QuickApply = true

	msgs := notify.FormatMessage(notify.Notification{
		ProfileName: "Senior PM",
		Total:       12,
		Jobs:        []model.ScoredRecord{j, job("Lead PM", model.UnknownAge)},
		ReportURL:   "https://digest.example.com/reports/html/pm.html",
		Remaining:   10,
	})

	require.Len(t, msgs, 1)
	msg := msgs[0]
	assert.Contains(t, msg, "<b>Senior PM</b>: 2 new jobs")
	assert.Contains(t, msg, "1. <a href=\"https://www.linkedin.com/jobs/view/1\">Senior &lt;PM&gt;</a>")
	assert.Contains(t, msg, "Acme &amp; Co")
	assert.Contains(t, msg, "🔥 2h ago")
	assert.Contains(t, msg, "✅ Easy Apply")
	assert.Contains(t, msg, "2. <a")
	assert.Contains(t, msg, "10 more in the full report")
	assert.Contains(t, msg, "(12 jobs)")
}

func TestFormatMessage_SplitsLongDigests(t *testing.T) {
	var jobs []model.ScoredRecord
	for i := 0; i < 80; i++ {
		jobs = append(jobs, job(fmt.Sprintf("Product Manager %02d %s", i, strings.Repeat("x", 40)), model.HoursAge(1)))
	}

	msgs := notify.FormatMessage(notify.Notification{ProfileName: "pm", Total: 80, Jobs: jobs})
	require.Greater(t, len(msgs), 1)

	joined := strings.Join(msgs, "")
	for i, m := range msgs {
		assert.LessOrEqual(t, utf8.RuneCountInString(m), notify.MaxMessageRunes, "message %d", i)
	}
	assert.Contains(t, joined, "80. <a")
	assert.Equal(t, 80, strings.Count(joined, "<a href="))
}

func TestFormatMessage_CapsOversizedEntry(t *testing.T) {
	huge := job(strings.Repeat("<&>", 3000), model.HoursAge(1))
	huge.Employer = strings.Repeat("&", 5000)
	huge.Location = strings.Repeat("\"", 5000)
	huge.Link = "https://site/jobs/view/1?" + strings.Repeat("a=1&", 1000)
	huge.QuickApply = true

	msgs := notify.FormatMessage(notify.Notification{
		ProfileName: strings.Repeat("'", 500),
		Total:       2,
		Jobs:        []model.ScoredRecord{huge, job("Staff PM", model.HoursAge(2))},
	})

	require.NotEmpty(t, msgs)
	for i, m := range msgs {
		assert.LessOrEqual(t, utf8.RuneCountInString(m), notify.MaxMessageRunes, "message %d", i)
	}
	joined := strings.Join(msgs, "")
	assert.Contains(t, joined, "1. &lt;&amp;&gt;")
	assert.Contains(t, joined, "…")
	assert.Equal(t, 1, strings.Count(joined, "<a href="), "oversized link is dropped")
	assert.Contains(t, joined, "2. <a href=")
}

// ── Telegram ───────────────────────────────────────────────────────────────

type fakeBotAPI struct {
	mu    sync.Mutex
	texts []string
	modes []string
}

func (f *fakeBotAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasSuffix(r.URL.Path, "/getMe"):
		fmt.Fprint(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"digest","username":"digest_bot"}}`)
	case strings.HasSuffix(r.URL.Path, "/sendMessage"):
		_ = r.ParseForm()
		f.mu.Lock()
		f.texts = append(f.texts, r.FormValue("text"))
		f.modes = append(f.modes, r.FormValue("parse_mode"))
		f.mu.Unlock()
		fmt.Fprint(w, `{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":42,"type":"private"}}}`)
	default:
		http.NotFound(w, r)
	}
}

func TestTelegram_Notify(t *testing.T) {
	api := &fakeBotAPI{}
	srv := httptest.NewServer(api)
	defer srv.Close()

	tg, err := notify.NewTelegram("token", 42, srv.URL+"/bot%s/%s", srv.Client(), logger.Discard())
	require.NoError(t, err)

	err = tg.Notify(context.Background(), notify.Notification{
		ProfileName: "pm",
		Total:       1,
		Jobs:        []model.ScoredRecord{job("Senior PM", model.HoursAge(3))},
	})
	require.NoError(t, err)

	require.Len(t, api.texts, 1)
	assert.Contains(t, api.texts[0], "Senior PM")
	assert.Equal(t, "HTML", api.modes[0])
}

func TestTelegram_NotifyCancelled(t *testing.T) {
	api := &fakeBotAPI{}
	srv := httptest.NewServer(api)
	defer srv.Close()

	tg, err := notify.NewTelegram("token", 42, srv.URL+"/bot%s/%s", srv.Client(), logger.Discard())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = tg.Notify(ctx, notify.Notification{ProfileName: "pm", Jobs: []model.ScoredRecord{job("PM", model.UnknownAge)}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, api.texts)
}

func TestNop(t *testing.T) {
	assert.NoError(t, notify.Nop{}.Notify(context.Background(), notify.Notification{}))
}
