package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"jobmate/digest-service/internal/config"
	"jobmate/digest-service/internal/model"
	"jobmate/digest-service/internal/notify"
	"jobmate/digest-service/internal/pipeline"
	"jobmate/digest-service/internal/report"
	"jobmate/digest-service/internal/store"
)

const maxConcurrentFeeds = 4

// FeedFetcher reads one configured feed.
type FeedFetcher interface {
	Fetch(ctx context.Context, feed config.Feed) ([]model.RawRecord, error)
}

// Deps are the collaborators a Worker needs. Only Searchers and Digests are
// required; every other field may be left nil.
type Deps struct {
	Searchers []Searcher
	Feeds     FeedFetcher
	Reports   *report.Writer
	Digests   store.DigestStore
	Seen      store.SeenCache
	Events    store.EventPublisher
	Notifier  notify.Notifier
	BaseURL   string // public URL reports are served under; file paths are used when empty
	Now       Clock
	Log       *slog.Logger
}

// Worker runs the full digest cycle for one profile: collect, pipeline,
// reports, notification, persistence.
type Worker struct {
	searchers []Searcher
	feeds     FeedFetcher
	reports   *report.Writer
	digests   store.DigestStore
	seen      store.SeenCache
	events    store.EventPublisher
	notifier  notify.Notifier
	baseURL   string
	now       Clock
	log       *slog.Logger

	mu sync.Mutex // one run at a time
}

// NewWorker constructs a Worker.
func NewWorker(d Deps) *Worker {
	w := &Worker{
		searchers: d.Searchers,
		feeds:     d.Feeds,
		reports:   d.Reports,
		digests:   d.Digests,
		seen:      d.Seen,
		events:    d.Events,
		notifier:  d.Notifier,
		baseURL:   d.BaseURL,
		now:       d.Now,
		log:       d.Log,
	}
	if w.events == nil {
		w.events = store.NopPublisher{}
	}
	if w.notifier == nil {
		w.notifier = notify.Nop{}
	}
	if w.now == nil {
		w.now = time.Now
	}
	if w.log == nil {
		w.log = slog.Default()
	}
	w.log = w.log.With("component", "worker")
	return w
}

// Run executes one digest cycle for p. A failing source is logged and
// skipped; the run only fails when the digest cannot be saved.
func (w *Worker) Run(ctx context.Context, p config.Profile) (model.Digest, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	criteria := p.Criteria.WithDefaults()
	if err := criteria.Validate(); err != nil {
		return model.Digest{}, fmt.Errorf("profile %s: %w", p.ID, err)
	}

	d := model.Digest{
		ID:        uuid.NewString(),
		ProfileID: p.ID,
		StartedAt: w.now(),
	}
	log := w.log.With("profile", p.ID, "digest", d.ID)
	log.Info("digest run started", "job_types", p.JobTypes, "locations", p.Locations, "feeds", len(p.Feeds))

	raws, sourceErrors := w.collect(ctx, p, log)
	if err := ctx.Err(); err != nil {
		return model.Digest{}, err
	}

	res := pipeline.Run(raws, criteria, w.now())
	for _, r := range res.Rejections {
		log.Debug("record dropped", "stage", r.Stage, "reason", r.Reason, "title", r.Record.Title, "employer", r.Record.Employer)
	}
	d.Stats = res.Stats
	d.Stats.SourceErrors = sourceErrors
	d.Jobs = res.Ranked

	if w.reports != nil {
		files, err := w.reports.Write(d, p.Name)
		if err != nil {
			log.Error("report write failed", "err", err)
		} else {
			d.CSVPath, d.HTMLPath = files.CSV, files.HTML
		}
	}

	d.Stats.Notified = w.notify(ctx, p, d, criteria.TopN, log)

	d.FinishedAt = w.now()
	if err := w.digests.SaveDigest(ctx, d); err != nil {
		return d, fmt.Errorf("save digest: %w", err)
	}
	if err := w.events.PublishDigest(ctx, d); err != nil {
		log.Warn("publish digest failed", "err", err)
	}

	log.Info("digest run done",
		"collected", d.Stats.Collected,
		"exact_dupes", d.Stats.ExactDupes,
		"similar_dupes", d.Stats.SimilarDupes,
		"rejected", d.Stats.Rejected,
		"accepted", d.Stats.Accepted,
		"notified", d.Stats.Notified,
		"source_errors", d.Stats.SourceErrors,
		"elapsed", d.FinishedAt.Sub(d.StartedAt).Round(time.Millisecond),
	)
	return d, nil
}

// collect runs every search term × location × searcher, then every feed.
// Records keep source order: searches first, then feeds in profile order.
func (w *Worker) collect(ctx context.Context, p config.Profile, log *slog.Logger) ([]model.RawRecord, int) {
	var (
		raws   []model.RawRecord
		failed int
	)

	for _, jobType := range p.JobTypes {
		for _, location := range p.Locations {
			q := Query{Keywords: jobType, Location: location, MaxResults: p.MaxJobsPerSearch}
			for _, s := range w.searchers {
				if ctx.Err() != nil {
					return raws, failed
				}
				recs, err := s.Search(ctx, q)
				if err != nil {
					failed++
					log.Warn("search failed, continuing", "source", s.Name(), "keywords", jobType, "location", location, "err", err)
				}
				log.Debug("search done", "source", s.Name(), "keywords", jobType, "location", location, "records", len(recs))
				raws = append(raws, recs...)
			}
		}
	}

	if w.feeds == nil || len(p.Feeds) == 0 {
		return raws, failed
	}

	results := make([][]model.RawRecord, len(p.Feeds))
	var feedFailed int
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFeeds)
	for i, f := range p.Feeds {
		i, f := i, f
		g.Go(func() error {
			recs, err := w.feeds.Fetch(gctx, f)
			if err != nil {
				mu.Lock()
				feedFailed++
				mu.Unlock()
				log.Warn("feed failed, continuing", "feed", f.Name, "err", err)
				return nil
			}
			results[i] = recs
			return nil
		})
	}
	_ = g.Wait()

	for _, recs := range results {
		raws = append(raws, recs...)
	}
	return raws, failed + feedFailed
}

// notify sends the most recent unseen jobs and marks them seen. It returns
// how many jobs were sent.
func (w *Worker) notify(ctx context.Context, p config.Profile, d model.Digest, topN int, log *slog.Logger) int {
	unseen := d.Jobs
	if w.seen != nil {
		filtered, err := w.seen.FilterUnseen(ctx, p.ID, d.Jobs)
		if err != nil {
			log.Warn("seen cache unavailable, notifying every job", "err", err)
		} else {
			unseen = filtered
		}
	}

	recent := pipeline.TopByRecency(unseen, topN)
	if len(recent) == 0 {
		log.Info("nothing new to notify")
		return 0
	}

	err := w.notifier.Notify(ctx, notify.Notification{
		ProfileName: p.Name,
		Total:       len(d.Jobs),
		Jobs:        recent,
		ReportURL:   w.reportURL(d.HTMLPath),
		Remaining:   len(d.Jobs) - len(recent),
	})
	if err != nil {
		log.Error("notification failed", "err", err)
		return 0
	}

	if w.seen != nil {
		if err := w.seen.MarkSeen(ctx, p.ID, recent); err != nil && !errors.Is(err, context.Canceled) {
			log.Warn("mark seen failed", "err", err)
		}
	}
	return len(recent)
}

func (w *Worker) reportURL(htmlPath string) string {
	if htmlPath == "" || w.baseURL == "" {
		return htmlPath
	}
	u, err := url.JoinPath(w.baseURL, "reports", "html", filepath.Base(htmlPath))
	if err != nil {
		return htmlPath
	}
	return u
}
