package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"jobmate/digest-service/internal/model"
)

// Postgres stores digests in the digest_runs and digest_jobs tables.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres returns a Postgres store. The schema must already be migrated.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

var digestJobColumns = []string{
	"digest_id", "position", "stable_id", "canonical_url", "identity_key",
	"title", "employer", "location", "link", "posted_at", "quick_apply",
	"source", "source_keywords", "collected_at",
	"seniority_score", "location_score", "freshness_score", "hours_since_posted", "total_score",
}

// SaveDigest implements DigestStore. The run and its jobs are written in one
// transaction.
func (p *Postgres) SaveDigest(ctx context.Context, d model.Digest) error {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return fmt.Errorf("digest id %q: %w", d.ID, err)
	}
	stats, err := json.Marshal(d.Stats)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx,
		`INSERT INTO digest_runs (id, profile_id, started_at, finished_at, stats, csv_path, html_path)
		 VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7)`,
		id, d.ProfileID, d.StartedAt, d.FinishedAt, string(stats), d.CSVPath, d.HTMLPath,
	); err != nil {
		return fmt.Errorf("insert digest_runs: %w", err)
	}

	rows := make([][]any, 0, len(d.Jobs))
	for i, j := range d.Jobs {
		var hours *float64
		if j.HoursSincePosted.Known() {
			h := j.HoursSincePosted.Hours()
			hours = &h
		}
		rows = append(rows, []any{
			id, i, j.StableID, j.CanonicalURL, j.IdentityKey,
			j.Title, j.Employer, j.Location, j.Link, j.PostedAt, j.QuickApply,
			j.Source, j.SourceKeywords, j.CollectedAt,
			j.SeniorityScore, j.LocationScore, j.FreshnessScore, hours, j.TotalScore,
		})
	}
	if len(rows) > 0 {
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"digest_jobs"}, digestJobColumns, pgx.CopyFromRows(rows)); err != nil {
			return fmt.Errorf("copy digest_jobs: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// LatestDigest implements DigestStore.
func (p *Postgres) LatestDigest(ctx context.Context, profileID string) (model.Digest, error) {
	return p.loadDigest(ctx,
		`SELECT id::text, profile_id, started_at, finished_at, stats, csv_path, html_path
		 FROM digest_runs
		 WHERE profile_id = $1
		 ORDER BY finished_at DESC
		 LIMIT 1`,
		profileID,
	)
}

// GetDigest implements DigestStore.
func (p *Postgres) GetDigest(ctx context.Context, id string) (model.Digest, error) {
	return p.loadDigest(ctx,
		`SELECT id::text, profile_id, started_at, finished_at, stats, csv_path, html_path
		 FROM digest_runs
		 WHERE id::text = $1`,
		id,
	)
}

func (p *Postgres) loadDigest(ctx context.Context, query string, arg string) (model.Digest, error) {
	var (
		d     model.Digest
		stats []byte
	)
	err := p.pool.QueryRow(ctx, query, arg).Scan(
		&d.ID, &d.ProfileID, &d.StartedAt, &d.FinishedAt, &stats, &d.CSVPath, &d.HTMLPath,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Digest{}, ErrNotFound
	}
	if err != nil {
		return model.Digest{}, fmt.Errorf("query digest_runs: %w", err)
	}
	if err := json.Unmarshal(stats, &d.Stats); err != nil {
		return model.Digest{}, fmt.Errorf("unmarshal stats: %w", err)
	}

	rows, err := p.pool.Query(ctx,
		`SELECT stable_id, canonical_url, identity_key, title, employer, location, link,
		        posted_at, quick_apply, source, source_keywords, collected_at,
		        seniority_score, location_score, freshness_score, hours_since_posted, total_score
		 FROM digest_jobs
		 WHERE digest_id = $1
		 ORDER BY position`,
		uuid.MustParse(d.ID),
	)
	if err != nil {
		return model.Digest{}, fmt.Errorf("query digest_jobs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			j     model.ScoredRecord
			hours *float64
		)
		if err := rows.Scan(
			&j.StableID, &j.CanonicalURL, &j.IdentityKey, &j.Title, &j.Employer, &j.Location, &j.Link,
			&j.PostedAt, &j.QuickApply, &j.Source, &j.SourceKeywords, &j.CollectedAt,
			&j.SeniorityScore, &j.LocationScore, &j.FreshnessScore, &hours, &j.TotalScore,
		); err != nil {
			return model.Digest{}, fmt.Errorf("scan: %w", err)
		}
		if hours != nil {
			j.HoursSincePosted = model.HoursAge(*hours)
		}
		d.Jobs = append(d.Jobs, j)
	}
	return d, rows.Err()
}
