package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"jobmate/digest-service/internal/model"
)

// EventDigestCompleted is the channel a finished digest is published on.
const EventDigestCompleted = "EVENT_DIGEST_COMPLETED"

// Redis keeps seen postings as expiring keys and publishes digest events.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedis returns a Redis cache whose seen entries expire after ttl.
func NewRedis(rdb *redis.Client, ttl time.Duration) *Redis {
	return &Redis{rdb: rdb, ttl: ttl}
}

// SeenRedisKey is the key a posting is remembered under for a profile.
func SeenRedisKey(profileID string, rec model.CanonicalRecord) string {
	return fmt.Sprintf("digest:seen:%s:%s", profileID, SeenKey(rec))
}

// FilterUnseen implements SeenCache.
func (r *Redis) FilterUnseen(ctx context.Context, profileID string, recs []model.ScoredRecord) ([]model.ScoredRecord, error) {
	if len(recs) == 0 {
		return nil, nil
	}

	pipe := r.rdb.Pipeline()
	cmds := make([]*redis.IntCmd, len(recs))
	for i, rec := range recs {
		cmds[i] = pipe.Exists(ctx, SeenRedisKey(profileID, rec.CanonicalRecord))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("redis exists: %w", err)
	}

	out := make([]model.ScoredRecord, 0, len(recs))
	for i, rec := range recs {
		if cmds[i].Val() == 0 {
			out = append(out, rec)
		}
	}
	return out, nil
}

// MarkSeen implements SeenCache.
func (r *Redis) MarkSeen(ctx context.Context, profileID string, recs []model.ScoredRecord) error {
	if len(recs) == 0 {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339)
	pipe := r.rdb.Pipeline()
	for _, rec := range recs {
		pipe.Set(ctx, SeenRedisKey(profileID, rec.CanonicalRecord), now, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// DigestEvent is the payload published on EventDigestCompleted.
type DigestEvent struct {
	DigestID   string      `json:"digestId"`
	ProfileID  string      `json:"profileId"`
	FinishedAt time.Time   `json:"finishedAt"`
	Stats      model.Stats `json:"stats"`
	HTMLPath   string      `json:"htmlPath,omitempty"`
}

// PublishDigest implements EventPublisher.
func (r *Redis) PublishDigest(ctx context.Context, d model.Digest) error {
	event, err := json.Marshal(DigestEvent{
		DigestID:   d.ID,
		ProfileID:  d.ProfileID,
		FinishedAt: d.FinishedAt,
		Stats:      d.Stats,
		HTMLPath:   d.HTMLPath,
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := r.rdb.Publish(ctx, EventDigestCompleted, event).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", EventDigestCompleted, err)
	}
	return nil
}
