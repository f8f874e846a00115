// Package store persists digests and remembers which postings were already
// sent to the user.
package store

import (
	"context"
	"errors"

	"jobmate/digest-service/internal/model"
)

// ErrNotFound is returned when no digest matches the lookup.
var ErrNotFound = errors.New("digest not found")

// DigestStore keeps the outcome of every run.
type DigestStore interface {
	SaveDigest(ctx context.Context, d model.Digest) error
	LatestDigest(ctx context.Context, profileID string) (model.Digest, error)
	GetDigest(ctx context.Context, id string) (model.Digest, error)
}

// SeenCache remembers postings already included in a notification so the
// next run does not send them again.
type SeenCache interface {
	FilterUnseen(ctx context.Context, profileID string, recs []model.ScoredRecord) ([]model.ScoredRecord, error)
	MarkSeen(ctx context.Context, profileID string, recs []model.ScoredRecord) error
}

// EventPublisher announces finished digests to other services.
type EventPublisher interface {
	PublishDigest(ctx context.Context, d model.Digest) error
}

// SeenKey identifies a posting across runs: its stable id when the link has
// one, otherwise its canonical URL, otherwise its identity key.
func SeenKey(rec model.CanonicalRecord) string {
	switch {
	case rec.HasStableID():
		return "id:" + rec.StableID
	case rec.CanonicalURL != "":
		return "url:" + rec.CanonicalURL
	default:
		return "key:" + rec.IdentityKey
	}
}

// NopPublisher drops every event.
type NopPublisher struct{}

// PublishDigest implements EventPublisher.
func (NopPublisher) PublishDigest(context.Context, model.Digest) error { return nil }
