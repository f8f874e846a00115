package store

import (
	"context"
	"sync"
	"time"

	"jobmate/digest-service/internal/model"
)

// Memory is an in-process DigestStore and SeenCache, used when no database
// or Redis is configured. Only the most recent digests per profile are kept.
type Memory struct {
	mu      sync.RWMutex
	byID    map[string]model.Digest
	order   map[string][]string // profile -> digest ids, oldest first
	seen    map[string]time.Time
	keep    int
	seenTTL time.Duration
	now     func() time.Time
}

// NewMemory returns a Memory that keeps up to keep digests per profile and
// forgets seen postings after seenTTL.
func NewMemory(keep int, seenTTL time.Duration) *Memory {
	if keep <= 0 {
		keep = 10
	}
	return &Memory{
		byID:    make(map[string]model.Digest),
		order:   make(map[string][]string),
		seen:    make(map[string]time.Time),
		keep:    keep,
		seenTTL: seenTTL,
		now:     time.Now,
	}
}

// WithClock replaces the clock used for seen-entry expiry.
func (m *Memory) WithClock(now func() time.Time) *Memory {
	m.now = now
	return m
}

// SaveDigest implements DigestStore.
func (m *Memory) SaveDigest(_ context.Context, d model.Digest) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byID[d.ID]; !exists {
		m.order[d.ProfileID] = append(m.order[d.ProfileID], d.ID)
	}
	m.byID[d.ID] = d

	ids := m.order[d.ProfileID]
	for len(ids) > m.keep {
		delete(m.byID, ids[0])
		ids = ids[1:]
	}
	m.order[d.ProfileID] = ids
	return nil
}

// LatestDigest implements DigestStore.
func (m *Memory) LatestDigest(_ context.Context, profileID string) (model.Digest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := m.order[profileID]
	if len(ids) == 0 {
		return model.Digest{}, ErrNotFound
	}
	return m.byID[ids[len(ids)-1]], nil
}

// GetDigest implements DigestStore.
func (m *Memory) GetDigest(_ context.Context, id string) (model.Digest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.byID[id]
	if !ok {
		return model.Digest{}, ErrNotFound
	}
	return d, nil
}

// FilterUnseen implements SeenCache.
func (m *Memory) FilterUnseen(_ context.Context, profileID string, recs []model.ScoredRecord) ([]model.ScoredRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := m.now()
	out := make([]model.ScoredRecord, 0, len(recs))
	for _, r := range recs {
		if exp, ok := m.seen[profileID+"|"+SeenKey(r.CanonicalRecord)]; ok && now.Before(exp) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// MarkSeen implements SeenCache.
func (m *Memory) MarkSeen(_ context.Context, profileID string, recs []model.ScoredRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for k, exp := range m.seen {
		if !now.Before(exp) {
			delete(m.seen, k)
		}
	}
	for _, r := range recs {
		m.seen[profileID+"|"+SeenKey(r.CanonicalRecord)] = now.Add(m.seenTTL)
	}
	return nil
}
