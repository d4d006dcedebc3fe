package service

import (
	"context"
	"math"
	"sync"
	"time"
)

const maxBlockDuration = 24 * time.Hour

// AttemptRecord is the persisted limiter state for one key.
type AttemptRecord struct {
	Attempts      int           `json:"attempts"`
	FirstAttempt  time.Time     `json:"first_attempt"`
	BlockedUntil  *time.Time    `json:"blocked_until,omitempty"`
	BlockDuration time.Duration `json:"block_duration"`
}

// AttemptStore holds limiter records. Read-modify-write is deliberately
// not compare-and-swap: concurrent writers for the same key may race,
// which is acceptable for the limiter's advisory role.
type AttemptStore interface {
	Get(ctx context.Context, key string) (*AttemptRecord, error)
	Put(ctx context.Context, key string, record *AttemptRecord, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type AttemptLimiterConfig struct {
	MaxAttempts        int
	Window             time.Duration
	InitialBlock       time.Duration
	ExponentialBackoff bool
}

// AttemptLimiter counts failed attempts inside a sliding window and
// blocks a key once the maximum is reached. With exponential backoff each
// block doubles the next block's duration, capped at 24 hours. A
// successful attempt resets everything, including the block duration.
type AttemptLimiter struct {
	cfg   AttemptLimiterConfig
	store AttemptStore
	now   func() time.Time
}

func NewAttemptLimiter(cfg AttemptLimiterConfig, store AttemptStore) *AttemptLimiter {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.Window <= 0 {
		cfg.Window = 15 * time.Minute
	}
	if cfg.InitialBlock <= 0 {
		cfg.InitialBlock = 15 * time.Minute
	}
	if cfg.InitialBlock > maxBlockDuration {
		cfg.InitialBlock = maxBlockDuration
	}
	return &AttemptLimiter{cfg: cfg, store: store, now: time.Now}
}

func (l *AttemptLimiter) RecordAttempt(ctx context.Context, key string, success bool) error {
	if success {
		return l.store.Delete(ctx, key)
	}

	now := l.now()
	record, err := l.store.Get(ctx, key)
	if err != nil {
		return err
	}
	if record == nil {
		record = &AttemptRecord{FirstAttempt: now, BlockDuration: l.cfg.InitialBlock}
	}
	l.expireWindow(record, now)

	record.Attempts++
	if record.Attempts >= l.cfg.MaxAttempts {
		until := now.Add(record.BlockDuration)
		record.BlockedUntil = &until
		if l.cfg.ExponentialBackoff {
			next := record.BlockDuration * 2
			if next > maxBlockDuration {
				next = maxBlockDuration
			}
			record.BlockDuration = next
		}
	}
	return l.store.Put(ctx, key, record, l.recordTTL(record))
}

// IsRateLimited reports whether the key is inside an active block window
// or has exhausted its attempts without being blocked yet.
func (l *AttemptLimiter) IsRateLimited(ctx context.Context, key string) (bool, error) {
	now := l.now()
	record, err := l.store.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if record == nil {
		return false, nil
	}
	if l.expireWindow(record, now) {
		if err := l.store.Put(ctx, key, record, l.recordTTL(record)); err != nil {
			return false, err
		}
	}
	if record.BlockedUntil != nil && now.Before(*record.BlockedUntil) {
		return true, nil
	}
	return record.Attempts >= l.cfg.MaxAttempts, nil
}

// RemainingTime returns whole seconds until the key unblocks, clamped to
// zero.
func (l *AttemptLimiter) RemainingTime(ctx context.Context, key string) (int64, error) {
	record, err := l.store.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	if record == nil || record.BlockedUntil == nil {
		return 0, nil
	}
	remaining := record.BlockedUntil.Sub(l.now())
	if remaining <= 0 {
		return 0, nil
	}
	return int64(math.Ceil(remaining.Seconds())), nil
}

// expireWindow resets the attempt count when the sliding window has
// elapsed. The block, if any, is left to run out on its own.
func (l *AttemptLimiter) expireWindow(record *AttemptRecord, now time.Time) bool {
	if now.Sub(record.FirstAttempt) <= l.cfg.Window {
		return false
	}
	record.Attempts = 0
	record.FirstAttempt = now
	return true
}

func (l *AttemptLimiter) recordTTL(record *AttemptRecord) time.Duration {
	ttl := l.cfg.Window
	if record.BlockedUntil != nil {
		if blockTTL := record.BlockedUntil.Sub(l.now()) + l.cfg.Window; blockTTL > ttl {
			ttl = blockTTL
		}
	}
	return ttl
}

// MemoryAttemptStore is the single-process store.
type MemoryAttemptStore struct {
	mu      sync.Mutex
	records map[string]*memoryAttemptEntry
	now     func() time.Time
}

type memoryAttemptEntry struct {
	record    AttemptRecord
	expiresAt time.Time
}

func NewMemoryAttemptStore() *MemoryAttemptStore {
	return &MemoryAttemptStore{records: make(map[string]*memoryAttemptEntry), now: time.Now}
}

func (s *MemoryAttemptStore) Get(_ context.Context, key string) (*AttemptRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.records[key]
	if !ok {
		return nil, nil
	}
	if s.now().After(entry.expiresAt) {
		delete(s.records, key)
		return nil, nil
	}
	record := entry.record
	return &record, nil
}

func (s *MemoryAttemptStore) Put(_ context.Context, key string, record *AttemptRecord, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = &memoryAttemptEntry{record: *record, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryAttemptStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	return nil
}
