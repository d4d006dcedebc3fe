package service

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/teamflp/agri-direct-marketplace-sub002/internal/domain"
)

const (
	claimStatusClaimed = "claimed"
	claimStatusStored  = "stored"
)

// DBIdempotencyStore persists claims in the relational store. Used when
// Redis is not configured; the unique (scope, key) index arbitrates
// concurrent claims.
type DBIdempotencyStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewDBIdempotencyStore(db *gorm.DB) *DBIdempotencyStore {
	return &DBIdempotencyStore{db: db, now: time.Now}
}

func (s *DBIdempotencyStore) Claim(ctx context.Context, scope, key, fingerprint string, ttl time.Duration) (Claim, error) {
	now := s.now().UTC()
	record := domain.IdempotencyRecord{
		Scope:           scope,
		IdempotencyKey:  key,
		FingerprintHash: fingerprint,
		Status:          claimStatusClaimed,
		ExpiresAt:       now.Add(ttl),
	}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&record)
	if res.Error != nil {
		return Claim{}, res.Error
	}
	if res.RowsAffected > 0 {
		return Claim{Outcome: ClaimAccepted}, nil
	}

	var existing domain.IdempotencyRecord
	err := s.db.WithContext(ctx).
		Where("scope = ? AND idempotency_key = ?", scope, key).
		First(&existing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// claimed row expired and was purged between the insert and read
			return Claim{Outcome: ClaimAccepted}, nil
		}
		return Claim{}, err
	}

	if existing.ExpiresAt.Before(now) {
		err := s.db.WithContext(ctx).Model(&domain.IdempotencyRecord{}).
			Where("id = ?", existing.ID).
			Updates(map[string]any{
				"fingerprint_hash": fingerprint,
				"status":           claimStatusClaimed,
				"response_status":  0,
				"response_body":    []byte(nil),
				"content_type":     "",
				"expires_at":       now.Add(ttl),
			}).Error
		if err != nil {
			return Claim{}, err
		}
		return Claim{Outcome: ClaimAccepted}, nil
	}

	if existing.FingerprintHash != fingerprint {
		return Claim{Outcome: ClaimMismatch}, nil
	}
	if existing.Status != claimStatusStored {
		return Claim{Outcome: ClaimPending}, nil
	}
	return Claim{
		Outcome: ClaimReplayed,
		Response: &StoredResponse{
			StatusCode:  existing.ResponseStatus,
			ContentType: existing.ContentType,
			Body:        existing.ResponseBody,
		},
	}, nil
}

func (s *DBIdempotencyStore) Finish(ctx context.Context, scope, key, fingerprint string, response StoredResponse, ttl time.Duration) error {
	return s.db.WithContext(ctx).Model(&domain.IdempotencyRecord{}).
		Where("scope = ? AND idempotency_key = ? AND fingerprint_hash = ?", scope, key, fingerprint).
		Updates(map[string]any{
			"status":          claimStatusStored,
			"response_status": response.StatusCode,
			"response_body":   response.Body,
			"content_type":    response.ContentType,
			"expires_at":      s.now().UTC().Add(ttl),
		}).Error
}
