package service

import (
	"context"
	"time"
)

// ClaimOutcome is the result of trying to claim an Idempotency-Key for
// one order-creation request.
type ClaimOutcome string

const (
	// ClaimAccepted: first request under this key, proceed to create.
	ClaimAccepted ClaimOutcome = "accepted"
	// ClaimReplayed: an identical request already completed, serve its
	// stored response.
	ClaimReplayed ClaimOutcome = "replayed"
	// ClaimMismatch: the key was reused with a different request.
	ClaimMismatch ClaimOutcome = "mismatch"
	// ClaimPending: the first request is still in flight.
	ClaimPending ClaimOutcome = "pending"
)

// StoredResponse is the response snapshot replayed to retries of an
// order-creation request.
type StoredResponse struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

type Claim struct {
	Outcome  ClaimOutcome
	Response *StoredResponse
}

// IdempotencyStore guards order creation against client retries. Claim
// reserves a key for one request fingerprint; Finish stores the response
// that identical retries will replay until the claim expires.
type IdempotencyStore interface {
	Claim(ctx context.Context, scope, key, fingerprint string, ttl time.Duration) (Claim, error)
	Finish(ctx context.Context, scope, key, fingerprint string, response StoredResponse, ttl time.Duration) error
}
