package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrMissingSignature  = errors.New("missing signature header")
	ErrInvalidSignature  = errors.New("signature verification failed")
	ErrStaleTimestamp    = errors.New("signature timestamp outside tolerance")
	ErrMalformedHeader   = errors.New("malformed signature header")
	ErrMissingSecret     = errors.New("webhook signing secret not configured")
	errNoUsableSignature = errors.New("no v1 signature in header")
)

// VerifyStripeSignature checks a Stripe-Signature header (the
// "t=...,v1=..." scheme) against the raw request body. The signed payload
// is "<timestamp>.<body>" and the comparison is constant-time. Multiple v1
// entries are accepted if any matches, which Stripe emits during secret
// rotation.
func VerifyStripeSignature(payload []byte, header, secret string, tolerance time.Duration, now time.Time) error {
	if secret == "" {
		return ErrMissingSecret
	}
	if strings.TrimSpace(header) == "" {
		return ErrMissingSignature
	}

	timestamp, signatures, err := parseSignatureHeader(header)
	if err != nil {
		return err
	}

	if tolerance > 0 {
		ts := time.Unix(timestamp, 0)
		if now.Sub(ts) > tolerance || ts.Sub(now) > tolerance {
			return ErrStaleTimestamp
		}
	}

	expected := computeSignature(payload, timestamp, secret)
	for _, sig := range signatures {
		decoded, err := hex.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(decoded, expected) {
			return nil
		}
	}
	return ErrInvalidSignature
}

func parseSignatureHeader(header string) (int64, []string, error) {
	var timestamp int64 = -1
	var signatures []string
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			return 0, nil, ErrMalformedHeader
		}
		switch kv[0] {
		case "t":
			ts, err := strconv.ParseInt(kv[1], 10, 64)
			if err != nil {
				return 0, nil, ErrMalformedHeader
			}
			timestamp = ts
		case "v1":
			signatures = append(signatures, kv[1])
		default:
			// other schemes (v0) are ignored
		}
	}
	if timestamp < 0 {
		return 0, nil, ErrMalformedHeader
	}
	if len(signatures) == 0 {
		return 0, nil, errNoUsableSignature
	}
	return timestamp, signatures, nil
}

func computeSignature(payload []byte, timestamp int64, secret string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(payload)
	return mac.Sum(nil)
}

// SignPayload produces a Stripe-Signature header value for the payload,
// used by tests and the local webhook replay tooling.
func SignPayload(payload []byte, secret string, at time.Time) string {
	sig := computeSignature(payload, at.Unix(), secret)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(sig))
}
