package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Claim record layout: one hash per (scope, key) under
// <prefix>:<scope>:<key> with fields fp, state, code, ctype, body.
// States move claimed -> stored; PEXPIRE bounds the replay window.
var redisClaimScript = redis.NewScript(`
local record = KEYS[1]
local fp = ARGV[1]
local ttl_ms = ARGV[2]

local state = redis.call("HGET", record, "state")
if not state then
  redis.call("HSET", record, "fp", fp, "state", "claimed")
  redis.call("PEXPIRE", record, ttl_ms)
  return {"accepted"}
end

if redis.call("HGET", record, "fp") ~= fp then
  return {"mismatch"}
end

if state == "stored" then
  return {"replayed",
    redis.call("HGET", record, "code") or "",
    redis.call("HGET", record, "ctype") or "",
    redis.call("HGET", record, "body") or ""}
end

return {"pending"}
`)

var redisFinishScript = redis.NewScript(`
local record = KEYS[1]
local fp = ARGV[1]
local ttl_ms = ARGV[2]

if redis.call("EXISTS", record) == 0 then
  return 0
end
if redis.call("HGET", record, "fp") ~= fp then
  return -1
end

redis.call("HSET", record, "state", "stored",
  "code", ARGV[3], "ctype", ARGV[4], "body", ARGV[5])
redis.call("PEXPIRE", record, ttl_ms)
return 1
`)

// RedisIdempotencyStore is the distributed variant used when the API runs
// more than one replica; claim and replay are atomic via Lua.
type RedisIdempotencyStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisIdempotencyStore(client redis.UniversalClient, prefix string) *RedisIdempotencyStore {
	if prefix == "" {
		prefix = "idem"
	}
	return &RedisIdempotencyStore{client: client, prefix: prefix}
}

func (s *RedisIdempotencyStore) recordKey(scope, key string) string {
	return fmt.Sprintf("%s:%s:%s", s.prefix, scope, key)
}

func (s *RedisIdempotencyStore) Claim(ctx context.Context, scope, key, fingerprint string, ttl time.Duration) (Claim, error) {
	raw, err := redisClaimScript.Run(
		ctx,
		s.client,
		[]string{s.recordKey(scope, key)},
		fingerprint,
		int(ttl/time.Millisecond),
	).Result()
	if err != nil {
		return Claim{}, err
	}
	values, ok := raw.([]interface{})
	if !ok || len(values) == 0 {
		return Claim{}, fmt.Errorf("unexpected claim script result type")
	}

	switch outcome := ClaimOutcome(asString(values[0])); outcome {
	case ClaimAccepted, ClaimMismatch, ClaimPending:
		return Claim{Outcome: outcome}, nil
	case ClaimReplayed:
		if len(values) < 4 {
			return Claim{}, fmt.Errorf("unexpected replay payload")
		}
		code, parseErr := strconv.Atoi(asString(values[1]))
		if parseErr != nil {
			return Claim{}, fmt.Errorf("parse stored status: %w", parseErr)
		}
		body, decodeErr := base64.StdEncoding.DecodeString(asString(values[3]))
		if decodeErr != nil {
			return Claim{}, fmt.Errorf("decode stored body: %w", decodeErr)
		}
		return Claim{
			Outcome: ClaimReplayed,
			Response: &StoredResponse{
				StatusCode:  code,
				ContentType: asString(values[2]),
				Body:        body,
			},
		}, nil
	default:
		return Claim{}, fmt.Errorf("unknown claim outcome %q", outcome)
	}
}

func (s *RedisIdempotencyStore) Finish(ctx context.Context, scope, key, fingerprint string, response StoredResponse, ttl time.Duration) error {
	_, err := redisFinishScript.Run(
		ctx,
		s.client,
		[]string{s.recordKey(scope, key)},
		fingerprint,
		int(ttl/time.Millisecond),
		response.StatusCode,
		response.ContentType,
		base64.StdEncoding.EncodeToString(response.Body),
	).Result()
	return err
}

func asString(v interface{}) string {
	switch typed := v.(type) {
	case string:
		return typed
	case []byte:
		return string(typed)
	default:
		return fmt.Sprint(v)
	}
}
