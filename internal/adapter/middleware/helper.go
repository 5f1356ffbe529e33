package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const idempKeyPrefix = "idemp:finapp:"

func bodyHash(b []byte) string { s := sha256.Sum256(b); return hex.EncodeToString(s[:]) }

func nowUTC() time.Time { return time.Now().UTC() }

// replayKey scopes a client key to the route and the session user, so two
// users sending the same Idempotency-Key never see each other's responses.
func replayKey(method, route, userID, clientKey string) string {
	return idempKeyPrefix + strings.ToLower(method) + ":" + route + ":" + userID + ":" + clientKey
}

var (
	reUUID  = regexp.MustCompile(`^[a-f0-9]{8}-[a-f0-9]{4}-[1-5][a-f0-9]{3}-[89ab][a-f0-9]{3}-[a-f0-9]{12}$`)
	reHex32 = regexp.MustCompile(`^[a-f0-9]{32}$`)
)

// validIdempotencyKey accepts a lowercase UUID or a 32-char lowercase hex id.
func validIdempotencyKey(k string) bool {
	return reUUID.MatchString(k) || reHex32.MatchString(k)
}

// parseRequestTimestamp reads HeaderRequestTimestamp: epoch seconds, epoch
// milliseconds, or RFC3339 with an explicit zone.
func parseRequestTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("missing %s", HeaderRequestTimestamp)
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n > 1e12 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("%s must be epoch seconds, epoch millis or RFC3339 with zone", HeaderRequestTimestamp)
}

// replayStore keeps one entry per replay key: a short in-progress lock while
// the handler runs, then the final response for the configured TTL.
type replayStore struct {
	rdb     *redis.Client
	lockTTL time.Duration
}

// acquire takes the in-progress lock; false means the key already exists.
func (s replayStore) acquire(ctx context.Context, key string, e idempEntry) (bool, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return false, err
	}
	return s.rdb.SetNX(ctx, key, payload, s.lockTTL).Result()
}

// load returns the stored entry; a key that vanished between acquire and load
// comes back as errEntryGone.
func (s replayStore) load(ctx context.Context, key string) (idempEntry, error) {
	var e idempEntry
	v, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return e, errEntryGone
	}
	if err != nil {
		return e, err
	}
	if err := json.Unmarshal(v, &e); err != nil {
		return e, fmt.Errorf("decode replay entry: %w", err)
	}
	return e, nil
}

func (s replayStore) finish(ctx context.Context, key string, e idempEntry, ttl time.Duration) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key, payload, ttl).Err()
}

// release drops the lock so the client may retry with the same key.
func (s replayStore) release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}

var errEntryGone = errors.New("replay entry expired")
