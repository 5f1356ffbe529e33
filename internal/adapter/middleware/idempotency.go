package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"finapp-backend/internal/domain/session"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const (
	// provisionalLockTTL bounds how long a crashed request can hold its key.
	provisionalLockTTL = 60 * time.Second
	// maxClockSkew is the allowed distance of HeaderRequestTimestamp from now.
	maxClockSkew = 10 * time.Minute

	HeaderIdempotencyKey   = "Idempotency-Key"
	HeaderRequestTimestamp = "X-Request-Timestamp"
	// HeaderReplayed marks a response served from the replay store.
	HeaderReplayed = "Idempotent-Replayed"
)

type idempEntry struct {
	InProgress  bool      `json:"in_progress"`
	Code        int       `json:"code"`
	Body        []byte    `json:"body"`
	BodySHA256  string    `json:"body_sha256"`
	ClientKey   string    `json:"client_key"`
	SentAtMS    int64     `json:"sent_at_ms"`
	CreatedAt   time.Time `json:"created_at"`
}

type respRecorder struct {
	w    http.ResponseWriter
	buf  *bytes.Buffer
	code int
}

func (r *respRecorder) Header() http.Header { return r.w.Header() }
func (r *respRecorder) Write(b []byte) (int, error) {
	if r.buf != nil {
		r.buf.Write(b)
	}
	return r.w.Write(b)
}
func (r *respRecorder) WriteHeader(statusCode int) { r.code = statusCode; r.w.WriteHeader(statusCode) }

// Idempotency replays the stored response of a mutating request that repeats
// its Idempotency-Key. Entries are keyed by method, route, session user and
// client key, so it must run after Auth. Server errors are not stored; the
// client may retry them with the same key.
func Idempotency(rdb *redis.Client, ttl time.Duration) echo.MiddlewareFunc {
	store := replayStore{rdb: rdb, lockTTL: provisionalLockTTL}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			switch req.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}

			sess, ok := session.FromContext(req.Context())
			if !ok || sess.UserID == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing session"})
			}

			clientKey := strings.TrimSpace(req.Header.Get(HeaderIdempotencyKey))
			if clientKey == "" {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "missing " + HeaderIdempotencyKey})
			}
			if !validIdempotencyKey(clientKey) {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid " + HeaderIdempotencyKey + " format"})
			}
			sentAt, err := parseRequestTimestamp(req.Header.Get(HeaderRequestTimestamp))
			if err != nil {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
			}
			now := nowUTC()
			if sentAt.Before(now.Add(-maxClockSkew)) || sentAt.After(now.Add(maxClockSkew)) {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": HeaderRequestTimestamp + " too skewed"})
			}

			var body []byte
			if req.Body != nil {
				body, _ = io.ReadAll(req.Body)
			}
			req.Body = io.NopCloser(bytes.NewBuffer(body))
			bhash := bodyHash(body)

			key := replayKey(req.Method, c.Path(), sess.UserID, clientKey)
			ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
			defer cancel()

			entry := idempEntry{
				InProgress:  true,
				BodySHA256:  bhash,
				ClientKey:   clientKey,
				SentAtMS:    sentAt.UnixMilli(),
				CreatedAt:   now,
			}
			acquired, err := store.acquire(ctx, key, entry)
			if err != nil {
				log.WithError(err).WithField("key", key).Error("idempotency store unavailable")
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "idempotency store unavailable"})
			}
			if !acquired {
				cur, err := store.load(ctx, key)
				if err != nil && !errors.Is(err, errEntryGone) {
					log.WithError(err).WithField("key", key).Warn("idempotency: load stored entry")
				}
				if cur.BodySHA256 != "" && cur.BodySHA256 != bhash {
					return c.JSON(http.StatusConflict, map[string]string{"error": HeaderIdempotencyKey + " reused with different body"})
				}
				if !cur.InProgress && cur.Code != 0 && len(cur.Body) > 0 {
					c.Response().Header().Set(HeaderReplayed, "true")
					return c.Blob(cur.Code, echo.MIMEApplicationJSON, cur.Body)
				}
				return c.JSON(http.StatusConflict, map[string]string{"error": "request is already in progress"})
			}

			rec := &respRecorder{w: c.Response().Writer, buf: &bytes.Buffer{}, code: http.StatusOK}
			c.Response().Writer = rec
			if err := next(c); err != nil {
				c.Error(err)
			}

			if rec.code >= http.StatusInternalServerError {
				if err := store.release(context.Background(), key); err != nil {
					log.WithError(err).WithField("key", key).Warn("idempotency: release lock")
				}
				return nil
			}
			entry.InProgress = false
			entry.Code = rec.code
			entry.Body = rec.buf.Bytes()
			entry.CreatedAt = nowUTC()
			if err := store.finish(context.Background(), key, entry, ttl); err != nil {
				log.WithError(err).WithField("key", key).Warn("idempotency: save final response")
			}
			return nil
		}
	}
}
