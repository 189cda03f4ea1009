package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	domainerrors "giftchain.backend/internal/domain/errors"
	"giftchain.backend/pkg/logger"
	"giftchain.backend/pkg/redis"
)

const (
	IdempotencyHeader    = "Idempotency-Key"
	IdempotencyHitHeader = "X-Idempotency-Hit"
	// LockDuration is the time we hold the lock while processing
	LockDuration = 30 * time.Second
	// RetentionDuration is how long we keep the response
	RetentionDuration = 24 * time.Hour

	processingMarker = "processing"
	anonymousScope   = "anon"
)

// IdempotencyStore is the subset of the Redis client the middleware needs
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)
	Del(ctx context.Context, key string) error
}

type cachedResponse struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// IdempotencyMiddleware replays the stored response for a repeated Idempotency-Key.
// Keys are scoped to the authenticated wallet, the route and the request body, so a
// reused key with a different payload is processed as a new request. Only 2xx responses
// are retained; failures release the key so the client can retry.
func IdempotencyMiddleware(store IdempotencyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyHeader)
		if key == "" || store == nil {
			c.Next()
			return
		}

		var bodyBytes []byte
		if c.Request.Body != nil {
			var err error
			bodyBytes, err = io.ReadAll(c.Request.Body)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
					"code":    domainerrors.CodeBadRequest,
					"message": "Unable to read request body",
				})
				return
			}
			c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
		}

		wallet, ok := GetWallet(c)
		if !ok {
			wallet = anonymousScope
		}
		storageKey := idempotencyStorageKey(wallet, c.FullPath(), key, bodyBytes)
		ctx := c.Request.Context()

		val, err := store.Get(ctx, storageKey)
		switch {
		case err == nil && val == processingMarker:
			abortInProgress(c)
			return
		case err == nil:
			if replay(c, val) {
				return
			}
			// unreadable entry, drop it and process as new
			_ = store.Del(ctx, storageKey)
		case !redis.IsNil(err):
			logger.Warn(ctx, "Idempotency store unavailable, processing without replay protection", zap.Error(err))
			c.Next()
			return
		}

		acquired, err := store.SetNX(ctx, storageKey, processingMarker, LockDuration)
		if err != nil {
			logger.Warn(ctx, "Idempotency lock failed, processing without replay protection", zap.Error(err))
			c.Next()
			return
		}
		if !acquired {
			abortInProgress(c)
			return
		}

		w := &responseWriter{body: &bytes.Buffer{}, ResponseWriter: c.Writer}
		c.Writer = w

		c.Next()

		status := c.Writer.Status()
		if status >= 200 && status < 300 && json.Valid(w.body.Bytes()) {
			payload, _ := json.Marshal(cachedResponse{Status: status, Body: w.body.Bytes()})
			if err := store.Set(ctx, storageKey, string(payload), RetentionDuration); err != nil {
				logger.Warn(ctx, "Failed to store idempotent response", zap.Error(err))
			}
			return
		}
		if err := store.Del(ctx, storageKey); err != nil {
			logger.Warn(ctx, "Failed to release idempotency key", zap.Error(err))
		}
	}
}

func idempotencyStorageKey(wallet, route, key string, body []byte) string {
	sum := sha256.Sum256(body)
	return fmt.Sprintf("idempotency:%s:%s:%s:%s", wallet, route, key, hex.EncodeToString(sum[:]))
}

func replay(c *gin.Context, val string) bool {
	var cached cachedResponse
	if err := json.Unmarshal([]byte(val), &cached); err != nil || cached.Status == 0 {
		return false
	}
	c.Header(IdempotencyHitHeader, "true")
	c.Data(cached.Status, "application/json; charset=utf-8", cached.Body)
	c.Abort()
	return true
}

func abortInProgress(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusConflict, gin.H{
		"code":    domainerrors.CodeIdempotencyInProgress,
		"message": "Request already in progress",
	})
}
