package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go-leavedesk/internal/shared/contextutil"
	"go-leavedesk/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"
	idempotencyLockTTL   = 30 * time.Second
	idempotencyTTL       = 24 * time.Hour
)

type storedResponse struct {
	Status int    `json:"status"`
	Body   string `json:"body"`
}

type captureWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func idempotencyKeys(c *gin.Context, key string) (cacheKey, lockKey string) {
	cacheKey = fmt.Sprintf("idemp:%s:%s:%s", c.FullPath(), c.GetString(CtxUserID), key)
	return cacheKey, cacheKey + ":lock"
}

// Idempotency replays the stored response of a POST carrying an
// Idempotency-Key the caller already used. Only successful responses are
// stored; a concurrent duplicate gets 409 while the first is in flight. A
// nil client disables the middleware.
func Idempotency(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if rdb == nil || key == "" || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		log := contextutil.GetLogger(ctx, zap.L())
		cacheKey, lockKey := idempotencyKeys(c, key)

		if val, err := rdb.Get(ctx, cacheKey).Result(); err == nil {
			var stored storedResponse
			if err := json.Unmarshal([]byte(val), &stored); err == nil {
				c.Header("Idempotent-Replay", "true")
				c.Data(stored.Status, "application/json; charset=utf-8", []byte(stored.Body))
				c.Abort()
				return
			}
		}

		acquired, err := rdb.SetNX(ctx, lockKey, "locked", idempotencyLockTTL).Result()
		if err != nil {
			log.Warn("idempotency lock unavailable, continuing without it", zap.Error(err))
			c.Next()
			return
		}
		if !acquired {
			response.AbortWithError(c, ErrInProgress)
			return
		}

		writer := &captureWriter{ResponseWriter: c.Writer}
		c.Writer = writer
		defer func() {
			if err := rdb.Del(ctx, lockKey).Err(); err != nil {
				log.Warn("release idempotency lock failed", zap.String("key", lockKey), zap.Error(err))
			}
		}()

		c.Next()

		status := writer.Status()
		if status < 200 || status >= 300 {
			return
		}
		payload, err := json.Marshal(storedResponse{Status: status, Body: writer.body.String()})
		if err != nil {
			return
		}
		if err := rdb.Set(ctx, cacheKey, payload, idempotencyTTL).Err(); err != nil {
			log.Warn("store idempotent response failed", zap.String("key", cacheKey), zap.Error(err))
		}
	}
}
