package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gabpmcp/bolivar-test/internal/handler/httperr"
	"github.com/gabpmcp/bolivar-test/internal/pkg/clock"
	"github.com/gabpmcp/bolivar-test/internal/pkg/errs"
	"github.com/gabpmcp/bolivar-test/internal/usecase/commands"

	"github.com/gin-gonic/gin"
)

var errMissingIdempotencyKey = errs.New("missing Idempotency-Key header")

// IdempotencyMiddleware wraps mutating routes in the idempotency gate:
// a seen key replays the stored reply verbatim, a reused key with other
// content is rejected, and a fresh key records the reply it produces.
type IdempotencyMiddleware struct {
	gate  *commands.Gate
	clock clock.Clock
}

func NewIdempotencyMiddleware(gate *commands.Gate, clk clock.Clock) *IdempotencyMiddleware {
	return &IdempotencyMiddleware{
		gate:  gate,
		clock: clk,
	}
}

func (m *IdempotencyMiddleware) Require() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
		if key == "" {
			httperr.AbortWithError(c, errMissingIdempotencyKey,
				httperr.New(http.StatusBadRequest, "MISSING_IDEMPOTENCY_KEY", "Idempotency-Key header required", nil))
			return
		}

		raw, err := readBody(c)
		if err != nil {
			httperr.AbortWithError(c, err,
				httperr.New(http.StatusBadRequest, "INVALID_REQUEST", "request body could not be read", nil))
			return
		}

		// The concrete URL path, not the route template: the same body sent
		// to a different resource must never replay another resource's reply.
		content := commands.Content{
			Path: c.Request.URL.Path,
			Body: decodeBody(raw),
		}
		if userID, ok := GetUserID(c); ok {
			content.Actor = userID.String()
		}

		hash, err := commands.Fingerprint(content)
		if err != nil {
			httperr.AbortWithError(c, err,
				httperr.New(http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error", nil))
			return
		}

		stored, err := m.gate.Decide(c.Request.Context(), key, hash)
		if err != nil {
			if errors.Is(err, commands.ErrIdempotencyKeyReuse) {
				httperr.AbortWithError(c, err,
					httperr.New(http.StatusConflict, "IDEMPOTENCY_HASH_MISMATCH", "Idempotency-Key already used with a different request", nil))
				return
			}
			httperr.AbortWithError(c, err,
				httperr.New(http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error", nil))
			return
		}
		if stored != nil {
			c.Data(stored.StatusCode, "application/json; charset=utf-8", stored.ResponseBody)
			c.Abort()
			return
		}

		capture := &bodyCaptureWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = capture
		c.Next()

		status := capture.Status()
		if !capture.Written() || status >= http.StatusInternalServerError {
			// Server-side failures stay retryable; only settled replies are pinned.
			return
		}

		rec := commands.IdempotencyRecord{
			IdempotencyKey: key,
			ContentHash:    hash,
			StatusCode:     status,
			ResponseBody:   append([]byte(nil), capture.body.Bytes()...),
			CreatedAtUTC:   m.clock.Now().UTC(),
		}
		if err := m.gate.Record(c.Request.Context(), rec); err != nil {
			slog.Warn("Failed to record idempotency reply", "key", key, "error", err.Error())
		}
	}
}

func readBody(c *gin.Context) ([]byte, error) {
	if c.Request.Body == nil {
		return nil, nil
	}
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, errs.Wrap(err, "read request body")
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(raw))
	return raw, nil
}

// decodeBody normalizes the payload for fingerprinting. Non-JSON bodies
// hash as raw strings; downstream binding rejects them anyway.
func decodeBody(raw []byte) any {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	return v
}

type bodyCaptureWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *bodyCaptureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyCaptureWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
