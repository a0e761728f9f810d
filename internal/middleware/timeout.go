package middleware

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"auth-gateway/internal/logger"
	"auth-gateway/internal/policy"

	"github.com/gin-gonic/gin"
)

// Timeout bounds total downstream execution time per resolved policy.
// On exceeding the limit it cancels downstream work and returns 504.
// Client disconnects are not converted into responses; the connection is
// already gone. Downstream panics are re-raised on the request
// goroutine so the recovery stage sees them unchanged.
type Timeout struct {
	timeouts *policy.Resolver[time.Duration]
	timedOut *rejectionCounters
}

func NewTimeout(timeouts *policy.Resolver[time.Duration]) *Timeout {
	return &Timeout{
		timeouts: timeouts,
		timedOut: newRejectionCounters(),
	}
}

// Timeouts exposes counters to operational tooling.
func (t *Timeout) Timeouts() (int64, map[string]int64) {
	return t.timedOut.snapshot()
}

func (t *Timeout) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := t.timeouts.Resolve(c.Request.URL.Path, c.Request.Method)

		parent := c.Request.Context()
		ctx, cancel := context.WithTimeout(parent, limit)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		buf := newBufferedWriter(c.Writer)
		c.Writer = buf

		start := time.Now()
		done := make(chan any, 1)
		go func() {
			defer func() {
				// Forward a panic instead of crashing the process from
				// an unrecovered goroutine.
				done <- recover()
			}()
			c.Next()
		}()

		select {
		case p := <-done:
			if p != nil {
				// Hand the real writer back so the recovery stage can
				// still produce a response.
				buf.discard()
				c.Writer = buf.upstream()
				panic(p)
			}
			// Headers are still unsent while buffered, so the handling
			// duration can ride along even after the body was written.
			buf.Header().Set("X-Process-Time",
				fmt.Sprintf("%.4f", time.Since(start).Seconds()))
			buf.flush()
			c.Writer = buf.upstream()

		case <-ctx.Done():
			// c.Writer stays buffered: the cancelled goroutine may still
			// be writing, and the discarded buffer absorbs late output.
			buf.discard()

			if errors.Is(parent.Err(), context.Canceled) {
				// Voluntary upstream cancellation (client disconnect).
				logger.Info("request cancelled by client", map[string]any{
					"request_id": RequestIDFromContext(ctx),
					"method":     c.Request.Method,
					"path":       c.Request.URL.Path,
				})
				c.Abort()
				return
			}

			duration := time.Since(start)
			t.timedOut.inc(c.Request.URL.Path)

			logger.Warn("request timed out", map[string]any{
				"request_id": RequestIDFromContext(ctx),
				"method":     c.Request.Method,
				"path":       c.Request.URL.Path,
				"client":     c.ClientIP(),
				"duration":   duration.Seconds(),
				"limit":      limit.Seconds(),
			})

			upstream := buf.upstream()
			upstream.Header().Set("Content-Type", "text/plain; charset=utf-8")
			upstream.WriteHeader(http.StatusGatewayTimeout)
			_, _ = upstream.Write([]byte("Request timed out"))
			c.Abort()
		}
	}
}

// bufferedWriter holds downstream headers and body until the guard
// decides the request finished in time. After discard, late writes from
// the cancelled goroutine become no-ops, so the 504 written on the
// upstream writer never races with downstream output.
type bufferedWriter struct {
	gin.ResponseWriter

	mu        sync.Mutex
	header    http.Header
	body      bytes.Buffer
	status    int
	wrote     bool
	discarded bool
	flushed   bool
}

func newBufferedWriter(w gin.ResponseWriter) *bufferedWriter {
	return &bufferedWriter{
		ResponseWriter: w,
		header:         make(http.Header),
		status:         http.StatusOK,
	}
}

func (b *bufferedWriter) upstream() gin.ResponseWriter {
	return b.ResponseWriter
}

func (b *bufferedWriter) Header() http.Header {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.flushed {
		return b.ResponseWriter.Header()
	}
	return b.header
}

func (b *bufferedWriter) WriteHeader(status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.discarded || b.flushed || b.wrote {
		return
	}
	b.status = status
	b.wrote = true
}

func (b *bufferedWriter) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.discarded {
		return len(p), nil
	}
	if b.flushed {
		return b.ResponseWriter.Write(p)
	}
	b.wrote = true
	return b.body.Write(p)
}

func (b *bufferedWriter) WriteString(s string) (int, error) {
	return b.Write([]byte(s))
}

// WriteHeaderNow is deferred until flush; gin calls it eagerly.
func (b *bufferedWriter) WriteHeaderNow() {}

func (b *bufferedWriter) Status() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.flushed || b.discarded {
		return b.ResponseWriter.Status()
	}
	return b.status
}

func (b *bufferedWriter) Size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.flushed || b.discarded {
		return b.ResponseWriter.Size()
	}
	return b.body.Len()
}

func (b *bufferedWriter) Written() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.flushed || b.discarded {
		return b.ResponseWriter.Written()
	}
	return b.wrote
}

func (b *bufferedWriter) flush() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.discarded || b.flushed {
		return
	}
	b.flushed = true

	upstream := b.ResponseWriter.Header()
	for key, values := range b.header {
		upstream[key] = values
	}
	b.ResponseWriter.WriteHeader(b.status)
	if b.body.Len() > 0 {
		_, _ = b.ResponseWriter.Write(b.body.Bytes())
	}
}

func (b *bufferedWriter) discard() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.discarded = true
}
