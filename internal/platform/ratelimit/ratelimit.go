package ratelimit

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/metrics"
	"github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/platform/errs"
)

// Policy defines a fixed-window limit: Limit requests within Window per key.
type Policy struct {
	// Name identifies the limited endpoint in logs and metrics (e.g. "notify:password-reset").
	Name   string
	Window time.Duration
	Limit  int
	// Optional per-request overrides.
	WindowFunc func(echo.Context) time.Duration
	LimitFunc  func(echo.Context) int
	// Key builds the bucket key for this request.
	Key func(echo.Context) string
}

// Store is a shared counter store for fixed-window limiting.
type Store interface {
	// Allow increments the counter for key and reports whether the request
	// fits the limit. When it does not, retryAfterSec is the time until reset.
	Allow(c echo.Context, key string, limit int, window time.Duration) (allowed bool, retryAfterSec int, err error)
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
}

type bucket struct {
	start time.Time
	count int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{buckets: make(map[string]*bucket), now: time.Now}
}

func (s *MemoryStore) Allow(_ echo.Context, key string, limit int, window time.Duration) (bool, int, error) {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.buckets[key]
	if !ok || now.Sub(b.start) >= window {
		s.buckets[key] = &bucket{start: now, count: 1}
		return true, 0, nil
	}
	if b.count < limit {
		b.count++
		return true, 0, nil
	}
	remaining := window - now.Sub(b.start)
	return false, int((remaining + time.Second - 1) / time.Second), nil
}

// Middleware enforces p with a process-local store.
func Middleware(p Policy) echo.MiddlewareFunc {
	return MiddlewareWithStore(p, NewMemoryStore())
}

// MiddlewareWithStore enforces p against s. Store errors fail open.
func MiddlewareWithStore(p Policy, s Store) echo.MiddlewareFunc {
	if p.Window <= 0 {
		p.Window = time.Minute
	}
	if p.Limit <= 0 {
		p.Limit = 60
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := "global"
			if p.Key != nil {
				key = p.Key(c)
			}
			win, lim := p.Window, p.Limit
			if p.WindowFunc != nil {
				if w := p.WindowFunc(c); w > 0 {
					win = w
				}
			}
			if p.LimitFunc != nil {
				if l := p.LimitFunc(c); l > 0 {
					lim = l
				}
			}
			allowed, retryAfter, err := s.Allow(c, key, lim, win)
			if err != nil || allowed {
				return next(c)
			}
			src := "ip"
			if strings.Contains(key, ":email:") {
				src = "email"
			}
			metrics.IncRateLimitExceeded(p.Name, src)
			c.Logger().Warnf("rate limit exceeded: endpoint=%s source=%s limit=%d window=%s retry_after=%ds", p.Name, src, lim, win, retryAfter)
			if retryAfter > 0 {
				c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfter))
			}
			return c.JSON(http.StatusTooManyRequests, errs.Body{Kind: "RateLimited", Message: "rate limit exceeded"})
		}
	}
}

// KeyIP buckets by client IP.
func KeyIP(prefix string) func(echo.Context) string {
	return func(c echo.Context) string { return prefix + ":ip:" + c.RealIP() }
}

// maxKeyBody caps how much of a body KeyEmailOrIP buffers.
const maxKeyBody = 64 << 10

type readCloser struct {
	io.Reader
	io.Closer
}

// KeyEmailOrIP buckets by the "email" field of a JSON body, falling back to
// the client IP. The body is restored for the handler.
func KeyEmailOrIP(prefix string) func(echo.Context) string {
	return func(c echo.Context) string {
		email := ""
		req := c.Request()
		if req.Body != nil && strings.Contains(strings.ToLower(req.Header.Get(echo.HeaderContentType)), echo.MIMEApplicationJSON) {
			buf, _ := io.ReadAll(io.LimitReader(req.Body, maxKeyBody))
			req.Body = readCloser{io.MultiReader(bytes.NewReader(buf), req.Body), req.Body}
			var tmp struct {
				Email string `json:"email"`
			}
			_ = json.Unmarshal(buf, &tmp)
			email = strings.ToLower(strings.TrimSpace(tmp.Email))
		}
		if email == "" {
			return prefix + ":ip:" + c.RealIP()
		}
		return prefix + ":email:" + email
	}
}
