// Package health provides Kubernetes-style liveness and readiness probe
// support.
//
// Checks run lazily: a probe request evaluates each registered check and
// caches the result for that check's TTL, so frequent probes do not hammer
// dependencies and an idle service runs no background goroutines.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// CheckFunc is a health check function. It should return nil if the checked
// component is healthy, or an error describing the problem.
type CheckFunc func(ctx context.Context) error

// check evaluates on demand and caches the outcome for ttl.
type check struct {
	name  string
	ttl   time.Duration
	check CheckFunc

	mu      sync.Mutex
	lastRun time.Time
	lastErr error
}

// eval returns the cached result when fresh, otherwise runs the check.
func (c *check) eval(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.lastRun.IsZero() && time.Since(c.lastRun) < c.ttl {
		return c.lastErr
	}

	checkCtx, cancel := context.WithTimeout(ctx, c.ttl)
	defer cancel()

	c.lastErr = c.check(checkCtx)
	c.lastRun = time.Now()
	return c.lastErr
}

// Health manages liveness and readiness checks for a service.
type Health struct {
	ready atomic.Bool

	// mu protects the check slices. Registration happens before the server
	// starts serving; probes only read.
	mu              sync.RWMutex
	livenessChecks  []*check
	readinessChecks []*check
}

// New creates a new Health instance. The service starts in a not-ready state;
// call SetReady(true) once initialization completes.
func New() *Health {
	return &Health{}
}

// AddLivenessCheck registers a liveness check. Liveness checks determine
// whether the process is alive and functioning, e.g. goroutine count.
// The TTL bounds both the cache lifetime and the check's execution time.
func (h *Health) AddLivenessCheck(name string, ttl time.Duration, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.livenessChecks = append(h.livenessChecks, &check{name: name, ttl: ttl, check: fn})
}

// AddReadinessCheck registers a readiness check. Readiness checks determine
// whether the service can accept traffic, e.g. database connectivity.
func (h *Health) AddReadinessCheck(name string, ttl time.Duration, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readinessChecks = append(h.readinessChecks, &check{name: name, ttl: ttl, check: fn})
}

// SetReady manually sets the readiness state. Called with true after
// initialization and with false during graceful shutdown to stop receiving
// new traffic.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports whether the service is manually marked ready AND all
// readiness checks currently pass.
func (h *Health) IsReady(ctx context.Context) bool {
	if !h.ready.Load() {
		return false
	}
	return len(h.collectFailures(ctx, h.snapshot(&h.readinessChecks))) == 0
}

// LiveEndpoint is an http.HandlerFunc for the /livez endpoint. It returns 200
// with {"status":"ok"} if all liveness checks pass, or 503 listing failures.
func (h *Health) LiveEndpoint(w http.ResponseWriter, r *http.Request) {
	failures := h.collectFailures(r.Context(), h.snapshot(&h.livenessChecks))
	writeResponse(w, failures)
}

// ReadyEndpoint is an http.HandlerFunc for the /readyz endpoint. It returns
// 200 only if the service is marked ready and all readiness checks pass.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, r *http.Request) {
	failures := h.collectFailures(r.Context(), h.snapshot(&h.readinessChecks))
	if !h.ready.Load() {
		failures["_readiness"] = "service is not ready"
	}
	writeResponse(w, failures)
}

func (h *Health) snapshot(checks *[]*check) []*check {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*check, len(*checks))
	copy(out, *checks)
	return out
}

func (h *Health) collectFailures(ctx context.Context, checks []*check) map[string]string {
	failures := make(map[string]string)
	for _, c := range checks {
		if err := c.eval(ctx); err != nil {
			failures[c.name] = err.Error()
		}
	}
	return failures
}

// statusResponse is the JSON response body for health endpoints.
type statusResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func writeResponse(w http.ResponseWriter, failures map[string]string) {
	w.Header().Set("Content-Type", "application/json")

	resp := statusResponse{Status: "ok"}
	status := http.StatusOK

	if len(failures) > 0 {
		resp.Status = "unhealthy"
		resp.Checks = failures
		status = http.StatusServiceUnavailable
	}

	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
