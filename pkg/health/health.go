// Package health implements liveness and readiness probing for the API
// server. Probes run periodically in the background; the HTTP endpoints only
// report the last observed state, so a slow dependency never slows down the
// probe endpoints themselves.
//
// A probe flips to failing only after several consecutive errors, and flips
// back on the first success. This keeps a briefly unreachable dependency from
// bouncing the pod.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// CheckFunc probes one dependency. A nil return means healthy.
type CheckFunc func(ctx context.Context) error

const failuresToTrip = 3

// probe tracks the rolling state of one registered check.
type probe struct {
	name    string
	timeout time.Duration
	fn      CheckFunc

	mu      sync.Mutex
	ok      bool
	lastErr error
	streak  int // consecutive failures so far
}

func newProbe(name string, timeout time.Duration, fn CheckFunc) *probe {
	// Probes start healthy so a service is not reported broken before the
	// first probe round completes.
	return &probe{name: name, timeout: timeout, fn: fn, ok: true}
}

// execute runs the check once and folds the result into the probe state.
func (p *probe) execute(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := p.fn(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastErr = err
	if err != nil {
		p.streak++
		if p.streak >= failuresToTrip {
			p.ok = false
		}
		return
	}
	p.streak = 0
	p.ok = true
}

// state returns the current verdict and last error without blocking on a
// running check.
func (p *probe) state() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ok, p.lastErr
}

// Health owns the registered probes and the manual readiness flag.
type Health struct {
	ready atomic.Bool

	mu        sync.RWMutex
	liveness  []*probe
	readiness []*probe

	stopOnce sync.Once
	cancel   context.CancelFunc
}

// New returns a Health with no probes. The service reports not-ready until
// SetReady(true) is called after startup finishes.
func New() *Health {
	return &Health{}
}

// AddLivenessCheck registers a probe that gates /livez. Liveness failures
// mean the process itself is broken (leaked goroutines, wedged runtime) and
// should be restarted.
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.liveness = append(h.liveness, newProbe(name, timeout, check))
}

// AddReadinessCheck registers a probe that gates /readyz. Readiness failures
// mean a dependency (database, cache) is unavailable and traffic should be
// routed elsewhere until it recovers.
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readiness = append(h.readiness, newProbe(name, timeout, check))
}

// Start launches the background prober. All probes run once immediately and
// then every interval until the context is cancelled or Stop is called.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.cancel = cancel
	probes := make([]*probe, 0, len(h.liveness)+len(h.readiness))
	probes = append(probes, h.liveness...)
	probes = append(probes, h.readiness...)
	h.mu.Unlock()

	go func() {
		runAll := func() {
			for _, p := range probes {
				p.execute(ctx)
			}
		}
		runAll()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runAll()
			}
		}
	}()
}

// Stop halts the background prober. Safe to call more than once.
func (h *Health) Stop() {
	h.stopOnce.Do(func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if h.cancel != nil {
			h.cancel()
		}
	})
}

// SetReady flips the manual readiness gate. Set false during graceful
// shutdown so load balancers drain the instance before it stops listening.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports whether the manual gate is open and every readiness probe
// passes.
func (h *Health) IsReady() bool {
	if !h.ready.Load() {
		return false
	}
	return len(h.failing(h.snapshot(&h.readiness))) == 0
}

func (h *Health) snapshot(set *[]*probe) []*probe {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*probe, len(*set))
	copy(out, *set)
	return out
}

// failing maps the name of each failing probe to its last error message.
func (h *Health) failing(probes []*probe) map[string]string {
	var out map[string]string
	for _, p := range probes {
		ok, err := p.state()
		if ok {
			continue
		}
		if out == nil {
			out = make(map[string]string)
		}
		if err != nil {
			out[p.name] = err.Error()
		} else {
			out[p.name] = "check is unhealthy"
		}
	}
	return out
}

type statusResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// LiveEndpoint serves /livez: 200 while every liveness probe passes, 503
// with the failing probes otherwise.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	writeStatus(w, h.failing(h.snapshot(&h.liveness)))
}

// ReadyEndpoint serves /readyz: 200 while the service is marked ready and
// every readiness probe passes, 503 with details otherwise.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	failures := h.failing(h.snapshot(&h.readiness))
	if !h.ready.Load() {
		if failures == nil {
			failures = make(map[string]string)
		}
		failures["_readiness"] = "service is not ready"
	}
	writeStatus(w, failures)
}

func writeStatus(w http.ResponseWriter, failures map[string]string) {
	w.Header().Set("Content-Type", "application/json")

	resp := statusResponse{Status: "ok"}
	code := http.StatusOK
	if len(failures) > 0 {
		resp = statusResponse{Status: "unhealthy", Checks: failures}
		code = http.StatusServiceUnavailable
	}

	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
