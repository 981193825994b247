// Package health exposes Kubernetes-style liveness and readiness probes.
//
// Probes are driven by one scheduler goroutine on a shared ticker. A probe
// flips to unhealthy only after three consecutive failures and recovers on
// the first success, so a single slow database ping does not take the
// service out of rotation.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// CheckFunc probes one component. A nil return means healthy.
type CheckFunc func(ctx context.Context) error

const (
	failAfter    = 3
	recoverAfter = 1
)

// probeState is the snapshot HTTP handlers read. It is replaced wholesale
// by the scheduler, so readers never see a half-updated probe.
type probeState struct {
	healthy bool
	err     error
}

type probe struct {
	name    string
	timeout time.Duration
	fn      CheckFunc

	state atomic.Pointer[probeState]

	// Consecutive counters. Touched only by the scheduler goroutine.
	fails int
	oks   int
}

func newProbe(name string, timeout time.Duration, fn CheckFunc) *probe {
	p := &probe{name: name, timeout: timeout, fn: fn}
	// Healthy until the first scheduled run says otherwise.
	p.state.Store(&probeState{healthy: true})
	return p
}

// run executes the probe once and updates the published state. Called from
// the scheduler goroutine only.
func (p *probe) run(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := p.fn(probeCtx)

	healthy := p.state.Load().healthy
	if err != nil {
		p.oks = 0
		p.fails++
		if p.fails >= failAfter {
			healthy = false
		}
	} else {
		p.fails = 0
		p.oks++
		if p.oks >= recoverAfter {
			healthy = true
		}
	}
	p.state.Store(&probeState{healthy: healthy, err: err})
}

func (p *probe) snapshot() probeState {
	return *p.state.Load()
}

// Health tracks liveness and readiness probes for one service.
type Health struct {
	accepting atomic.Bool

	mu     sync.Mutex
	live   []*probe
	ready  []*probe
	cancel context.CancelFunc
}

// New creates a Health in the not-ready state. Call SetReady(true) once
// startup finishes.
func New() *Health {
	return &Health{}
}

// AddLivenessCheck registers a probe on the /livez endpoint. Liveness
// failures mean the process itself is wedged and should be restarted.
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.live = append(h.live, newProbe(name, timeout, fn))
}

// AddReadinessCheck registers a probe on the /readyz endpoint. Readiness
// failures mean the service should stop receiving traffic until a
// dependency recovers.
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ready = append(h.ready, newProbe(name, timeout, fn))
}

// Start launches the scheduler goroutine, which runs every registered
// probe once immediately and then on each tick. Register all probes
// before calling Start.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.cancel = cancel
	probes := make([]*probe, 0, len(h.live)+len(h.ready))
	probes = append(probes, h.live...)
	probes = append(probes, h.ready...)
	h.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		runAll := func() {
			for _, p := range probes {
				p.run(ctx)
			}
		}
		runAll()
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

// Stop halts the scheduler. Safe to call more than once.
func (h *Health) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

// SetReady flips the manual readiness gate: true once startup completes,
// false at the start of graceful shutdown so the load balancer drains us.
func (h *Health) SetReady(ready bool) {
	h.accepting.Store(ready)
}

// IsReady reports whether the manual gate is open and every readiness
// probe is currently passing.
func (h *Health) IsReady() bool {
	if !h.accepting.Load() {
		return false
	}
	for _, p := range h.probes(&h.ready) {
		if !p.snapshot().healthy {
			return false
		}
	}
	return true
}

func (h *Health) probes(set *[]*probe) []*probe {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*probe, len(*set))
	copy(out, *set)
	return out
}

type statusResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// LiveEndpoint serves /livez: 200 while every liveness probe passes,
// 503 with per-probe errors otherwise.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	writeStatus(w, failures(h.probes(&h.live)))
}

// ReadyEndpoint serves /readyz: 200 while the manual gate is open and
// every readiness probe passes.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	f := failures(h.probes(&h.ready))
	if !h.accepting.Load() {
		f["_readiness"] = "service is not ready"
	}
	writeStatus(w, f)
}

func failures(probes []*probe) map[string]string {
	f := make(map[string]string)
	for _, p := range probes {
		s := p.snapshot()
		if s.healthy {
			continue
		}
		if s.err != nil {
			f[p.name] = s.err.Error()
		} else {
			f[p.name] = "check is unhealthy"
		}
	}
	return f
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
