// Package shutdown coordinates graceful teardown of the server's moving
// parts: the HTTP listener drains first, then background workers such as
// the email dispatcher stop, and storage connections close last.
package shutdown

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Phase orders teardown. Stoppers in the same phase run concurrently;
// phases run in declaration order.
type Phase int

const (
	// PhaseDrain stops intake: the HTTP server finishes in-flight
	// requests and refuses new ones.
	PhaseDrain Phase = iota
	// PhaseWorkers stops background loops: the dispatcher poll loop,
	// session reapers, anything that writes to storage.
	PhaseWorkers
	// PhaseStorage closes connection pools and flushes buffers once
	// nothing can write anymore.
	PhaseStorage

	phaseCount
)

func (p Phase) String() string {
	switch p {
	case PhaseDrain:
		return "drain"
	case PhaseWorkers:
		return "workers"
	case PhaseStorage:
		return "storage"
	default:
		return "unknown"
	}
}

type stopper struct {
	name string
	stop func(ctx context.Context) error
}

// Coordinator runs registered stop functions phase by phase when the
// process receives a termination signal.
type Coordinator struct {
	mu     sync.Mutex
	phases [phaseCount][]stopper

	timeout time.Duration
	logger  *zap.Logger

	begun chan struct{}
	once  sync.Once
	done  chan struct{}
	err   error
}

// Config holds coordinator settings.
type Config struct {
	// Timeout bounds the whole teardown across all phases.
	Timeout time.Duration
}

// DefaultConfig returns coordinator defaults.
func DefaultConfig() *Config {
	return &Config{Timeout: 30 * time.Second}
}

// NewCoordinator creates a shutdown coordinator.
func NewCoordinator(cfg *Config, logger *zap.Logger) *Coordinator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Coordinator{
		timeout: cfg.Timeout,
		logger:  logger,
		begun:   make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// RegisterFunc adds a stop function to the given phase. Registration
// after shutdown has begun is ignored for that run.
func (c *Coordinator) RegisterFunc(phase Phase, name string, fn func(ctx context.Context) error) {
	if phase < 0 || phase >= phaseCount {
		panic(fmt.Sprintf("shutdown: invalid phase %d", phase))
	}

	c.mu.Lock()
	c.phases[phase] = append(c.phases[phase], stopper{name: name, stop: fn})
	c.mu.Unlock()

	c.logger.Debug("registered for shutdown",
		zap.String("name", name),
		zap.Stringer("phase", phase),
	)
}

// Begun returns a channel closed as soon as shutdown starts. Readiness
// probes watch it to flip to draining before the listener closes.
func (c *Coordinator) Begun() <-chan struct{} {
	return c.begun
}

// Shutdown runs all phases and blocks until teardown finishes or ctx is
// cancelled. The first call triggers teardown; concurrent calls wait on
// the same run and receive the same error.
func (c *Coordinator) Shutdown(ctx context.Context) error {
	c.once.Do(func() {
		close(c.begun)
		go c.run()
	})

	select {
	case <-c.done:
		return c.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Coordinator) run() {
	defer close(c.done)

	// A detached context so teardown gets its full timeout even when the
	// caller's context is already cancelled.
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	c.logger.Info("graceful shutdown started", zap.Duration("timeout", c.timeout))

	var errs []error
	for phase := Phase(0); phase < phaseCount; phase++ {
		c.mu.Lock()
		stoppers := c.phases[phase]
		c.mu.Unlock()

		if len(stoppers) == 0 {
			continue
		}

		c.logger.Info("shutdown phase",
			zap.Stringer("phase", phase),
			zap.Int("stoppers", len(stoppers)),
		)
		errs = append(errs, c.runPhase(ctx, phase, stoppers)...)

		if ctx.Err() != nil {
			c.logger.Error("shutdown timeout exceeded",
				zap.Stringer("phase", phase),
				zap.Error(ctx.Err()),
			)
			errs = append(errs, fmt.Errorf("phase %s: %w", phase, ctx.Err()))
			break
		}
	}

	c.err = errors.Join(errs...)
	if c.err != nil {
		c.logger.Error("shutdown finished with errors", zap.Int("errors", len(errs)))
		return
	}
	c.logger.Info("shutdown complete")
}

func (c *Coordinator) runPhase(ctx context.Context, phase Phase, stoppers []stopper) []error {
	var wg sync.WaitGroup
	errCh := make(chan error, len(stoppers))

	for _, s := range stoppers {
		wg.Add(1)
		go func(s stopper) {
			defer wg.Done()

			start := time.Now()
			if err := s.stop(ctx); err != nil {
				c.logger.Error("stopper failed",
					zap.String("name", s.name),
					zap.Stringer("phase", phase),
					zap.Duration("took", time.Since(start)),
					zap.Error(err),
				)
				errCh <- fmt.Errorf("%s: %w", s.name, err)
				return
			}
			c.logger.Debug("stopper finished",
				zap.String("name", s.name),
				zap.Stringer("phase", phase),
				zap.Duration("took", time.Since(start)),
			)
		}(s)
	}

	wg.Wait()
	close(errCh)

	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}
	return errs
}

// HealthState is what the readiness endpoint reports.
type HealthState int

const (
	HealthStateHealthy HealthState = iota
	HealthStateDraining
)

func (h HealthState) String() string {
	switch h {
	case HealthStateHealthy:
		return "healthy"
	case HealthStateDraining:
		return "draining"
	default:
		return "unknown"
	}
}

// ReadinessProbe tracks whether the server should accept traffic. It
// flips to draining the moment shutdown begins so load balancers pull
// the instance before the listener closes.
type ReadinessProbe struct {
	mu    sync.RWMutex
	state HealthState
}

// NewReadinessProbe creates a probe bound to the coordinator's lifecycle.
func NewReadinessProbe(coordinator *Coordinator) *ReadinessProbe {
	rp := &ReadinessProbe{state: HealthStateHealthy}
	go func() {
		<-coordinator.Begun()
		rp.SetState(HealthStateDraining)
	}()
	return rp
}

// SetState overrides the probe state.
func (rp *ReadinessProbe) SetState(state HealthState) {
	rp.mu.Lock()
	rp.state = state
	rp.mu.Unlock()
}

// IsReady reports whether the server should receive traffic.
func (rp *ReadinessProbe) IsReady() bool {
	return rp.State() == HealthStateHealthy
}

// State returns the current readiness state.
func (rp *ReadinessProbe) State() HealthState {
	rp.mu.RLock()
	defer rp.mu.RUnlock()
	return rp.state
}
