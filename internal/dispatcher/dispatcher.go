// Package dispatcher polls due scheduled emails and hands them to the mail
// transport. It is the "wake up and act" half of the automation engine: the
// sequencer decides when an email goes out, the dispatcher makes the
// handoff, retries failed attempts with backoff, and recovers rows left
// mid-flight by a previous process.
package dispatcher

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/arosling/stageside/internal/clock"
	"github.com/arosling/stageside/internal/domain"
	"github.com/arosling/stageside/internal/metrics"
	"github.com/arosling/stageside/internal/transport"
)

// Config holds dispatcher tuning.
type Config struct {
	PollInterval    time.Duration
	BatchSize       int
	WorkerCount     int
	StuckSendWindow time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		PollInterval:    15 * time.Second,
		BatchSize:       25,
		WorkerCount:     3,
		StuckSendWindow: 5 * time.Minute,
	}
}

// Dispatcher drives the poll/dispatch loop.
type Dispatcher struct {
	repo    domain.SequenceRepository
	mailer  transport.Transport
	clk     clock.Clock
	logger  *zap.Logger
	metrics *metrics.Metrics

	pollInterval    time.Duration
	batchSize       int
	workerCount     int
	stuckSendWindow time.Duration

	stopCh   chan struct{}
	mailCh   chan *domain.ScheduledEmail
	wg       sync.WaitGroup
	workerWg sync.WaitGroup
	mu       sync.RWMutex
	running  bool
}

// New creates a dispatcher.
func New(repo domain.SequenceRepository, mailer transport.Transport, clk clock.Clock, logger *zap.Logger, m *metrics.Metrics, cfg *Config) *Dispatcher {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	workerCount := cfg.WorkerCount
	if workerCount < 1 {
		workerCount = 1
	}
	return &Dispatcher{
		repo:            repo,
		mailer:          mailer,
		clk:             clk,
		logger:          logger,
		metrics:         m,
		pollInterval:    cfg.PollInterval,
		batchSize:       cfg.BatchSize,
		workerCount:     workerCount,
		stuckSendWindow: cfg.StuckSendWindow,
		stopCh:          make(chan struct{}),
		mailCh:          make(chan *domain.ScheduledEmail, cfg.BatchSize),
	}
}

// Start begins the dispatch loop and worker pool.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return errors.New("dispatcher already running")
	}
	d.running = true
	d.mu.Unlock()

	d.logger.Info("starting email dispatcher",
		zap.Duration("poll_interval", d.pollInterval),
		zap.Int("batch_size", d.batchSize),
		zap.Int("worker_count", d.workerCount),
		zap.String("transport", d.mailer.Name()),
	)

	if err := d.recoverStuckEmails(ctx); err != nil {
		d.logger.Error("failed to recover stuck emails", zap.Error(err))
	}

	for i := 0; i < d.workerCount; i++ {
		d.workerWg.Add(1)
		go d.worker(i)
	}

	d.wg.Add(1)
	go d.runLoop()

	return nil
}

// Stop gracefully stops the dispatcher, waiting for in-flight handoffs.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return nil
	}
	d.running = false
	d.mu.Unlock()

	d.logger.Info("stopping email dispatcher")
	close(d.stopCh)

	loopDone := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(d.mailCh)
		close(loopDone)
	}()

	select {
	case <-loopDone:
	case <-ctx.Done():
		d.logger.Warn("dispatcher loop stop timed out")
		return ctx.Err()
	}

	workersDone := make(chan struct{})
	go func() {
		d.workerWg.Wait()
		close(workersDone)
	}()

	select {
	case <-workersDone:
		d.logger.Info("email dispatcher stopped")
		return nil
	case <-ctx.Done():
		d.logger.Warn("dispatcher workers stop timed out")
		return ctx.Err()
	}
}

// runLoop polls for due emails until stopped.
func (d *Dispatcher) runLoop() {
	defer d.wg.Done()

	ticker := d.clk.NewTicker(d.pollInterval)
	defer ticker.Stop()

	// First poll happens immediately so restarts don't wait a full interval.
	d.dispatchDue()

	for {
		select {
		case <-d.stopCh:
			return
		case <-ticker.C():
			d.dispatchDue()
		}
	}
}

// dispatchDue claims one batch of due emails and feeds the workers.
func (d *Dispatcher) dispatchDue() {
	ctx := context.Background()
	now := d.clk.NowUTC()

	due, err := d.repo.GetDueEmails(ctx, now, d.batchSize)
	if err != nil {
		d.logger.Error("failed to fetch due emails", zap.Error(err))
		return
	}
	if d.metrics != nil {
		d.metrics.DispatchQueueDepth.Set(float64(len(due)))
	}
	if len(due) == 0 {
		return
	}

	d.logger.Debug("dispatching due emails", zap.Int("count", len(due)))

	for _, email := range due {
		// Claim before queueing so another poll cycle cannot pick it up.
		email.MarkSending(now)
		if err := d.repo.UpdateEmail(ctx, email); err != nil {
			d.logger.Error("failed to claim email",
				zap.String("email_id", email.ID.String()),
				zap.Error(err),
			)
			continue
		}
		select {
		case d.mailCh <- email:
		case <-d.stopCh:
			return
		}
	}
}

// worker hands claimed emails to the transport.
func (d *Dispatcher) worker(id int) {
	defer d.workerWg.Done()
	logger := d.logger.With(zap.Int("worker", id))

	for email := range d.mailCh {
		d.send(logger, email)
	}
}

func (d *Dispatcher) send(logger *zap.Logger, email *domain.ScheduledEmail) {
	ctx := context.Background()
	start := d.clk.Now()

	err := d.mailer.Send(ctx, email)
	now := d.clk.NowUTC()

	if d.metrics != nil {
		d.metrics.DispatchDuration.Observe(d.clk.Since(start).Seconds())
	}

	if err != nil {
		email.MarkFailed(err, now)
		if d.metrics != nil {
			d.metrics.EmailsDispatchedTotal.WithLabelValues(metrics.OutcomeFailure).Inc()
		}
		logger.Warn("email handoff failed",
			zap.String("email_id", email.ID.String()),
			zap.String("sequence_id", email.SequenceID),
			zap.Int("attempts", email.Attempts),
			zap.String("status", string(email.Status)),
			zap.Error(err),
		)
	} else {
		email.MarkSent(now)
		if d.metrics != nil {
			d.metrics.EmailsDispatchedTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
		}
		logger.Info("email dispatched",
			zap.String("email_id", email.ID.String()),
			zap.String("sequence_id", email.SequenceID),
			zap.String("template", string(email.TemplateType)),
		)
	}

	if err := d.repo.UpdateEmail(ctx, email); err != nil {
		logger.Error("failed to record dispatch result",
			zap.String("email_id", email.ID.String()),
			zap.Error(err),
		)
	}
}

// recoverStuckEmails pushes rows left in 'sending' by a crashed process back
// to 'scheduled' so the normal loop retries them.
func (d *Dispatcher) recoverStuckEmails(ctx context.Context) error {
	now := d.clk.NowUTC()
	stuck, err := d.repo.GetStuckEmails(ctx, d.stuckSendWindow, now)
	if err != nil {
		return err
	}
	for _, email := range stuck {
		email.Status = domain.EmailScheduled
		email.UpdatedAt = now
		if err := d.repo.UpdateEmail(ctx, email); err != nil {
			d.logger.Error("failed to recover stuck email",
				zap.String("email_id", email.ID.String()),
				zap.Error(err),
			)
			continue
		}
		d.logger.Info("recovered stuck email",
			zap.String("email_id", email.ID.String()),
			zap.String("sequence_id", email.SequenceID),
		)
	}
	return nil
}

// Running reports whether the dispatcher loop is active.
func (d *Dispatcher) Running() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.running
}
