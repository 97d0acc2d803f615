package notify

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Dispatcher fans envelope delivery out to a bounded worker pool so callers
// enqueueing many reminders at once don't block on the queue round-trips.
// When the buffer is saturated past the handoff timeout the envelope is
// delivered inline instead of dropped.
type Dispatcher struct {
	notifier *Notifier
	log      *log.Logger

	jobs           chan Envelope
	wg             sync.WaitGroup
	enqueueTimeout time.Duration
	handoffTimeout time.Duration

	mu     sync.Mutex
	closed bool
}

// DispatcherConfig tunes the worker pool. Zero values fall back to defaults.
type DispatcherConfig struct {
	Workers        int
	Buffer         int
	EnqueueTimeout time.Duration
	HandoffTimeout time.Duration
}

func NewDispatcher(notifier *Notifier, cfg DispatcherConfig, logger *log.Logger) *Dispatcher {
	if logger == nil {
		logger = log.StandardLogger()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = 256
	}
	if cfg.EnqueueTimeout <= 0 {
		cfg.EnqueueTimeout = 60 * time.Second
	}
	if cfg.HandoffTimeout < 0 {
		cfg.HandoffTimeout = 0
	}

	d := &Dispatcher{
		notifier:       notifier,
		log:            logger,
		jobs:           make(chan Envelope, cfg.Buffer),
		enqueueTimeout: cfg.EnqueueTimeout,
		handoffTimeout: cfg.HandoffTimeout,
	}
	for i := 0; i < cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
	logger.Infof("notification dispatcher started, workers: %d, buffer: %d", cfg.Workers, cfg.Buffer)
	return d
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()
	for env := range d.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), d.enqueueTimeout)
		err := d.notifier.Send(ctx, env)
		cancel()
		if err != nil {
			d.log.Errorf("notification send failed, err: %v, subject: %q, worker: %d", err, env.Subject, id)
		}
	}
}

// Dispatch hands the envelope to the pool, falling back to an inline send
// when the buffer stays full past the handoff timeout.
func (d *Dispatcher) Dispatch(ctx context.Context, env Envelope) error {
	if d.tryHandoff(env) {
		return nil
	}

	d.log.Warn("notification buffer saturated; sending inline")
	return d.notifier.Send(ctx, env)
}

func (d *Dispatcher) tryHandoff(env Envelope) bool {
	if ok, closed := d.trySendNonBlocking(env); closed {
		return false
	} else if ok {
		return true
	}

	if d.handoffTimeout <= 0 {
		return false
	}

	timer := time.NewTimer(d.handoffTimeout)
	defer timer.Stop()

	ok, _ := d.sendWithTimer(env, timer.C)
	return ok
}

func (d *Dispatcher) trySendNonBlocking(env Envelope) (ok bool, closed bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			closed = true
		}
	}()

	select {
	case d.jobs <- env:
		return true, false
	default:
		return false, false
	}
}

func (d *Dispatcher) sendWithTimer(env Envelope, timer <-chan time.Time) (ok bool, closed bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			closed = true
		}
	}()

	select {
	case d.jobs <- env:
		return true, false
	case <-timer:
		return false, false
	}
}

// Shutdown stops accepting envelopes and waits for in-flight sends.
func (d *Dispatcher) Shutdown() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.mu.Unlock()

	close(d.jobs)
	d.wg.Wait()
}
