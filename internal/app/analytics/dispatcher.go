package analytics

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"
)

// Reporter delivers events to one destination.
type Reporter interface {
	Report(ctx context.Context, ev Event) error
}

// DispatcherConfig holds dispatcher configuration.
type DispatcherConfig struct {
	QueueSize     int           // Events buffered before Track starts dropping
	ReportTimeout time.Duration // Per-reporter delivery timeout
}

// Dispatcher is the Sink that fans events out to subscribed reporters.
// Track never blocks: events are queued and delivered on a worker goroutine,
// and are dropped when the queue is full.
type Dispatcher struct {
	mu        sync.RWMutex
	reporters map[string]Reporter

	queueMu    sync.Mutex
	queue      chan Event
	sequenceNo uint64
	closed     bool

	config DispatcherConfig

	wg        sync.WaitGroup
	startOnce sync.Once
}

// NewDispatcher creates a new dispatcher.
func NewDispatcher(config DispatcherConfig) *Dispatcher {
	if config.QueueSize <= 0 {
		config.QueueSize = 64
	}
	if config.ReportTimeout <= 0 {
		config.ReportTimeout = 500 * time.Millisecond
	}
	return &Dispatcher{
		reporters: make(map[string]Reporter),
		queue:     make(chan Event, config.QueueSize),
		config:    config,
	}
}

// Subscribe adds a reporter and returns the subscription ID.
func (d *Dispatcher) Subscribe(r Reporter) string {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := uuid.New().String()
	d.reporters[id] = r
	return id
}

// Unsubscribe removes a reporter.
func (d *Dispatcher) Unsubscribe(subscriptionID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.reporters, subscriptionID)
}

// ReporterCount returns the number of subscribed reporters.
func (d *Dispatcher) ReporterCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.reporters)
}

// Track assigns the next sequence number and queues ev for delivery.
func (d *Dispatcher) Track(ev Event) {
	d.queueMu.Lock()
	defer d.queueMu.Unlock()

	if d.closed {
		return
	}

	d.sequenceNo++
	ev.Sequence = d.sequenceNo

	select {
	case d.queue <- ev:
	default:
		zlog.Warn().Msgf("analytics: queue full, dropping event: type=%s sequence=%d", ev.Type, ev.Sequence)
	}
}

// Start starts the delivery worker. Events tracked before Start are kept.
func (d *Dispatcher) Start() {
	d.startOnce.Do(func() {
		d.wg.Add(1)
		go d.deliverLoop()
	})
}

// Close stops accepting events, delivers what is queued, then returns.
func (d *Dispatcher) Close() {
	d.queueMu.Lock()
	if d.closed {
		d.queueMu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.queueMu.Unlock()

	d.wg.Wait()

	d.mu.Lock()
	d.reporters = make(map[string]Reporter)
	d.mu.Unlock()
}

func (d *Dispatcher) deliverLoop() {
	defer d.wg.Done()

	for ev := range d.queue {
		d.broadcast(ev)
	}
}

// broadcast sends ev to every reporter in parallel and waits for all of them
// to finish or time out.
func (d *Dispatcher) broadcast(ev Event) {
	d.mu.RLock()
	reporters := make(map[string]Reporter, len(d.reporters))
	for id, r := range d.reporters {
		reporters[id] = r
	}
	d.mu.RUnlock()

	var wg sync.WaitGroup
	for id, r := range reporters {
		wg.Add(1)
		go func(id string, r Reporter) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), d.config.ReportTimeout)
			defer cancel()

			done := make(chan error, 1)
			go func() {
				done <- r.Report(ctx, ev)
			}()

			select {
			case err := <-done:
				if err != nil {
					zlog.Warn().Msgf("analytics: report failed: reporter=%s type=%s error=%v", id, ev.Type, err)
				}
			case <-ctx.Done():
				zlog.Warn().Msgf("analytics: report timed out: reporter=%s type=%s", id, ev.Type)
			}
		}(id, r)
	}
	wg.Wait()
}
