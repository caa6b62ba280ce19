package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mechgrid/turnengine/pkg/command"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Instruments register against the global MeterProvider, which the otel
// package swaps for the SDK provider when export is enabled.
const instrumentationName = "github.com/mechgrid/turnengine/internal/dispatcher"

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrQueueFull      = errors.New("queue full")
	ErrClosed         = errors.New("dispatcher closed")
)

// Event is a decoded command on its way to a handler.
type Event struct {
	Command  command.Command
	Received time.Time
	// Local marks a command proposed on this node rather than received from a peer.
	Local bool
}

// Kind is the discriminator the event is routed by.
func (e Event) Kind() command.Kind { return e.Command.Kind() }

// HandlerFunc processes an event and returns a result.
type HandlerFunc func(Event) (any, error)

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Option configures handler registration.
type Option func(*config)

type config struct {
	bufferSize int
	blocking   bool
	logged     bool
	lane       string
}

// Buffered makes the handler async with a queue of the given size.
func Buffered(size int) Option {
	return func(c *config) {
		c.bufferSize = size
	}
}

// Blocking makes a buffered handler block when the queue is full instead of dropping.
func Blocking() Option {
	return func(c *config) {
		c.blocking = true
	}
}

// Logged adds debug logging to the handler.
func Logged() Option {
	return func(c *config) {
		c.logged = true
	}
}

// Lane puts a buffered handler on a named queue. Every handler registered on
// the same lane runs on one goroutine, in dispatch order. The buffer size of
// the first registration wins. Without Lane, each kind gets its own queue.
func Lane(name string) Option {
	return func(c *config) {
		c.lane = name
	}
}

type job struct {
	event   Event
	handler HandlerFunc
}

type lane struct {
	queue chan job
}

// Dispatcher routes events to registered handlers.
type Dispatcher struct {
	handlers map[command.Kind]HandlerFunc
	logger   Logger

	// OTEL metrics
	laneDepth metric.Int64ObservableGauge
	processed metric.Int64Counter
	dropped   metric.Int64Counter

	// Track lanes for gauge callback
	mu     sync.RWMutex
	lanes  map[string]*lane
	closed bool
	wg     sync.WaitGroup
}

// New creates a new Dispatcher with the given logger.
// Uses the global OTel meter for metrics (no-op if not configured).
func New(logger Logger) (*Dispatcher, error) {
	d := &Dispatcher{
		handlers: make(map[command.Kind]HandlerFunc),
		lanes:    make(map[string]*lane),
		logger:   logger,
	}

	m := otel.Meter(instrumentationName, metric.WithInstrumentationAttributes(attribute.String("component", "dispatcher")))

	var err error

	d.laneDepth, err = m.Int64ObservableGauge(
		"dispatcher.lane.depth",
		metric.WithDescription("Current number of commands waiting in a lane"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating lane depth gauge: %w", err)
	}

	_, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			d.mu.RLock()
			defer d.mu.RUnlock()
			for name, l := range d.lanes {
				o.ObserveInt64(d.laneDepth, int64(len(l.queue)),
					metric.WithAttributes(attribute.String("lane", name)))
			}
			return nil
		},
		d.laneDepth,
	)
	if err != nil {
		return nil, fmt.Errorf("registering lane callback: %w", err)
	}

	d.processed, err = m.Int64Counter(
		"dispatcher.commands.processed",
		metric.WithDescription("Total commands processed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating processed counter: %w", err)
	}

	d.dropped, err = m.Int64Counter(
		"dispatcher.commands.dropped",
		metric.WithDescription("Total commands dropped due to full queue"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dropped counter: %w", err)
	}

	return d, nil
}

// Register adds a handler for the given command kind with optional configuration.
func (d *Dispatcher) Register(kind command.Kind, h HandlerFunc, opts ...Option) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	handler := h

	if cfg.bufferSize > 0 {
		name := cfg.lane
		if name == "" {
			name = string(kind)
		}
		handler = d.withLane(name, cfg.bufferSize, cfg.blocking, handler)
	}

	if cfg.logged {
		handler = d.withLogging(kind, handler)
	}

	d.handlers[kind] = handler
}

// Dispatch routes an event to its registered handler.
func (d *Dispatcher) Dispatch(e Event) (any, error) {
	if e.Command == nil {
		return nil, fmt.Errorf("%w: nil command", ErrUnknownCommand)
	}
	h, ok := d.handlers[e.Kind()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, e.Kind())
	}
	if e.Received.IsZero() {
		e.Received = time.Now()
	}
	return h(e)
}

// HasHandler returns true if a handler is registered for the kind.
func (d *Dispatcher) HasHandler(kind command.Kind) bool {
	_, ok := d.handlers[kind]
	return ok
}

// Depth reports how many commands are waiting across all lanes.
func (d *Dispatcher) Depth() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	n := 0
	for _, l := range d.lanes {
		n += len(l.queue)
	}
	return n
}

// Close stops accepting buffered work and waits for every lane to drain.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, l := range d.lanes {
		close(l.queue)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) lane(name string, size int) *lane {
	d.mu.Lock()
	defer d.mu.Unlock()

	if l, ok := d.lanes[name]; ok {
		return l
	}
	l := &lane{queue: make(chan job, size)}
	d.lanes[name] = l

	laneAttr := attribute.String("lane", name)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for j := range l.queue {
			if _, err := j.handler(j.event); err != nil {
				d.logger.Debug("lane handler failed", "lane", name, "kind", j.event.Kind(), "error", err)
			}
			d.processed.Add(context.Background(), 1, metric.WithAttributes(
				laneAttr, attribute.String("kind", string(j.event.Kind()))))
		}
	}()
	return l
}

func (d *Dispatcher) withLane(name string, size int, blocking bool, h HandlerFunc) HandlerFunc {
	l := d.lane(name, size)

	return func(e Event) (any, error) {
		d.mu.RLock()
		defer d.mu.RUnlock()
		if d.closed {
			return nil, ErrClosed
		}

		j := job{event: e, handler: h}
		if blocking {
			l.queue <- j
			return "queued", nil
		}

		select {
		case l.queue <- j:
			return "queued", nil
		default:
			d.dropped.Add(context.Background(), 1, metric.WithAttributes(
				attribute.String("lane", name), attribute.String("kind", string(e.Kind()))))
			return nil, fmt.Errorf("%w: %s", ErrQueueFull, name)
		}
	}
}

func (d *Dispatcher) withLogging(kind command.Kind, h HandlerFunc) HandlerFunc {
	return func(e Event) (any, error) {
		start := time.Now()
		d.logger.Debug("handling command", "kind", kind, "origin", e.Command.Envelope().Origin)

		result, err := h(e)

		if err != nil {
			d.logger.Error("command failed", "kind", kind, "duration", time.Since(start), "error", err)
		} else {
			d.logger.Debug("command complete", "kind", kind, "duration", time.Since(start))
		}

		return result, err
	}
}
