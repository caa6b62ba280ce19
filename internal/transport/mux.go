package transport

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/mechgrid/turnengine/pkg/command"
)

// Mux fans commands out to every attached transport and decodes whatever they
// receive into command handlers. Each transport is subscribed exactly once,
// however many times it is attached.
type Mux struct {
	mu         sync.RWMutex
	transports []attached
	handlers   []command.Handler
	onError    command.ErrorHandler

	log *slog.Logger
}

type attached struct {
	t     Transport
	unsub func()
}

// NewMux creates an empty mux.
func NewMux(logger *slog.Logger) *Mux {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Mux{log: logger}
	m.onError = func(raw []byte, err error) {
		m.log.Error("dropping undecodable message", "error", err, "size", len(raw))
	}
	return m
}

// Attach subscribes t and includes it in every later publish.
func (m *Mux) Attach(t Transport) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.transports {
		if a.t == t {
			return
		}
	}
	m.transports = append(m.transports, attached{t: t, unsub: t.Subscribe(m.receive)})
}

// Detach unsubscribes t. It does not close it.
func (m *Mux) Detach(t Transport) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, a := range m.transports {
		if a.t == t {
			a.unsub()
			m.transports = append(m.transports[:i], m.transports[i+1:]...)
			return
		}
	}
}

// Len reports how many transports are attached.
func (m *Mux) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.transports)
}

// OnCommand registers h for every decoded command.
func (m *Mux) OnCommand(h command.Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, h)
}

// OnError replaces the handler for messages that fail to decode.
func (m *Mux) OnError(h command.ErrorHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onError = h
}

// Send encodes cmd and publishes it on every transport. A failing transport
// does not stop the others; their errors are joined.
func (m *Mux) Send(cmd command.Command) error {
	data, err := command.Encode(cmd)
	if err != nil {
		return err
	}

	m.mu.RLock()
	ts := make([]Transport, len(m.transports))
	for i, a := range m.transports {
		ts[i] = a.t
	}
	m.mu.RUnlock()

	var errs []error
	for _, t := range ts {
		if err := t.Publish(data); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Publish is Send for callers that cannot act on an error; failures are logged.
func (m *Mux) Publish(cmd command.Command) {
	if err := m.Send(cmd); err != nil {
		m.log.Warn("publish failed", "kind", cmd.Kind(), "error", err)
	}
}

// Close detaches and closes every transport.
func (m *Mux) Close() error {
	m.mu.Lock()
	ts := m.transports
	m.transports = nil
	m.mu.Unlock()

	var errs []error
	for _, a := range ts {
		a.unsub()
		if err := a.t.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Mux) receive(data []byte) {
	m.mu.RLock()
	handlers := append([]command.Handler(nil), m.handlers...)
	onError := m.onError
	m.mu.RUnlock()

	command.DecodeTo(data, func(c command.Command) {
		for _, h := range handlers {
			h(c)
		}
	}, onError)
}
