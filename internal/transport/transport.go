// Package transport moves encoded commands between nodes. A Transport only
// knows how to publish bytes and deliver the bytes it receives; decoding and
// routing happen in Mux.
package transport

//go:generate go tool mockgen -destination=./mocks/transport_mock.go -package=mocks . Transport

import "errors"

var (
	ErrClosed     = errors.New("transport closed")
	ErrBufferFull = errors.New("send buffer full")
)

// Receiver is called with every message a transport receives.
type Receiver func(data []byte)

// Transport is a pub/sub channel for encoded commands.
type Transport interface {
	// Publish sends data to every peer on the transport.
	Publish(data []byte) error
	// Subscribe registers fn for incoming messages. The returned func removes
	// the subscription.
	Subscribe(fn Receiver) (unsubscribe func())
	Close() error
}

// subscribers is the receiver list shared by the transports in this package.
type subscribers struct {
	next uint64
	fns  map[uint64]Receiver
}

func (s *subscribers) add(fn Receiver) uint64 {
	if s.fns == nil {
		s.fns = make(map[uint64]Receiver)
	}
	s.next++
	s.fns[s.next] = fn
	return s.next
}

func (s *subscribers) remove(id uint64) {
	delete(s.fns, id)
}

// snapshot returns the receivers in subscription order.
func (s *subscribers) snapshot() []Receiver {
	out := make([]Receiver, 0, len(s.fns))
	for id := uint64(1); id <= s.next; id++ {
		if fn, ok := s.fns[id]; ok {
			out = append(out, fn)
		}
	}
	return out
}
