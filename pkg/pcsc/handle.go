package pcsc

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ebfe/scard"

	"github.com/gregLibert/mifare-pcsc/pkg/mifare"
	"github.com/gregLibert/mifare-pcsc/pkg/reader"
)

var errNotConnected = errors.New("pcsc: no card connected")

// handle is one PC/SC reader. Its events are written by the watcher only;
// the connection is used by the reader.Reader and its Cards.
type handle struct {
	ctx    scardContext
	name   string
	events chan reader.Event

	// Owned by the watcher.
	current scard.StateFlag
	closed  bool

	mu   sync.Mutex
	card *scard.Card
}

func newHandle(ctx scardContext, name string) *handle {
	return &handle{
		ctx:     ctx,
		name:    name,
		events:  make(chan reader.Event, eventBuffer),
		current: scard.StateUnaware,
	}
}

func (h *handle) Name() string {
	return h.name
}

func (h *handle) Events() <-chan reader.Event {
	return h.events
}

func (h *handle) post(ctx context.Context, ev reader.Event) error {
	select {
	case h.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *handle) detach() {
	if !h.closed {
		h.closed = true
		close(h.events)
	}
}

// Connect asks for T=0 or T=1 explicitly; some readers reject ProtocolAny.
func (h *handle) Connect(mode reader.ShareMode) (mifare.Protocol, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	card, err := h.ctx.Connect(h.name, scard.ShareMode(mode), scard.ProtocolT0|scard.ProtocolT1)
	if err != nil {
		return 0, err
	}

	proto := card.ActiveProtocol()
	if proto != scard.ProtocolT0 && proto != scard.ProtocolT1 {
		_ = card.Disconnect(scard.LeaveCard)
		return 0, fmt.Errorf("unsupported card protocol: %d", proto)
	}

	h.card = card
	return mifare.Protocol(proto), nil
}

func (h *handle) ATR() ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.card == nil {
		return nil, errNotConnected
	}
	status, err := h.card.Status()
	if err != nil {
		return nil, err
	}
	return status.Atr, nil
}

func (h *handle) Disconnect(d reader.Disposition) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.card == nil {
		return nil
	}
	err := h.card.Disconnect(scard.Disposition(d))
	h.card = nil
	return err
}

// Transmit sends frame on the connected card. scard sizes the receive buffer
// itself, so maxResponse is enforced on the result.
func (h *handle) Transmit(frame []byte, maxResponse int, protocol mifare.Protocol) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.card == nil {
		return nil, errNotConnected
	}
	if active := mifare.Protocol(h.card.ActiveProtocol()); active != protocol {
		return nil, fmt.Errorf("pcsc: protocol %d requested, card is on %d", protocol, active)
	}

	rsp, err := h.card.Transmit(frame)
	if err != nil {
		return nil, err
	}
	if len(rsp) > maxResponse {
		return nil, fmt.Errorf("pcsc: response of %d bytes exceeds %d", len(rsp), maxResponse)
	}
	return rsp, nil
}
