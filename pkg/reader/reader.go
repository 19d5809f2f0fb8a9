package reader

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/gregLibert/mifare-pcsc/pkg/iso7816"
	"github.com/gregLibert/mifare-pcsc/pkg/mifare"
)

// READER LIFECYCLE:
//
//	          present bit on / settle, connect ok
//	  Idle  ------------------------------------->  Connected
//	        <-------------------------------------
//	          present bit off / disconnect (LeaveCard), errors logged
//
// A failed connect leaves the reader Idle until the next presence change.
// The Card handed out on connect is invalidated when the reader leaves
// Connected, whatever the outcome of the disconnect.

// State is the lifecycle state of a Reader.
type State int32

const (
	Idle State = iota
	Connected
)

func (s State) String() string {
	if s == Connected {
		return "Connected"
	}
	return "Idle"
}

// Reader turns the status events of one Handle into connect and disconnect
// calls and hands out a *mifare.Card for every card that connects.
//
// Reader implements mifare.Link: Cards talk to the card through it.
type Reader struct {
	handle Handle
	logger *log.Logger
	settle time.Duration

	state atomic.Int32

	// Owned by the Run goroutine.
	last StateFlag
	card *mifare.Card
}

// NewReader wraps h. Call Run to start processing its events.
func NewReader(h Handle, opts ...Option) *Reader {
	cfg := newConfig(opts)
	return &Reader{
		handle: h,
		logger: cfg.logger,
		settle: cfg.settleDelay,
	}
}

// Name returns the reader name reported by the transport.
func (r *Reader) Name() string {
	return r.handle.Name()
}

// State returns the current lifecycle state.
func (r *Reader) State() State {
	return State(r.state.Load())
}

func (r *Reader) setState(s State) {
	r.state.Store(int32(s))
}

// Run consumes the handle's events in order until the reader is unplugged
// (returns nil) or ctx is done (returns ctx.Err()). Each connected card is
// sent on cards. A card still connected when Run returns is released.
func (r *Reader) Run(ctx context.Context, cards chan<- *mifare.Card) error {
	defer r.release()

	events := r.handle.Events()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				r.logf("removed")
				return nil
			}
			if err := r.process(ctx, ev, cards); err != nil {
				return err
			}
		}
	}
}

// process applies one status event. It only returns ctx errors.
func (r *Reader) process(ctx context.Context, ev Event, cards chan<- *mifare.Card) error {
	if ev.Err != nil {
		r.logf("error: %v", ev.Err)
		return nil
	}

	state := ev.State.Normalize()
	changes := r.last ^ state
	r.last = state

	if changes&StatePresent == 0 {
		return nil
	}

	if state&StatePresent != 0 {
		return r.cardInserted(ctx, cards)
	}
	r.cardRemoved()
	return nil
}

func (r *Reader) cardInserted(ctx context.Context, cards chan<- *mifare.Card) error {
	if r.State() == Connected {
		return nil
	}
	r.logf("card inserted")

	if err := sleep(ctx, r.settle); err != nil {
		return err
	}

	protocol, err := r.handle.Connect(ShareShared)
	if err != nil {
		r.logf("error on connect: %v", err)
		return nil
	}

	atr, err := r.handle.ATR()
	if err != nil {
		r.logf("error reading ATR: %v", err)
	}

	r.card = mifare.NewCard(r, protocol, mifare.WithATR(atr))
	r.setState(Connected)
	r.logf("card connected (protocol %d, ATR %s)", protocol, iso7816.Format(atr))

	select {
	case cards <- r.card:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Reader) cardRemoved() {
	r.logf("card removed")
	if r.State() != Connected {
		return
	}
	if r.detach() {
		r.logf("card disconnected")
	}
}

// detach invalidates the current card and disconnects, best effort.
func (r *Reader) detach() bool {
	if r.card != nil {
		r.card.Invalidate()
		r.card = nil
	}
	defer r.setState(Idle)

	if err := r.handle.Disconnect(LeaveCard); err != nil {
		r.logf("error on disconnect: %v", err)
		return false
	}
	return true
}

func (r *Reader) release() {
	if r.State() == Connected {
		r.detach()
	}
}

// Transmit implements mifare.Link.
func (r *Reader) Transmit(frame []byte, maxResponse int, protocol mifare.Protocol) ([]byte, error) {
	return r.handle.Transmit(frame, maxResponse, protocol)
}

// Disconnect implements mifare.Link. It leaves the card powered; the reader
// stays Connected until the card leaves the field.
func (r *Reader) Disconnect() error {
	return r.handle.Disconnect(LeaveCard)
}

func (r *Reader) logf(format string, args ...any) {
	r.logger.Printf("Reader(%s) "+format, append([]any{r.Name()}, args...)...)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
