// Package pcsc connects the reader package to the system PC/SC service
// (pcsc-lite, WinSCard) through github.com/ebfe/scard.
package pcsc

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/ebfe/scard"

	"github.com/gregLibert/mifare-pcsc/pkg/reader"
)

// PnPNotification is the pseudo reader whose state changes when readers are
// attached or removed.
const PnPNotification = `\\?PnP?\Notification`

// eventBuffer is the number of status events queued per reader.
const eventBuffer = 8

var errStateUnknown = errors.New("pcsc: reader state unknown")

// scardContext is the part of *scard.Context used by Transport and its
// handles.
type scardContext interface {
	ListReaders() ([]string, error)
	GetStatusChange(rs []scard.ReaderState, timeout time.Duration) error
	Cancel() error
	Connect(reader string, mode scard.ShareMode, proto scard.Protocol) (*scard.Card, error)
	Release() error
}

// Transport discovers readers and reports their status through one PC/SC
// context. It implements reader.Transport.
type Transport struct {
	ctx    scardContext
	logger *log.Logger
	poll   time.Duration
}

// Open establishes a PC/SC context. Call Release when done.
func Open(opts ...Option) (*Transport, error) {
	ctx, err := scard.EstablishContext()
	if err != nil {
		return nil, fmt.Errorf("error establishing context: %w", err)
	}

	t := &Transport{
		ctx:    ctx,
		logger: log.Default(),
		poll:   DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Release frees the PC/SC context. Watch must have returned.
func (t *Transport) Release() error {
	return t.ctx.Release()
}

// Watch implements reader.Transport. It lists readers, waits for status
// changes and forwards them until ctx is done. Every handle's event channel is
// closed when its reader disappears or Watch returns.
func (t *Transport) Watch(ctx context.Context, found chan<- reader.Handle) error {
	stop := context.AfterFunc(ctx, func() {
		if err := t.ctx.Cancel(); err != nil {
			t.logger.Printf("PCSC cancel: %v", err)
		}
	})
	defer stop()

	w := &watcher{
		t:       t,
		handles: make(map[string]*handle),
		pnp:     true,
	}
	defer w.closeAll()

	for ctx.Err() == nil {
		if err := w.refresh(ctx, found); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		states := w.states()
		if len(states) == 0 {
			// scard cannot wait on an empty set.
			if err := pause(ctx, t.poll); err != nil {
				return nil
			}
			continue
		}

		err := t.ctx.GetStatusChange(states, t.poll)
		switch {
		case err == nil:
		case errors.Is(err, scard.ErrTimeout):
			continue
		case errors.Is(err, scard.ErrCancelled):
			if ctx.Err() != nil {
				return nil
			}
			continue
		case errors.Is(err, scard.ErrUnknownReader), errors.Is(err, scard.ErrReaderUnavailable):
			if w.pnp {
				t.logger.Printf("PCSC PnP notification rejected (%v), polling every %s", err, t.poll)
				w.pnp = false
				continue
			}
			// A reader left between listing and waiting; the next refresh
			// prunes it.
			if err := pause(ctx, t.poll); err != nil {
				return nil
			}
			continue
		default:
			return fmt.Errorf("error waiting for status change: %w", err)
		}

		if err := w.dispatch(ctx, states); err != nil {
			return nil
		}
	}
	return nil
}

func pause(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type watcher struct {
	t       *Transport
	handles map[string]*handle
	pnp     bool
	// Last state reported for the PnP pseudo reader.
	pnpState scard.StateFlag
}

// refresh reconciles the handle set with the current reader list.
func (w *watcher) refresh(ctx context.Context, found chan<- reader.Handle) error {
	names, err := w.t.ctx.ListReaders()
	if err != nil && !errors.Is(err, scard.ErrNoReadersAvailable) {
		return fmt.Errorf("error listing readers: %w", err)
	}

	added, removed := diff(w.names(), names)
	for _, name := range removed {
		w.handles[name].detach()
		delete(w.handles, name)
	}
	for _, name := range added {
		h := newHandle(w.t.ctx, name)
		w.handles[name] = h
		select {
		case found <- h:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (w *watcher) names() []string {
	names := make([]string, 0, len(w.handles))
	for name := range w.handles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// states builds the wait set: every known reader, then the PnP pseudo reader.
func (w *watcher) states() []scard.ReaderState {
	names := w.names()
	states := make([]scard.ReaderState, 0, len(names)+1)
	for _, name := range names {
		states = append(states, scard.ReaderState{
			Reader:       name,
			CurrentState: w.handles[name].current,
		})
	}
	if w.pnp {
		states = append(states, scard.ReaderState{
			Reader:       PnPNotification,
			CurrentState: w.pnpState,
		})
	}
	return states
}

// dispatch forwards changed reader states to their handles. It fails only
// when ctx is done while an event is queued.
func (w *watcher) dispatch(ctx context.Context, states []scard.ReaderState) error {
	for _, rs := range states {
		if rs.Reader == PnPNotification {
			if rs.EventState&scard.StateUnknown != 0 {
				w.t.logger.Printf("PCSC PnP notification not supported, polling every %s", w.t.poll)
				w.pnp = false
			}
			w.pnpState = rs.EventState &^ scard.StateChanged
			continue
		}

		h, ok := w.handles[rs.Reader]
		if !ok || rs.EventState&scard.StateChanged == 0 {
			continue
		}
		h.current = rs.EventState &^ scard.StateChanged

		ev := reader.Event{State: reader.StateFlag(rs.EventState)}
		if rs.EventState&scard.StateUnknown != 0 {
			ev = reader.Event{Err: errStateUnknown}
		}
		if err := h.post(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}

func (w *watcher) closeAll() {
	for name, h := range w.handles {
		h.detach()
		delete(w.handles, name)
	}
}

// diff returns the names present only in listed (added) and only in known
// (removed), each sorted.
func diff(known, listed []string) (added, removed []string) {
	seen := make(map[string]bool, len(listed))
	for _, name := range listed {
		seen[name] = true
	}
	for _, name := range known {
		if !seen[name] {
			removed = append(removed, name)
		}
		delete(seen, name)
	}
	for _, name := range listed {
		if seen[name] {
			added = append(added, name)
			delete(seen, name)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	return added, removed
}
