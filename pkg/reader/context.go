package reader

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/gregLibert/mifare-pcsc/pkg/mifare"
)

// ErrClosed is returned by WaitForCard once the Context is closed.
var ErrClosed = errors.New("reader: context closed")

// CARD DELIVERY:
// Every card that connects on any reader is handed to exactly one caller
// blocked in WaitForCard, oldest waiter first. A card that connects while
// nobody waits is not kept for a later caller: it stays connected on its
// reader until removed, but WaitForCard never returns it.

// Context tracks every reader a Transport discovers and merges their cards
// into one stream. Create it with Open and stop it with Close.
type Context struct {
	transport Transport
	opts      []Option
	logger    *log.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	done   chan struct{}

	found    chan Handle
	arrivals chan *mifare.Card
	ended    chan *Reader

	mu      sync.Mutex
	readers map[string]*Reader
	waiters []chan *mifare.Card
	closed  bool
	err     error
}

// Open starts watching t. The options apply to the Context and to every
// Reader it creates. The transport itself is not released by Close.
func Open(t Transport, opts ...Option) *Context {
	cfg := newConfig(opts)
	ctx, cancel := context.WithCancel(context.Background())

	c := &Context{
		transport: t,
		opts:      opts,
		logger:    cfg.logger,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
		found:     make(chan Handle),
		arrivals:  make(chan *mifare.Card),
		ended:     make(chan *Reader),
		readers:   make(map[string]*Reader),
	}

	c.wg.Add(2)
	go c.watch()
	go c.loop()
	return c
}

func (c *Context) watch() {
	defer c.wg.Done()
	if err := c.transport.Watch(c.ctx, c.found); err != nil && c.ctx.Err() == nil {
		c.logger.Printf("PCSC error: %v", err)
		c.fail(err)
	}
}

// loop owns the reader mapping and the card dispatch.
func (c *Context) loop() {
	defer c.wg.Done()
	defer c.shutdown()

	for {
		select {
		case <-c.ctx.Done():
			return
		case h := <-c.found:
			c.addReader(h)
		case r := <-c.ended:
			c.removeReader(r)
		case card := <-c.arrivals:
			if !c.dispatch(card) {
				c.logger.Printf("card arrived with no waiter, not delivered")
			}
		}
	}
}

func (c *Context) addReader(h Handle) {
	name := h.Name()

	c.mu.Lock()
	if _, exists := c.readers[name]; exists {
		c.mu.Unlock()
		c.logger.Printf("Reader(%s) already known, ignored", name)
		return
	}
	r := NewReader(h, c.opts...)
	c.readers[name] = r
	c.mu.Unlock()

	c.logger.Printf("New Reader(%s)", name)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := r.Run(c.ctx, c.arrivals); err != nil {
			return
		}
		select {
		case c.ended <- r:
		case <-c.ctx.Done():
		}
	}()
}

func (c *Context) removeReader(r *Reader) {
	c.mu.Lock()
	if c.readers[r.Name()] == r {
		delete(c.readers, r.Name())
	}
	c.mu.Unlock()
	c.logger.Printf("Remove Reader(%s)", r.Name())
}

// dispatch hands card to the oldest waiter, if any.
func (c *Context) dispatch(card *mifare.Card) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.waiters) == 0 {
		return false
	}
	w := c.waiters[0]
	c.waiters = c.waiters[1:]
	w <- card
	return true
}

// WaitForCard blocks until a card connects on any reader, ctx is done or the
// Context closes.
func (c *Context) WaitForCard(ctx context.Context) (*mifare.Card, error) {
	w := make(chan *mifare.Card, 1)

	c.mu.Lock()
	if c.closed {
		err := c.closedErr()
		c.mu.Unlock()
		return nil, err
	}
	c.waiters = append(c.waiters, w)
	c.mu.Unlock()

	select {
	case card := <-w:
		return card, nil
	case <-ctx.Done():
		return c.abandon(w, ctx.Err())
	case <-c.done:
		return c.abandon(w, nil)
	}
}

// abandon withdraws waiter w. A card dispatched to w in the meantime is
// still returned so that it is not lost.
func (c *Context) abandon(w chan *mifare.Card, cause error) (*mifare.Card, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, other := range c.waiters {
		if other == w {
			c.waiters = append(c.waiters[:i], c.waiters[i+1:]...)
			break
		}
	}

	select {
	case card := <-w:
		return card, nil
	default:
	}

	if cause == nil {
		cause = c.closedErr()
	}
	return nil, cause
}

// Readers returns the names of the readers currently attached, sorted.
func (c *Context) Readers() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	names := make([]string, 0, len(c.readers))
	for name := range c.readers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Reader returns the attached reader called name.
func (c *Context) Reader(name string) (*Reader, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.readers[name]
	return r, ok
}

// Done is closed once the Context has stopped.
func (c *Context) Done() <-chan struct{} {
	return c.done
}

// Err returns the transport error that stopped the Context, if any.
func (c *Context) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Close stops discovery and every reader, fails pending waiters with
// ErrClosed and waits for all goroutines. It returns the transport error that
// stopped the Context earlier, if any.
func (c *Context) Close() error {
	c.cancel()
	c.wg.Wait()
	return c.Err()
}

func (c *Context) fail(err error) {
	c.mu.Lock()
	if c.err == nil {
		c.err = err
	}
	c.mu.Unlock()
	c.cancel()
}

func (c *Context) shutdown() {
	c.mu.Lock()
	c.closed = true
	c.readers = make(map[string]*Reader)
	c.mu.Unlock()
	close(c.done)
}

// closedErr must be called with c.mu held.
func (c *Context) closedErr() error {
	if c.err != nil {
		return fmt.Errorf("%w: %w", ErrClosed, c.err)
	}
	return ErrClosed
}
