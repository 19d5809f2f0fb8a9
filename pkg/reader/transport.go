package reader

import (
	"context"
	"fmt"

	"github.com/gregLibert/mifare-pcsc/pkg/mifare"
)

// StateFlag is a reader status bit set. Values match PC/SC SCARD_STATE_*.
type StateFlag uint32

const (
	StateUnaware     StateFlag = 0x0000
	StateIgnore      StateFlag = 0x0001
	StateChanged     StateFlag = 0x0002
	StateUnknown     StateFlag = 0x0004
	StateUnavailable StateFlag = 0x0008
	StateEmpty       StateFlag = 0x0010
	StatePresent     StateFlag = 0x0020
	StateAtrMatch    StateFlag = 0x0040
	StateExclusive   StateFlag = 0x0080
	StateInUse       StateFlag = 0x0100
	StateMute        StateFlag = 0x0200
	StateUnpowered   StateFlag = 0x0400

	// stateMask drops the event counter PC/SC keeps in the upper 16 bits.
	stateMask StateFlag = 0xFFFF
)

// Normalize strips the event counter and the CHANGED flag, leaving the bits
// that describe the reader itself.
func (s StateFlag) Normalize() StateFlag {
	return s & stateMask &^ StateChanged
}

// Has reports whether every bit of f is set in s.
func (s StateFlag) Has(f StateFlag) bool {
	return s&f == f
}

func (s StateFlag) String() string {
	return fmt.Sprintf("0x%04X", uint32(s))
}

// ShareMode is the PC/SC share mode of a connection.
type ShareMode uint32

const (
	ShareExclusive ShareMode = 1
	ShareShared    ShareMode = 2
	ShareDirect    ShareMode = 3
)

// Disposition tells the reader what to do with the card on disconnect.
type Disposition uint32

const (
	LeaveCard   Disposition = 0
	ResetCard   Disposition = 1
	UnpowerCard Disposition = 2
	EjectCard   Disposition = 3
)

// Event is one status notification for a reader. A non-nil Err reports a
// reader-level error; State is then meaningless.
type Event struct {
	State StateFlag
	Err   error
}

// Handle is the transport side of one physical reader.
type Handle interface {
	Name() string
	// Events delivers status changes in order. It is closed when the reader
	// is unplugged.
	Events() <-chan Event
	Connect(mode ShareMode) (mifare.Protocol, error)
	// ATR returns the Answer To Reset of the connected card.
	ATR() ([]byte, error)
	Disconnect(d Disposition) error
	Transmit(frame []byte, maxResponse int, protocol mifare.Protocol) ([]byte, error)
}

// Transport discovers readers.
type Transport interface {
	// Watch sends every newly attached reader on found and returns when ctx
	// is done (nil) or when discovery fails for good (the error).
	Watch(ctx context.Context, found chan<- Handle) error
}
