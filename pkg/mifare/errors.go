package mifare

import (
	"errors"
	"fmt"

	"github.com/gregLibert/mifare-pcsc/pkg/iso7816"
)

var (
	// ErrInvalidArgument is the root of every validation failure.
	ErrInvalidArgument = errors.New("mifare: invalid argument")
	// ErrRange reports a numeric parameter outside its allowed range.
	ErrRange = fmt.Errorf("%w: out of range", ErrInvalidArgument)
	// ErrLength reports a buffer or key of the wrong size.
	ErrLength = fmt.Errorf("%w: wrong length", ErrInvalidArgument)

	// ErrOperationFailed is status 6300.
	ErrOperationFailed = errors.New("mifare: operation failed")
	// ErrProtocolViolation is an unrecognized status word or a truncated response.
	ErrProtocolViolation = errors.New("mifare: protocol violation")

	// ErrCardDisconnected is returned by any operation on a Card after it was
	// disconnected or after its card left the reader.
	ErrCardDisconnected = errors.New("mifare: card disconnected")
	// ErrNoMatchingKey is returned by TryKeys when no candidate authenticates.
	ErrNoMatchingKey = errors.New("mifare: no matching key")
)

// TransportError wraps a failure of the reader link.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("mifare: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// StatusError carries the exchange that ended with a non-success status word.
// It matches ErrOperationFailed for 6300 and ErrProtocolViolation otherwise.
type StatusError struct {
	iso7816.Transaction
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("mifare: %s: %s", e.kind(), e.Transaction.String())
}

// Status returns the status word of the failed exchange.
func (e *StatusError) Status() iso7816.StatusWord {
	if e.Response == nil {
		return 0
	}
	return e.Response.Status
}

func (e *StatusError) Is(target error) bool {
	return target == e.kind()
}

func (e *StatusError) kind() error {
	if e.Outcome() == iso7816.Failed {
		return ErrOperationFailed
	}
	return ErrProtocolViolation
}

func rangeError(name string, v, lo, hi int) error {
	return fmt.Errorf("%s %d not in [%d, %d]: %w", name, v, lo, hi, ErrRange)
}

func lengthError(name string, got int, want ...int) error {
	return fmt.Errorf("%s length %d, want one of %v: %w", name, got, want, ErrLength)
}
