package iso7816

import (
	"fmt"

	"github.com/gregLibert/mifare-pcsc/pkg/bits"
)

// Class Byte (CLA) according to ISO/IEC 7816-4.
//
// Bit 8 set marks a proprietary class. CLA 0xFF is invalid for a card but
// PC/SC Part 3 claims it for reader pseudo-APDUs (GET DATA, LOAD KEYS,
// GENERAL AUTHENTICATE, READ/UPDATE BINARY on storage cards), which the reader
// answers itself.

// PCSCClassByte is the CLA of PC/SC reader pseudo-APDUs.
const PCSCClassByte = 0xFF

// Class is the CLA byte of a command.
type Class struct {
	Raw byte
}

// ReaderClass returns the proprietary class addressing the reader itself.
func ReaderClass() Class {
	return Class{Raw: PCSCClassByte}
}

// IsProprietary reports whether bit 8 of the CLA is set.
func (c Class) IsProprietary() bool {
	return bits.IsSet(c.Raw, 8)
}

// IsReaderClass reports whether c addresses the PC/SC reader (CLA 0xFF).
func (c Class) IsReaderClass() bool {
	return c.Raw == PCSCClassByte
}

// Encode returns the CLA byte.
func (c Class) Encode() byte {
	return c.Raw
}

// Verbose returns a human-readable description of the CLA byte.
func (c Class) Verbose() string {
	switch {
	case c.IsReaderClass():
		return "Class: PC/SC Reader (0xFF)"
	case c.IsProprietary():
		return fmt.Sprintf("Class: Proprietary (0x%02X)", c.Raw)
	default:
		return fmt.Sprintf("Class: Interindustry (0x%02X)", c.Raw)
	}
}
