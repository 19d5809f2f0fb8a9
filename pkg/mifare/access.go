package mifare

import (
	"fmt"

	"github.com/gregLibert/mifare-pcsc/pkg/bits"
)

// ACCESS CONDITIONS:
// The 4 bytes at offset 6 of a sector trailer hold three 4-bit values C1, C2, C3
// (bit n of each belongs to block n of the sector) stored twice, once inverted:
//
//	byte 6: ^C2 | ^C1
//	byte 7:  C1 | ^C3
//	byte 8:  C3 |  C2
//	byte 9:  user data (general purpose byte)
//
// The inverted copies let the card detect a corrupted trailer. They are written
// by Pack and never read back by UnpackAccessCondition.

// AccessConditionLen is the encoded size of an AccessCondition.
const AccessConditionLen = 4

// DefaultTerminator is the general purpose byte written when none is chosen.
const DefaultTerminator = 0x69

// AccessCondition is the access bit triple of one sector plus its user byte.
type AccessCondition struct {
	C1, C2, C3 uint8
	User       byte
}

// TransportAccess is the access configuration of blank cards: key A and key B
// control the data blocks, key A cannot be read back, key A writes the trailer.
var TransportAccess = AccessCondition{C1: 0x0, C2: 0x0, C3: 0x8, User: DefaultTerminator}

// NewAccessCondition builds an AccessCondition with the default user byte.
func NewAccessCondition(c1, c2, c3 uint8) AccessCondition {
	return AccessCondition{C1: c1, C2: c2, C3: c3, User: DefaultTerminator}
}

// Validate checks that C1, C2 and C3 fit in 4 bits.
func (a AccessCondition) Validate() error {
	for _, f := range []struct {
		name string
		v    uint8
	}{{"C1", a.C1}, {"C2", a.C2}, {"C3", a.C3}} {
		if f.v > 0x0F {
			return rangeError(f.name, int(f.v), 0, 0x0F)
		}
	}
	return nil
}

// Pack encodes the access condition into its 4-byte trailer form.
func (a AccessCondition) Pack() ([]byte, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return []byte{
		bits.Nibbles(bits.Complement(a.C2), bits.Complement(a.C1)),
		bits.Nibbles(a.C1, bits.Complement(a.C3)),
		bits.Nibbles(a.C3, a.C2),
		a.User,
	}, nil
}

// UnpackAccessCondition decodes the 4-byte trailer form.
func UnpackAccessCondition(data []byte) (AccessCondition, error) {
	if len(data) != AccessConditionLen {
		return AccessCondition{}, lengthError("access conditions", len(data), AccessConditionLen)
	}
	return AccessCondition{
		C1:   bits.HighNibble(data[1]),
		C2:   bits.LowNibble(data[2]),
		C3:   bits.HighNibble(data[2]),
		User: data[3],
	}, nil
}

// BlockBits returns the (C1, C2, C3) bits governing block n (0-3) of the sector.
func (a AccessCondition) BlockBits(n int) (c1, c2, c3 uint8, err error) {
	if n < 0 || n >= BlocksPerSector {
		return 0, 0, 0, rangeError("block index", n, 0, BlocksPerSector-1)
	}
	return (a.C1 >> n) & 1, (a.C2 >> n) & 1, (a.C3 >> n) & 1, nil
}

func (a AccessCondition) String() string {
	return fmt.Sprintf("C1=%X C2=%X C3=%X user=%02X", a.C1, a.C2, a.C3, a.User)
}
