package iso7816

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gregLibert/mifare-pcsc/pkg/bits"
)

// Answer To Reset layout according to ISO/IEC 7816-3:
//
//	TS  T0  {TAi TBi TCi TDi}...  T1..TK  [TCK]
//
// 1. T0: the high nibble flags which of TA1..TD1 follow, the low nibble is
//    K, the number of historical bytes.
// 2. TDi: same high nibble rule for the next interface group, the low nibble
//    is a protocol type T offered by the card.
// 3. TCK: present as soon as any protocol other than T=0 is offered. The XOR
//    of T0 through TCK is zero.
//
// Contactless readers synthesize an ATR for storage cards; its historical
// bytes identify the card (PC/SC Part 3).

// ErrMalformedATR is returned when an ATR does not follow ISO/IEC 7816-3.
var ErrMalformedATR = errors.New("iso7816: malformed ATR")

// ATR is a parsed Answer To Reset.
type ATR struct {
	Raw        []byte
	Protocols  []byte // T values listed in TD1, TD2...
	Historical []byte
	TCK        *byte
}

// ParseATR splits raw into interface bytes, historical bytes and check byte.
func ParseATR(raw []byte) (ATR, error) {
	if len(raw) < 2 {
		return ATR{}, fmt.Errorf("%w: %d bytes", ErrMalformedATR, len(raw))
	}
	if raw[0] != 0x3B && raw[0] != 0x3F {
		return ATR{}, fmt.Errorf("%w: TS 0x%02X", ErrMalformedATR, raw[0])
	}

	atr := ATR{Raw: append([]byte(nil), raw...)}
	k := int(bits.LowNibble(raw[1]))
	indicator := bits.HighNibble(raw[1])
	pos := 2
	needTCK := false

	for {
		for _, present := range []bool{indicator&0x1 != 0, indicator&0x2 != 0, indicator&0x4 != 0} {
			if present {
				pos++
			}
		}
		if indicator&0x8 == 0 {
			break
		}
		if pos >= len(raw) {
			return ATR{}, fmt.Errorf("%w: truncated interface bytes", ErrMalformedATR)
		}
		td := raw[pos]
		pos++
		t := bits.LowNibble(td)
		atr.Protocols = append(atr.Protocols, t)
		if t != 0 {
			needTCK = true
		}
		indicator = bits.HighNibble(td)
	}

	if pos+k > len(raw) {
		return ATR{}, fmt.Errorf("%w: %d historical bytes announced, %d left", ErrMalformedATR, k, len(raw)-pos)
	}
	atr.Historical = raw[pos : pos+k : pos+k]
	pos += k

	if needTCK {
		if pos >= len(raw) {
			return ATR{}, fmt.Errorf("%w: missing TCK", ErrMalformedATR)
		}
		tck := raw[pos]
		atr.TCK = &tck
		pos++

		var x byte
		for _, b := range raw[1:pos] {
			x ^= b
		}
		if x != 0 {
			return ATR{}, fmt.Errorf("%w: TCK mismatch", ErrMalformedATR)
		}
	}

	if pos != len(raw) {
		return ATR{}, fmt.Errorf("%w: %d trailing bytes", ErrMalformedATR, len(raw)-pos)
	}
	return atr, nil
}

// Verbose returns a human-readable description of the ATR.
func (a ATR) Verbose() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "ATR: %s\n", Format(a.Raw))
	if len(a.Protocols) == 0 {
		sb.WriteString("  Protocols: T=0 (implicit)\n")
	} else {
		protos := make([]string, len(a.Protocols))
		for i, t := range a.Protocols {
			protos[i] = fmt.Sprintf("T=%d", t)
		}
		fmt.Fprintf(&sb, "  Protocols: %s\n", strings.Join(protos, ", "))
	}
	fmt.Fprintf(&sb, "  Historical: %s", Format(a.Historical))
	if a.TCK != nil {
		fmt.Fprintf(&sb, "\n  TCK: 0x%02X", *a.TCK)
	}
	return sb.String()
}
