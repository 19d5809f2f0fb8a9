/*
Package mifare drives MIFARE Classic cards through a PC/SC reader.

It covers three concerns:

  - Memory layout codecs: the access condition triple (AccessCondition) and the
    16-byte sector trailer (SectorTrailer).
  - Commands: a closed set of Command values (GetUID, LoadAuthKey, Authenticate,
    ReadBlock, UpdateBlock, RestoreBlock), each able to validate itself, build its
    reader pseudo-APDU and state the response length it expects.
  - Card: a connected session bound to a reader Link and the negotiated protocol.

# Memory Layout

A 1K card has 16 sectors of 4 blocks (64 blocks of 16 bytes). The last block of
every sector is its trailer, holding key A, the access conditions and key B:

	| Key A (6) | Access conditions (4) | Key B (6) |

# Errors

Card operations report four kinds of failure:

  - ErrInvalidArgument (ErrRange, ErrLength): rejected before any I/O.
  - *TransportError: the reader link failed.
  - ErrOperationFailed: status 6300, e.g. a wrong key. The session stays usable.
  - ErrProtocolViolation: any other status or a truncated response. The session
    is desynchronized and the card should be disconnected.

# Usage

	if err := card.LoadAuthKey(0, mifare.DefaultKey); err != nil {
	    return err
	}
	if err := card.Authenticate(4, mifare.KeyA, 0); errors.Is(err, mifare.ErrOperationFailed) {
	    return fmt.Errorf("wrong key for sector 1: %w", err)
	}
	block, err := card.ReadBlock(4, mifare.BlockSize)
*/
package mifare

import "fmt"

// Memory geometry of a MIFARE Classic 1K card.
const (
	BlockSize       = 16
	BlocksPerSector = 4
	MaxBlock        = 0x3F
	MaxKeySlot      = 0x20
	KeyLen          = 6
	// UIDMaxLen bounds the GET DATA answer; single, double and triple UIDs are 4, 7 and 10 bytes.
	UIDMaxLen = 16
)

// KeyType selects which sector key an authentication uses.
type KeyType byte

const (
	KeyA KeyType = 0x60
	KeyB KeyType = 0x61
)

func (k KeyType) String() string {
	switch k {
	case KeyA:
		return "A"
	case KeyB:
		return "B"
	default:
		return fmt.Sprintf("KeyType(0x%02X)", byte(k))
	}
}

// Valid reports whether k is KeyA or KeyB.
func (k KeyType) Valid() bool {
	return k == KeyA || k == KeyB
}

// SectorOf returns the sector holding block.
func SectorOf(block int) int {
	return block / BlocksPerSector
}

// TrailerBlock returns the trailer block number of sector.
func TrailerBlock(sector int) int {
	return sector*BlocksPerSector + BlocksPerSector - 1
}

// DefaultKey is the factory key A and key B of blank cards.
var DefaultKey = []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}

// DefaultKeys lists keys commonly found on deployed cards, tried in order by TryKeys.
var DefaultKeys = [][]byte{
	{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF},
	{0xA0, 0xB0, 0xC0, 0xD0, 0xE0, 0xF0},
	{0xA1, 0xB1, 0xC1, 0xD1, 0xE1, 0xF1},
	{0xA0, 0xA1, 0xA2, 0xA3, 0xA4, 0xA5}, // MAD
	{0xB0, 0xB1, 0xB2, 0xB3, 0xB4, 0xB5},
	{0x4D, 0x3A, 0x99, 0xC3, 0x51, 0xDD},
	{0x1A, 0x98, 0x2C, 0x7E, 0x45, 0x9A},
	{0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
	{0xD3, 0xF7, 0xD3, 0xF7, 0xD3, 0xF7}, // NFC Forum
	{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF},
}
