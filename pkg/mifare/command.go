package mifare

import (
	"fmt"

	"github.com/gregLibert/mifare-pcsc/pkg/iso7816"
)

// STORAGE CARD COMMANDS (PC/SC Part 3, CLA 0xFF):
//
//	GET DATA        FF CA 00 00 00                          -> UID
//	LOAD KEYS       FF 82 P1 slot 06 key(6)                 P1 = 0x20 for slot 0x20 (non-volatile)
//	AUTHENTICATE    FF 86 00 00 05 01 00 block type slot    type = 0x60 (A) / 0x61 (B)
//	READ BINARY     FF B0 00 block len                      -> len bytes
//	UPDATE BINARY   FF D6 00 block len data(len)
//	RESTORE         FF D7 00 src 02 03 dest                 value block copy inside one sector

// Command is one of GetUID, LoadAuthKey, Authenticate, ReadBlock, UpdateBlock
// or RestoreBlock. The set is closed.
type Command interface {
	// Validate checks the parameters without touching the reader.
	Validate() error
	// APDU builds the command frame. Call Validate first.
	APDU() *iso7816.CommandAPDU
	// ExpectedLength is the response payload size, trailer excluded.
	ExpectedLength() int

	command()
}

// Frame validates cmd and encodes its APDU.
func Frame(cmd Command) ([]byte, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	return cmd.APDU().Bytes()
}

func readerCommand(ins iso7816.InsCode, p1, p2 byte, data []byte, ne int) *iso7816.CommandAPDU {
	return iso7816.NewCommandAPDU(iso7816.ReaderClass(), iso7816.MustInstruction(ins), p1, p2, data, ne)
}

func checkBlock(name string, block int) error {
	if block < 0 || block > MaxBlock {
		return rangeError(name, block, 0, MaxBlock)
	}
	return nil
}

func checkSlot(slot int) error {
	if slot < 0 || slot > MaxKeySlot {
		return rangeError("key slot", slot, 0, MaxKeySlot)
	}
	return nil
}

func checkBlockLength(name string, n int) error {
	switch n {
	case BlockSize, 2 * BlockSize, 3 * BlockSize:
		return nil
	}
	return lengthError(name, n, BlockSize, 2*BlockSize, 3*BlockSize)
}

// GetUID reads the card identifier.
type GetUID struct{}

func (GetUID) Validate() error { return nil }

func (GetUID) APDU() *iso7816.CommandAPDU {
	// Le = 00: the reader returns the full UID.
	return readerCommand(iso7816.INS_GET_DATA, 0x00, 0x00, nil, iso7816.MaxShortLe)
}

func (GetUID) ExpectedLength() int { return UIDMaxLen }

func (GetUID) command() {}

// LoadAuthKey stores Key in the reader key slot Slot.
type LoadAuthKey struct {
	Slot int
	Key  []byte
}

func (c LoadAuthKey) Validate() error {
	if err := checkSlot(c.Slot); err != nil {
		return err
	}
	if len(c.Key) != KeyLen {
		return lengthError("key", len(c.Key), KeyLen)
	}
	return nil
}

func (c LoadAuthKey) APDU() *iso7816.CommandAPDU {
	var p1 byte
	if c.Slot == MaxKeySlot {
		p1 = 0x20
	}
	return readerCommand(iso7816.INS_LOAD_KEYS, p1, byte(c.Slot), c.Key, 0)
}

func (LoadAuthKey) ExpectedLength() int { return 0 }

func (LoadAuthKey) command() {}

// Authenticate opens the sector of Block with the key held in reader slot Slot.
type Authenticate struct {
	Block   int
	KeyType KeyType
	Slot    int
}

func (c Authenticate) Validate() error {
	if !c.KeyType.Valid() {
		return fmt.Errorf("key type %s: %w", c.KeyType, ErrInvalidArgument)
	}
	if err := checkBlock("block", c.Block); err != nil {
		return err
	}
	return checkSlot(c.Slot)
}

func (c Authenticate) APDU() *iso7816.CommandAPDU {
	// Authenticate data object: version 01, MSB 00, block, key type, key slot.
	data := []byte{0x01, 0x00, byte(c.Block), byte(c.KeyType), byte(c.Slot)}
	return readerCommand(iso7816.INS_GENERAL_AUTHENTICATE, 0x00, 0x00, data, 0)
}

func (Authenticate) ExpectedLength() int { return 0 }

func (Authenticate) command() {}

// ReadBlock reads Length bytes (16, 32 or 48) starting at Block.
type ReadBlock struct {
	Block  int
	Length int
}

func (c ReadBlock) Validate() error {
	if err := checkBlock("block", c.Block); err != nil {
		return err
	}
	return checkBlockLength("read", c.Length)
}

func (c ReadBlock) APDU() *iso7816.CommandAPDU {
	return readerCommand(iso7816.INS_READ_BINARY, 0x00, byte(c.Block), nil, c.Length)
}

func (c ReadBlock) ExpectedLength() int { return c.Length }

func (ReadBlock) command() {}

// UpdateBlock writes Data (16, 32 or 48 bytes) starting at Block.
type UpdateBlock struct {
	Block int
	Data  []byte
}

func (c UpdateBlock) Validate() error {
	if err := checkBlock("block", c.Block); err != nil {
		return err
	}
	return checkBlockLength("data", len(c.Data))
}

func (c UpdateBlock) APDU() *iso7816.CommandAPDU {
	return readerCommand(iso7816.INS_UPDATE_BINARY, 0x00, byte(c.Block), c.Data, 0)
}

func (UpdateBlock) ExpectedLength() int { return 0 }

func (UpdateBlock) command() {}

// RestoreBlock copies value block Src into Dest. Both must be in the same sector.
type RestoreBlock struct {
	Src  int
	Dest int
}

func (c RestoreBlock) Validate() error {
	if err := checkBlock("source block", c.Src); err != nil {
		return err
	}
	if err := checkBlock("destination block", c.Dest); err != nil {
		return err
	}
	if SectorOf(c.Src) != SectorOf(c.Dest) {
		return fmt.Errorf("blocks %d and %d are not in the same sector: %w", c.Src, c.Dest, ErrInvalidArgument)
	}
	return nil
}

func (c RestoreBlock) APDU() *iso7816.CommandAPDU {
	// 03 = restore operation, followed by the destination block.
	return readerCommand(iso7816.INS_RESTORE_VALUE_BLOCK, 0x00, byte(c.Src), []byte{0x03, byte(c.Dest)}, 0)
}

func (RestoreBlock) ExpectedLength() int { return 0 }

func (RestoreBlock) command() {}
