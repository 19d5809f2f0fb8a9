package mifare

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/gregLibert/mifare-pcsc/pkg/iso7816"
)

// Protocol is the transmission protocol negotiated when the reader connected
// (PC/SC SCARD_PROTOCOL_* value).
type Protocol uint32

// Link is the reader side of a Card session.
type Link interface {
	// Transmit sends frame and returns the raw response, status word included.
	// maxResponse is the largest answer the caller expects, trailer included.
	Transmit(frame []byte, maxResponse int, protocol Protocol) ([]byte, error)
	// Disconnect ends the session and leaves the card powered.
	Disconnect() error
}

// Card is a connected MIFARE card.
//
// A Card is not safe for concurrent use: issue one operation at a time.
// After Disconnect, or once the card has left the reader, every operation
// fails with ErrCardDisconnected before any I/O.
type Card struct {
	link     Link
	protocol Protocol
	atr      []byte
	detached atomic.Bool
}

// CardOption configures a Card.
type CardOption func(*Card)

// WithATR records the ATR reported when the card connected.
func WithATR(atr []byte) CardOption {
	return func(c *Card) {
		c.atr = append([]byte(nil), atr...)
	}
}

// NewCard binds a session on link using protocol.
func NewCard(link Link, protocol Protocol, opts ...CardOption) *Card {
	c := &Card{link: link, protocol: protocol}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ATR returns the Answer To Reset recorded at connect, if any.
func (c *Card) ATR() []byte {
	return append([]byte(nil), c.atr...)
}

// Identify decodes the card type from the recorded ATR.
func (c *Card) Identify() (CardInfo, error) {
	return Identify(c.atr)
}

// Protocol returns the negotiated protocol of the session.
func (c *Card) Protocol() Protocol {
	return c.protocol
}

// Valid reports whether the card can still be used.
func (c *Card) Valid() bool {
	return !c.detached.Load()
}

// Invalidate marks the card unusable without touching the reader. The reader
// lifecycle calls it when the card leaves the field.
func (c *Card) Invalidate() {
	c.detached.Store(true)
}

// Execute validates cmd, sends it and interprets the status word.
// On success it returns at most cmd.ExpectedLength() bytes of response data.
func (c *Card) Execute(cmd Command) ([]byte, error) {
	if c.detached.Load() {
		return nil, ErrCardDisconnected
	}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	apdu := cmd.APDU()
	raw, err := apdu.Bytes()
	if err != nil {
		return nil, fmt.Errorf("encoding error: %w", err)
	}

	expected := cmd.ExpectedLength()
	rawResp, err := c.link.Transmit(raw, expected+iso7816.TrailerLen, c.protocol)
	if err != nil {
		return nil, &TransportError{Op: "transmit", Err: err}
	}

	return interpret(apdu, rawResp, expected)
}

// interpret splits the status word off rawResp and maps it to a result.
func interpret(apdu *iso7816.CommandAPDU, rawResp []byte, expected int) ([]byte, error) {
	resp, err := iso7816.ParseResponseAPDU(rawResp)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProtocolViolation, err)
	}

	if resp.Status.Outcome() != iso7816.Success {
		return nil, &StatusError{Transaction: iso7816.Transaction{Command: apdu, Response: resp}}
	}

	data := resp.Data
	if len(data) > expected {
		data = data[:expected]
	}
	return append([]byte(nil), data...), nil
}

// UID returns the card identifier (4, 7 or 10 bytes).
func (c *Card) UID() ([]byte, error) {
	return c.Execute(GetUID{})
}

// LoadAuthKey stores key (6 bytes) in reader key slot 0-32.
func (c *Card) LoadAuthKey(slot int, key []byte) error {
	_, err := c.Execute(LoadAuthKey{Slot: slot, Key: key})
	return err
}

// Authenticate opens the sector of block with the key in slot.
func (c *Card) Authenticate(block int, keyType KeyType, slot int) error {
	_, err := c.Execute(Authenticate{Block: block, KeyType: keyType, Slot: slot})
	return err
}

// ReadBlock reads 16, 32 or 48 bytes starting at block.
func (c *Card) ReadBlock(block, length int) ([]byte, error) {
	return c.Execute(ReadBlock{Block: block, Length: length})
}

// UpdateBlock writes 16, 32 or 48 bytes starting at block.
func (c *Card) UpdateBlock(block int, data []byte) error {
	_, err := c.Execute(UpdateBlock{Block: block, Data: data})
	return err
}

// RestoreBlock copies value block src into dest, within one sector.
func (c *Card) RestoreBlock(src, dest int) error {
	_, err := c.Execute(RestoreBlock{Src: src, Dest: dest})
	return err
}

// ReadTrailer reads and decodes the trailer of sector. The sector must be
// authenticated. Cards return key A as zeros.
func (c *Card) ReadTrailer(sector int) (SectorTrailer, error) {
	if err := checkSector(sector); err != nil {
		return SectorTrailer{}, err
	}
	block, err := c.ReadBlock(TrailerBlock(sector), TrailerLen)
	if err != nil {
		return SectorTrailer{}, err
	}
	if len(block) != TrailerLen {
		return SectorTrailer{}, fmt.Errorf("%w: trailer read returned %d bytes", ErrProtocolViolation, len(block))
	}
	return UnpackTrailer(block)
}

// WriteTrailer encodes t and writes it to the trailer of sector.
func (c *Card) WriteTrailer(sector int, t SectorTrailer) error {
	if err := checkSector(sector); err != nil {
		return err
	}
	data, err := t.Pack()
	if err != nil {
		return err
	}
	return c.UpdateBlock(TrailerBlock(sector), data)
}

// TryKeys loads each candidate key into slot and tries to authenticate block
// with it. It returns the first key that works. A key refused by the card
// (ErrOperationFailed) moves on to the next one; any other error stops the search.
func (c *Card) TryKeys(block int, keyType KeyType, slot int, keys [][]byte) ([]byte, error) {
	if err := (Authenticate{Block: block, KeyType: keyType, Slot: slot}).Validate(); err != nil {
		return nil, err
	}
	for _, key := range keys {
		if err := c.LoadAuthKey(slot, key); err != nil {
			return nil, fmt.Errorf("load key %s: %w", iso7816.Format(key), err)
		}
		err := c.Authenticate(block, keyType, slot)
		if err == nil {
			return key, nil
		}
		if !errors.Is(err, ErrOperationFailed) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("block %d key %s: %w", block, keyType, ErrNoMatchingKey)
}

// Disconnect ends the session and leaves the card powered. The Card cannot be
// used afterwards; a second Disconnect returns ErrCardDisconnected.
func (c *Card) Disconnect() error {
	if !c.detached.CompareAndSwap(false, true) {
		return ErrCardDisconnected
	}
	if err := c.link.Disconnect(); err != nil {
		return &TransportError{Op: "disconnect", Err: err}
	}
	return nil
}

func checkSector(sector int) error {
	if sector < 0 || sector > SectorOf(MaxBlock) {
		return rangeError("sector", sector, 0, SectorOf(MaxBlock))
	}
	return nil
}
