package iso7816

import (
	"bytes"
	"errors"
	"fmt"
)

// APDU (Application Protocol Data Unit) structures and encodings according to ISO/IEC 7816-3 and 7816-4.
//
// COMMAND APDU (C-APDU):
// A command consists of a mandatory Header (4 bytes) and an optional Body.
//
// 1. Header:
//   - CLA (Class): 0xFF for PC/SC reader pseudo-APDUs (PC/SC Part 3), which the
//     reader interprets itself instead of forwarding to the card.
//   - INS (Instruction): The specific command to execute.
//   - P1, P2 (Parameters): Command modifiers.
//
// 2. Body:
//   - Lc (Length Command): Number of bytes in the data field.
//   - Data: The command payload.
//   - Le (Length Expected): Maximum number of bytes expected in the response.
//
// ENCODING CASES (ISO 7816-3):
// - Case 1: No Data, No Response (Header only).
// - Case 2: No Data, Response Expected (Header + Le).
// - Case 3: Data Present, No Response (Header + Lc + Data).
// - Case 4: Data Present, Response Expected (Header + Lc + Data + Le).
//
// LENGTH:
//   Only short length is encoded: Lc on 1 byte (max 255), Le on 1 byte where
//   0x00 stands for 256. Reader pseudo-APDUs never need more.
//
// RESPONSE APDU (R-APDU):
// An optional Body followed by the mandatory SW1 SW2 trailer.

// APDU Limits and Constants according to ISO 7816-3.
const (
	// MaxShortLc is the maximum data length (Nc) encodable in Short Length mode (1 byte).
	MaxShortLc = 255

	// MaxShortLe is the maximum expected response length (Ne) encodable in Short Length mode.
	// In Short mode, 0x00 encodes 256.
	MaxShortLe = 256

	// TrailerLen is the size of the SW1 SW2 status trailer closing every response.
	TrailerLen = 2
)

// ErrResponseTooShort is returned when a response cannot even hold a status word.
var ErrResponseTooShort = errors.New("response too short")

// CommandAPDU represents a command sent to the card.
type CommandAPDU struct {
	Class       Class
	Instruction Instruction
	P1, P2      byte
	Data        []byte
	Ne          int // Expected response length (0 means none)
}

// NewCommandAPDU creates a basic command.
func NewCommandAPDU(cla Class, ins Instruction, p1, p2 byte, data []byte, ne int) *CommandAPDU {
	return &CommandAPDU{
		Class:       cla,
		Instruction: ins,
		P1:          p1,
		P2:          p2,
		Data:        data,
		Ne:          ne,
	}
}

// Bytes encodes the CommandAPDU into its short length byte representation.
func (c *CommandAPDU) Bytes() ([]byte, error) {
	nc := len(c.Data)
	ne := c.Ne

	if nc > MaxShortLc {
		return nil, fmt.Errorf("data field too long: %d bytes", nc)
	}
	if ne < 0 || ne > MaxShortLe {
		return nil, fmt.Errorf("expected length %d out of range", ne)
	}

	buf := new(bytes.Buffer)

	// 1. Encode Header
	buf.WriteByte(c.Class.Encode())
	buf.WriteByte(byte(c.Instruction.Raw))
	buf.WriteByte(c.P1)
	buf.WriteByte(c.P2)

	// 2. Encode Lc Field & Data Field
	if nc > 0 {
		buf.WriteByte(byte(nc))
		buf.Write(c.Data)
	}

	// 3. Encode Le Field
	if ne > 0 {
		// 0x00 represents 256
		buf.WriteByte(byte(ne % MaxShortLe))
	}

	return buf.Bytes(), nil
}

// String returns a readable representation of the command meta-data.
func (c *CommandAPDU) String() string {
	return fmt.Sprintf("%s | P1: %02X, P2: %02X | Lc: %d | Le: %d",
		c.Instruction.Verbose(), c.P1, c.P2, len(c.Data), c.Ne)
}

// ResponseAPDU represents the reply from the card (R-APDU).
type ResponseAPDU struct {
	Data   []byte
	Status StatusWord
}

// ParseResponseAPDU parses raw bytes received from the card into a ResponseAPDU.
// The input must contain at least 2 bytes (SW1, SW2).
func ParseResponseAPDU(raw []byte) (*ResponseAPDU, error) {
	if len(raw) < TrailerLen {
		return nil, fmt.Errorf("%w: length %d", ErrResponseTooShort, len(raw))
	}

	indexSW1 := len(raw) - TrailerLen
	data := raw[:indexSW1]
	sw1 := raw[indexSW1]
	sw2 := raw[indexSW1+1]

	return &ResponseAPDU{
		Data:   data,
		Status: NewStatusWord(sw1, sw2),
	}, nil
}

// String returns a readable representation of the response.
func (r *ResponseAPDU) String() string {
	return fmt.Sprintf("Data (%d bytes) | Status: %s", len(r.Data), r.Status.Verbose())
}
