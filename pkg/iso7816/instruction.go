package iso7816

import (
	"fmt"

	"github.com/gregLibert/mifare-pcsc/pkg/bits"
)

// Instruction Byte (INS) Logic according to ISO/IEC 7816-4.
//
// The INS byte identifies the command. Under the PC/SC reader class (CLA 0xFF)
// bit 1 carries no data format meaning: 0xD7 is the vendor "restore value
// block" command, not UPDATE BINARY with a BER-TLV body.
//
// INS values where the upper nibble is '6' or '9' (0x6X or 0x9X) are invalid.
// These values are reserved for Status Words (SW1) or transport layer control
// procedures (ISO/IEC 7816-3).

// InsCode is a typed representation of the instruction byte.
type InsCode byte

// Instruction (INS) codes used by PC/SC storage card pseudo-APDUs.
const (
	INS_LOAD_KEYS            InsCode = 0x82
	INS_GENERAL_AUTHENTICATE InsCode = 0x86
	INS_READ_BINARY          InsCode = 0xB0
	INS_GET_DATA             InsCode = 0xCA
	INS_UPDATE_BINARY        InsCode = 0xD6
	INS_RESTORE_VALUE_BLOCK  InsCode = 0xD7
)

var insNames = map[InsCode]string{
	INS_LOAD_KEYS:            "INS_LOAD_KEYS",
	INS_GENERAL_AUTHENTICATE: "INS_GENERAL_AUTHENTICATE",
	INS_READ_BINARY:          "INS_READ_BINARY",
	INS_GET_DATA:             "INS_GET_DATA",
	INS_UPDATE_BINARY:        "INS_UPDATE_BINARY",
	INS_RESTORE_VALUE_BLOCK:  "INS_RESTORE_VALUE_BLOCK",
}

func (i InsCode) String() string {
	if name, ok := insNames[i]; ok {
		return name
	}
	return fmt.Sprintf("InsCode(0x%02X)", byte(i))
}

// Instruction represents the parsed ISO 7816-4 Instruction byte (INS).
type Instruction struct {
	Raw InsCode
}

// NewInstruction creates an Instruction object with validation.
// It rejects '6X' and '9X' values as they are invalid according to ISO 7816-3.
func NewInstruction(ins InsCode) (Instruction, error) {
	highNibble := bits.HighNibble(byte(ins))
	if highNibble == 0x6 || highNibble == 0x9 {
		return Instruction{}, fmt.Errorf("invalid INS 0x%02X: 6X and 9X are reserved", byte(ins))
	}

	return Instruction{Raw: ins}, nil
}

// MustInstruction is NewInstruction for the package constants, which are known valid.
func MustInstruction(ins InsCode) Instruction {
	i, err := NewInstruction(ins)
	if err != nil {
		panic(err)
	}
	return i
}

// Verbose returns a human-readable description of the instruction.
func (i Instruction) Verbose() string {
	return fmt.Sprintf("INS: 0x%02X | Command: %s", byte(i.Raw), i.Raw.String())
}
