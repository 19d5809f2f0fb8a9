package iso7816

import (
	"fmt"

	"github.com/gregLibert/mifare-pcsc/pkg/bits"
)

// Status Word classification for reader pseudo-APDUs:
//
// PC/SC readers answer storage card commands with a deliberately small set of
// trailers. Only two are meaningful to a MIFARE host:
//
// 1. '9000': the operation completed.
// 2. '6300': the operation failed on the card side (wrong key, access
//    conditions deny the block, card left the field mid-operation). This is an
//    expected, recoverable outcome.
//
// Anything else means the reader and the host no longer agree on the exchange
// (unsupported instruction, wrong length, garbage on the line), and the session
// should be treated as desynchronized.

// Outcome is the coarse meaning of a status word for a storage card command.
type Outcome int

const (
	// Success is SW 9000.
	Success Outcome = iota
	// Failed is SW 6300, a recoverable operation failure.
	Failed
	// Unrecognized is every other status word.
	Unrecognized
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "Success"
	case Failed:
		return "Failed"
	default:
		return "Unrecognized"
	}
}

// StatusWord represents the two-byte status response (SW1-SW2) returned by the smart card.
type StatusWord uint16

// NewStatusWord creates a StatusWord instance from two separate bytes.
func NewStatusWord(sw1, sw2 byte) StatusWord {
	return StatusWord(uint16(sw1)<<8 | uint16(sw2))
}

// SW1 returns the first byte (high byte) of the status word.
func (sw StatusWord) SW1() byte {
	return byte(sw >> 8)
}

// SW2 returns the second byte (low byte) of the status word.
func (sw StatusWord) SW2() byte {
	return byte(sw)
}

// Outcome classifies the status word as Success, Failed or Unrecognized.
func (sw StatusWord) Outcome() Outcome {
	switch sw {
	case SW_NO_ERROR:
		return Success
	case SW_OPERATION_FAILED:
		return Failed
	default:
		return Unrecognized
	}
}

// IsSuccess returns true if the command was processed successfully (9000).
func (sw StatusWord) IsSuccess() bool {
	return sw == SW_NO_ERROR
}

// IsCounter checks if the status indicates a non-volatile memory change counter.
func (sw StatusWord) IsCounter() bool {
	if sw.SW1() != 0x63 {
		return false
	}
	return bits.HighNibble(sw.SW2()) == 0x0C
}

// String returns the constant name of a known status word.
func (sw StatusWord) String() string {
	if name, ok := statusNames[sw]; ok {
		return name
	}
	return fmt.Sprintf("StatusWord(0x%04X)", uint16(sw))
}

// Verbose returns a human-readable description of the status word.
func (sw StatusWord) Verbose() string {
	if sw.IsCounter() {
		return fmt.Sprintf("[%04X] Warning: State changed, counter = %d", uint16(sw), bits.LowNibble(sw.SW2()))
	}

	if sw.SW1() == 0x6C {
		return fmt.Sprintf("[%04X] Wrong length, correct Le is %d", uint16(sw), sw.SW2())
	}

	if name, ok := statusNames[sw]; ok {
		return fmt.Sprintf("[%04X] %s", uint16(sw), name)
	}

	return fmt.Sprintf("[%04X] %s", uint16(sw), sw.genericCategoryDescription())
}

// genericCategoryDescription provides a fallback description based on SW1.
func (sw StatusWord) genericCategoryDescription() string {
	switch sw.SW1() {
	case 0x62:
		return "Warning: NV memory unchanged"
	case 0x63:
		return "Warning: NV memory changed"
	case 0x64:
		return "Execution Error: NV memory unchanged"
	case 0x65:
		return "Execution Error: NV memory changed"
	case 0x66:
		return "Execution Error: Security issue"
	case 0x68:
		return "Checking Error: Function not supported"
	case 0x69:
		return "Checking Error: Command not allowed"
	case 0x6A:
		return "Checking Error: Wrong parameters"
	default:
		return "Unknown Status"
	}
}

// Status Word codes returned by PC/SC readers for storage card commands.
const (
	SW_NO_ERROR         StatusWord = 0x9000
	SW_OPERATION_FAILED StatusWord = 0x6300

	SW_WARN_END_OF_DATA          StatusWord = 0x6282
	SW_ERR_MEMORY_FAILURE        StatusWord = 0x6581
	SW_ERR_WRONG_LENGTH          StatusWord = 0x6700
	SW_ERR_CMD_INCOMPATIBLE      StatusWord = 0x6981
	SW_ERR_SECURITY_STATUS       StatusWord = 0x6982
	SW_ERR_AUTH_METHOD_BLOCKED   StatusWord = 0x6983
	SW_ERR_KEY_NOT_USABLE        StatusWord = 0x6984
	SW_ERR_CMD_NOT_ALLOWED_NO_EF StatusWord = 0x6986
	SW_ERR_FUNC_NOT_SUPPORTED    StatusWord = 0x6A81
	SW_ERR_ADDRESS_NOT_FOUND     StatusWord = 0x6A82
	SW_ERR_WRONG_P1P2            StatusWord = 0x6B00
	SW_ERR_INS_INVALID           StatusWord = 0x6D00
	SW_ERR_CLA_NOT_SUPPORTED     StatusWord = 0x6E00
	SW_ERR_UNKNOWN               StatusWord = 0x6F00
)

var statusNames = map[StatusWord]string{
	SW_NO_ERROR:                  "SW_NO_ERROR",
	SW_OPERATION_FAILED:          "SW_OPERATION_FAILED",
	SW_WARN_END_OF_DATA:          "SW_WARN_END_OF_DATA",
	SW_ERR_MEMORY_FAILURE:        "SW_ERR_MEMORY_FAILURE",
	SW_ERR_WRONG_LENGTH:          "SW_ERR_WRONG_LENGTH",
	SW_ERR_CMD_INCOMPATIBLE:      "SW_ERR_CMD_INCOMPATIBLE",
	SW_ERR_SECURITY_STATUS:       "SW_ERR_SECURITY_STATUS",
	SW_ERR_AUTH_METHOD_BLOCKED:   "SW_ERR_AUTH_METHOD_BLOCKED",
	SW_ERR_KEY_NOT_USABLE:        "SW_ERR_KEY_NOT_USABLE",
	SW_ERR_CMD_NOT_ALLOWED_NO_EF: "SW_ERR_CMD_NOT_ALLOWED_NO_EF",
	SW_ERR_FUNC_NOT_SUPPORTED:    "SW_ERR_FUNC_NOT_SUPPORTED",
	SW_ERR_ADDRESS_NOT_FOUND:     "SW_ERR_ADDRESS_NOT_FOUND",
	SW_ERR_WRONG_P1P2:            "SW_ERR_WRONG_P1P2",
	SW_ERR_INS_INVALID:           "SW_ERR_INS_INVALID",
	SW_ERR_CLA_NOT_SUPPORTED:     "SW_ERR_CLA_NOT_SUPPORTED",
	SW_ERR_UNKNOWN:               "SW_ERR_UNKNOWN",
}
