package iso7816

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Hex constructs a byte slice from a series of hex strings.
// Spaces are ignored, so frames can be written as "FF CA 00 00 00".
// It panics on malformed input and is meant for literals and tests.
func Hex(parts ...string) []byte {
	fullHex := strings.Join(parts, "")
	cleanHex := strings.ReplaceAll(fullHex, " ", "")

	data, err := hex.DecodeString(cleanHex)
	if err != nil {
		panic(fmt.Sprintf("invalid input '%s': %v", cleanHex, err))
	}
	return data
}

// Format renders data as space separated upper-case hex pairs ("04 A1 B2").
func Format(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.Grow(len(data) * 3)
	for i, b := range data {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02X", b)
	}
	return sb.String()
}
