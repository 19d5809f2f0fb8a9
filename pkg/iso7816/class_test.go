package iso7816

import (
	"strings"
	"testing"
)

func TestReaderClass(t *testing.T) {
	c := ReaderClass()
	if !c.IsReaderClass() || !c.IsProprietary() {
		t.Fatalf("ReaderClass() not recognized as reader class: %+v", c)
	}
	if got := c.Encode(); got != 0xFF {
		t.Errorf("Encode() = 0x%02X, want 0xFF", got)
	}
	if !strings.Contains(c.Verbose(), "PC/SC Reader") {
		t.Errorf("Verbose() = %q", c.Verbose())
	}
}

func TestClass_Verbose(t *testing.T) {
	tests := []struct {
		cla         byte
		proprietary bool
		contains    string
	}{
		{0xFF, true, "PC/SC Reader (0xFF)"},
		{0x80, true, "Proprietary (0x80)"},
		{0x00, false, "Interindustry (0x00)"},
	}

	for _, tt := range tests {
		c := Class{Raw: tt.cla}
		if c.IsProprietary() != tt.proprietary {
			t.Errorf("Class(0x%02X).IsProprietary() = %v", tt.cla, c.IsProprietary())
		}
		if c.IsReaderClass() != (tt.cla == PCSCClassByte) {
			t.Errorf("Class(0x%02X).IsReaderClass() = %v", tt.cla, c.IsReaderClass())
		}
		if got := c.Verbose(); !strings.Contains(got, tt.contains) {
			t.Errorf("Verbose() = %q; want containing %q", got, tt.contains)
		}
	}
}
