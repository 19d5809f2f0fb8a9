package iso7816

import (
	"strings"
	"testing"
)

func TestStatusWord_Outcome(t *testing.T) {
	tests := []struct {
		sw   StatusWord
		want Outcome
	}{
		{SW_NO_ERROR, Success},
		{SW_OPERATION_FAILED, Failed},
		{NewStatusWord(0x12, 0x34), Unrecognized},
		{NewStatusWord(0x63, 0xC1), Unrecognized}, // counters are not the plain failure code
		{NewStatusWord(0x61, 0x10), Unrecognized}, // no GET RESPONSE under the reader class
		{SW_ERR_FUNC_NOT_SUPPORTED, Unrecognized},
	}

	for _, tt := range tests {
		if got := tt.sw.Outcome(); got != tt.want {
			t.Errorf("SW %04X Outcome = %s, want %s", uint16(tt.sw), got, tt.want)
		}
	}
}

func TestStatusWord_Bytes(t *testing.T) {
	sw := NewStatusWord(0x90, 0x00)
	if sw != SW_NO_ERROR {
		t.Fatalf("NewStatusWord(90, 00) = %04X", uint16(sw))
	}
	if sw.SW1() != 0x90 || sw.SW2() != 0x00 {
		t.Errorf("SW1/SW2 = %02X/%02X", sw.SW1(), sw.SW2())
	}
}

func TestStatusWord_Counter(t *testing.T) {
	tests := []struct {
		sw        StatusWord
		isCounter bool
	}{
		{NewStatusWord(0x63, 0xC0), true},
		{NewStatusWord(0x63, 0xCF), true},
		{NewStatusWord(0x63, 0x00), false},
		{NewStatusWord(0x63, 0x81), false},
	}

	for _, tt := range tests {
		if got := tt.sw.IsCounter(); got != tt.isCounter {
			t.Errorf("SW %X IsCounter = %v, want %v", uint16(tt.sw), got, tt.isCounter)
		}
	}
}

func TestStatusWord_IsSuccess(t *testing.T) {
	tests := []struct {
		sw   StatusWord
		want bool
	}{
		{SW_NO_ERROR, true},
		{SW_OPERATION_FAILED, false},
		{SW_WARN_END_OF_DATA, false},
		{SW_ERR_WRONG_LENGTH, false},
	}

	for _, tt := range tests {
		if got := tt.sw.IsSuccess(); got != tt.want {
			t.Errorf("SW %X IsSuccess = %v, want %v", uint16(tt.sw), got, tt.want)
		}
	}
}

func TestStatusWord_Verbose(t *testing.T) {
	tests := []struct {
		sw       StatusWord
		contains string
	}{
		{NewStatusWord(0x63, 0xC3), "counter = 3"},
		{NewStatusWord(0x6C, 0x05), "correct Le is 5"},
		{SW_OPERATION_FAILED, "[6300] SW_OPERATION_FAILED"},
		{SW_ERR_ADDRESS_NOT_FOUND, "SW_ERR_ADDRESS_NOT_FOUND"},
		{NewStatusWord(0x69, 0x99), "Command not allowed"},
		{NewStatusWord(0x12, 0x34), "[1234] Unknown Status"},
	}

	for _, tt := range tests {
		got := tt.sw.Verbose()
		if !strings.Contains(got, tt.contains) {
			t.Errorf("Verbose(%X) = %q; want containing %q", uint16(tt.sw), got, tt.contains)
		}
	}
}

func TestStatusWord_String(t *testing.T) {
	if got := SW_NO_ERROR.String(); got != "SW_NO_ERROR" {
		t.Errorf("String() = %q", got)
	}
	if got := NewStatusWord(0x12, 0x34).String(); got != "StatusWord(0x1234)" {
		t.Errorf("String() = %q", got)
	}
}
