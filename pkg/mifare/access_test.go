package mifare

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gregLibert/mifare-pcsc/pkg/iso7816"
)

func TestAccessCondition_Pack(t *testing.T) {
	tests := []struct {
		name string
		acs  AccessCondition
		want []byte
	}{
		{
			name: "Transport configuration",
			acs:  TransportAccess,
			want: iso7816.Hex("FF 07 80 69"),
		},
		{
			name: "All bits set",
			acs:  AccessCondition{C1: 0xF, C2: 0xF, C3: 0xF, User: 0x00},
			want: iso7816.Hex("00 F0 FF 00"),
		},
		{
			name: "Mixed values, custom user byte",
			acs:  AccessCondition{C1: 0x1, C2: 0x2, C3: 0x4, User: 0xAB},
			want: iso7816.Hex("DE 1B 42 AB"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.acs.Pack()
			if err != nil {
				t.Fatalf("Pack() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Pack() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAccessCondition_Pack_OutOfRange(t *testing.T) {
	tests := []AccessCondition{
		{C1: 16},
		{C2: 16},
		{C3: 16},
		{C1: 0xFF, C2: 0xFF, C3: 0xFF},
	}

	for _, acs := range tests {
		if _, err := acs.Pack(); !errors.Is(err, ErrRange) {
			t.Errorf("Pack(%s) error = %v, want ErrRange", acs, err)
		}
	}
}

func TestAccessCondition_RoundTrip(t *testing.T) {
	for _, user := range []byte{DefaultTerminator, 0x00, 0xFF} {
		for c1 := uint8(0); c1 <= 0xF; c1++ {
			for c2 := uint8(0); c2 <= 0xF; c2++ {
				for c3 := uint8(0); c3 <= 0xF; c3++ {
					in := AccessCondition{C1: c1, C2: c2, C3: c3, User: user}
					packed, err := in.Pack()
					if err != nil {
						t.Fatalf("Pack(%s) error = %v", in, err)
					}
					out, err := UnpackAccessCondition(packed)
					if err != nil {
						t.Fatalf("Unpack(%X) error = %v", packed, err)
					}
					if out != in {
						t.Fatalf("round trip %s -> %X -> %s", in, packed, out)
					}
				}
			}
		}
	}
}

func TestUnpackAccessCondition_IgnoresByte0(t *testing.T) {
	a, err := UnpackAccessCondition(iso7816.Hex("FF 07 80 69"))
	if err != nil {
		t.Fatal(err)
	}
	b, err := UnpackAccessCondition(iso7816.Hex("00 07 80 69"))
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Errorf("byte 0 changed the decoded value: %s vs %s", a, b)
	}
}

func TestUnpackAccessCondition_Length(t *testing.T) {
	for _, n := range []int{0, 3, 5, 16} {
		if _, err := UnpackAccessCondition(make([]byte, n)); !errors.Is(err, ErrLength) {
			t.Errorf("Unpack(%d bytes) error = %v, want ErrLength", n, err)
		}
	}
}

func TestAccessCondition_BlockBits(t *testing.T) {
	// Trailer (block 3) of the transport configuration: C1=0 C2=0 C3=1.
	c1, c2, c3, err := TransportAccess.BlockBits(3)
	if err != nil {
		t.Fatal(err)
	}
	if c1 != 0 || c2 != 0 || c3 != 1 {
		t.Errorf("BlockBits(3) = %d%d%d, want 001", c1, c2, c3)
	}

	if _, _, _, err := TransportAccess.BlockBits(4); !errors.Is(err, ErrRange) {
		t.Errorf("BlockBits(4) error = %v, want ErrRange", err)
	}
}

func TestNewAccessCondition(t *testing.T) {
	got := NewAccessCondition(0, 0, 8)
	if diff := cmp.Diff(TransportAccess, got); diff != "" {
		t.Errorf("NewAccessCondition mismatch (-want +got):\n%s", diff)
	}
}
