package mifare

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gregLibert/mifare-pcsc/pkg/iso7816"
)

func TestIdentify(t *testing.T) {
	tests := []struct {
		name    string
		atr     string
		want    CardInfo
		wantErr error
	}{
		{
			name: "Classic 1K",
			atr:  "3B 8F 80 01 80 4F 0C A0 00 00 03 06 03 00 01 00 00 00 00 6A",
			want: CardInfo{Standard: 0x03, Name: Classic1K},
		},
		{
			name: "Classic 4K",
			atr:  "3B 8F 80 01 80 4F 0C A0 00 00 03 06 03 00 02 00 00 00 00 69",
			want: CardInfo{Standard: 0x03, Name: Classic4K},
		},
		{
			name: "Ultralight",
			atr:  "3B 8F 80 01 80 4F 0C A0 00 00 03 06 03 00 03 00 00 00 00 68",
			want: CardInfo{Standard: 0x03, Name: Ultralight},
		},
		{
			name:    "ISO 14443-4 card, no storage identifier",
			atr:     "3B 81 80 01 80 80",
			wantErr: ErrNotStorageCard,
		},
		{
			name:    "Contact card historical bytes",
			atr:     "3B 02 14 50",
			wantErr: ErrNotStorageCard,
		},
		{
			name:    "Foreign RID",
			atr:     "3B 8F 80 01 80 4F 0C A0 00 00 00 04 03 00 01 00 00 00 00 6B",
			wantErr: ErrNotStorageCard,
		},
		{
			name:    "Malformed ATR",
			atr:     "3B 8F 80 01",
			wantErr: iso7816.ErrMalformedATR,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Identify(iso7816.Hex(tc.atr))
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("Identify() error = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Identify() unexpected error: %v", err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Identify() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCardName(t *testing.T) {
	tests := []struct {
		name    CardName
		str     string
		sectors int
	}{
		{Classic1K, "MIFARE Classic 1K", 16},
		{Classic4K, "MIFARE Classic 4K", 40},
		{ClassicMini, "MIFARE Mini", 5},
		{Ultralight, "MIFARE Ultralight", 0},
		{CardName(0x00F0), "CardName(0x00F0)", 0},
	}

	for _, tc := range tests {
		if got := tc.name.String(); got != tc.str {
			t.Errorf("String() = %q, want %q", got, tc.str)
		}
		if got := tc.name.Sectors(); got != tc.sectors {
			t.Errorf("%s.Sectors() = %d, want %d", tc.str, got, tc.sectors)
		}
	}
}

func TestCard_Identify(t *testing.T) {
	atr := iso7816.Hex("3B 8F 80 01 80 4F 0C A0 00 00 03 06 03 00 01 00 00 00 00 6A")
	card := NewCard(&scriptedLink{}, 2, WithATR(atr))

	atr[0] = 0x00
	if got := card.ATR(); got[0] != 0x3B {
		t.Error("WithATR must copy the ATR")
	}

	info, err := card.Identify()
	if err != nil {
		t.Fatalf("Identify() unexpected error: %v", err)
	}
	if info.Name != Classic1K {
		t.Errorf("Identify() = %s, want %s", info, Classic1K)
	}

	if _, err := NewCard(&scriptedLink{}, 2).Identify(); !errors.Is(err, iso7816.ErrMalformedATR) {
		t.Errorf("Identify() without ATR error = %v", err)
	}
}
