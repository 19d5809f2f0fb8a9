package mifare

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/moov-io/bertlv"

	"github.com/gregLibert/mifare-pcsc/pkg/iso7816"
)

// Storage card ATR (PC/SC Part 3):
//
//	3B 8F 80 01 | 80 | 4F 0C A0 00 00 03 06 SS NN NN 00 00 00 00 | TCK
//	              ^ category indicator
//	                   ^ application identifier: RID, standard SS, card name NN NN

// ErrNotStorageCard is returned by Identify for an ATR that does not carry a
// PC/SC storage card identifier.
var ErrNotStorageCard = errors.New("mifare: not a PC/SC storage card ATR")

// pcscRID is the registered application provider of PC/SC.
var pcscRID = []byte{0xA0, 0x00, 0x00, 0x03, 0x06}

const (
	categoryStatusLast = 0x80
	tagApplicationID   = "4F"
)

// CardName is the card name code assigned by PC/SC Part 3.
type CardName uint16

const (
	Classic1K   CardName = 0x0001
	Classic4K   CardName = 0x0002
	Ultralight  CardName = 0x0003
	ClassicMini CardName = 0x0026
	UltralightC CardName = 0x003A
)

var cardNames = map[CardName]string{
	Classic1K:   "MIFARE Classic 1K",
	Classic4K:   "MIFARE Classic 4K",
	Ultralight:  "MIFARE Ultralight",
	ClassicMini: "MIFARE Mini",
	UltralightC: "MIFARE Ultralight C",
}

func (n CardName) String() string {
	if name, ok := cardNames[n]; ok {
		return name
	}
	return fmt.Sprintf("CardName(0x%04X)", uint16(n))
}

// Sectors returns the sector count of a MIFARE Classic card, 0 for other cards.
// Only the first 16 sectors use the 4-block layout this package addresses.
func (n CardName) Sectors() int {
	switch n {
	case ClassicMini:
		return 5
	case Classic1K:
		return 16
	case Classic4K:
		return 40
	default:
		return 0
	}
}

// CardInfo is the identification a reader reports in the ATR.
type CardInfo struct {
	Standard byte
	Name     CardName
}

func (i CardInfo) String() string {
	return fmt.Sprintf("%s (standard 0x%02X)", i.Name, i.Standard)
}

// Identify extracts the storage card identifier from an ATR.
func Identify(rawATR []byte) (CardInfo, error) {
	atr, err := iso7816.ParseATR(rawATR)
	if err != nil {
		return CardInfo{}, err
	}

	hist := atr.Historical
	if len(hist) == 0 || hist[0] != categoryStatusLast {
		return CardInfo{}, ErrNotStorageCard
	}

	packets, err := bertlv.Decode(hist[1:])
	if err != nil {
		return CardInfo{}, fmt.Errorf("%w: %w", ErrNotStorageCard, err)
	}

	for _, p := range packets {
		if !strings.EqualFold(p.Tag, tagApplicationID) {
			continue
		}
		aid := p.Value
		if len(aid) < len(pcscRID)+3 || !bytes.Equal(aid[:len(pcscRID)], pcscRID) {
			return CardInfo{}, fmt.Errorf("%w: AID %s", ErrNotStorageCard, iso7816.Format(aid))
		}
		rest := aid[len(pcscRID):]
		return CardInfo{
			Standard: rest[0],
			Name:     CardName(uint16(rest[1])<<8 | uint16(rest[2])),
		}, nil
	}
	return CardInfo{}, ErrNotStorageCard
}
