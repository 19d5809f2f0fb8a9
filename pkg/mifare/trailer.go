package mifare

import (
	"fmt"

	"github.com/gregLibert/mifare-pcsc/pkg/iso7816"
)

// TrailerLen is the size of a sector trailer block.
const TrailerLen = BlockSize

// SectorTrailer is the decoded content of the last block of a sector.
type SectorTrailer struct {
	KeyA   []byte
	Access AccessCondition
	KeyB   []byte
}

// Pack encodes the trailer as KeyA | access conditions | KeyB.
func (t SectorTrailer) Pack() ([]byte, error) {
	if len(t.KeyA) != KeyLen {
		return nil, lengthError("key A", len(t.KeyA), KeyLen)
	}
	if len(t.KeyB) != KeyLen {
		return nil, lengthError("key B", len(t.KeyB), KeyLen)
	}
	acs, err := t.Access.Pack()
	if err != nil {
		return nil, fmt.Errorf("access conditions: %w", err)
	}

	out := make([]byte, 0, TrailerLen)
	out = append(out, t.KeyA...)
	out = append(out, acs...)
	out = append(out, t.KeyB...)
	return out, nil
}

// UnpackTrailer decodes a 16-byte trailer block. The keys are copied out of block.
func UnpackTrailer(block []byte) (SectorTrailer, error) {
	if len(block) != TrailerLen {
		return SectorTrailer{}, lengthError("trailer", len(block), TrailerLen)
	}
	acs, err := UnpackAccessCondition(block[6:10])
	if err != nil {
		return SectorTrailer{}, err
	}
	return SectorTrailer{
		KeyA:   append([]byte(nil), block[0:6]...),
		Access: acs,
		KeyB:   append([]byte(nil), block[10:16]...),
	}, nil
}

func (t SectorTrailer) String() string {
	return fmt.Sprintf("KeyA=%s | %s | KeyB=%s", iso7816.Format(t.KeyA), t.Access, iso7816.Format(t.KeyB))
}
