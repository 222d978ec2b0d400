package quantum

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
)

// Bits is an ordered sequence of 0/1 values. It is used for bit choices,
// basis choices and observed measurement outcomes alike.
type Bits []uint8

// RandomBits draws n independent uniform bits.
func RandomBits(r *rand.Rand, n int) Bits {
	b := make(Bits, n)
	for i := range b {
		b[i] = uint8(r.IntN(2))
	}
	return b
}

func (b Bits) String() string {
	out := make([]byte, len(b))
	for i, v := range b {
		out[i] = '0' + v
	}
	return string(out)
}

// MarshalJSON renders the sequence as a string of '0' and '1' characters
// rather than the base64 encoding encoding/json uses for byte slices.
func (b Bits) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.String())
}

func (b *Bits) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	out := make(Bits, len(s))
	for i, c := range s {
		switch c {
		case '0', '1':
			out[i] = uint8(c - '0')
		default:
			return fmt.Errorf("invalid bit %q at position %d", c, i)
		}
	}
	*b = out
	return nil
}

// SiftedKey holds the bits both parties keep after discarding positions
// where their bases disagreed.
type SiftedKey struct {
	Alice Bits `json:"alice"`
	Bob   Bits `json:"bob"`
}

// Len returns the number of retained positions.
func (k SiftedKey) Len() int { return len(k.Alice) }

// Mismatches counts retained positions where the two parties disagree.
func (k SiftedKey) Mismatches() int {
	n := 0
	for i := range k.Alice {
		if k.Alice[i] != k.Bob[i] {
			n++
		}
	}
	return n
}

// Sift keeps the positions where senderBases and receiverBases agree.
func Sift(senderBits, senderBases, receiverBases, observed Bits) (SiftedKey, error) {
	n := len(senderBits)
	if len(senderBases) != n || len(receiverBases) != n || len(observed) != n {
		return SiftedKey{}, fmt.Errorf("%w: sequence lengths differ (%d, %d, %d, %d)",
			ErrInvalidParameter, n, len(senderBases), len(receiverBases), len(observed))
	}

	key := SiftedKey{Alice: make(Bits, 0, n/2+1), Bob: make(Bits, 0, n/2+1)}
	for i := 0; i < n; i++ {
		if senderBases[i] == receiverBases[i] {
			key.Alice = append(key.Alice, senderBits[i])
			key.Bob = append(key.Bob, observed[i])
		}
	}
	return key, nil
}
