package quantum

import (
	"encoding/json"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSift(t *testing.T) {
	senderBits := Bits{1, 0, 1, 1, 0}
	senderBases := Bits{0, 1, 1, 0, 0}
	receiverBases := Bits{0, 0, 1, 1, 0}
	observed := Bits{1, 1, 0, 0, 0}

	key, err := Sift(senderBits, senderBases, receiverBases, observed)
	require.NoError(t, err)
	assert.Equal(t, Bits{1, 1, 0}, key.Alice)
	assert.Equal(t, Bits{1, 0, 0}, key.Bob)
	assert.Equal(t, 3, key.Len())
	assert.Equal(t, 1, key.Mismatches())
}

func TestSiftRejectsUnequalLengths(t *testing.T) {
	_, err := Sift(Bits{0, 1}, Bits{0}, Bits{0, 1}, Bits{0, 1})
	require.ErrorIs(t, err, ErrInvalidParameter)
}

func TestRandomBitsAreBinary(t *testing.T) {
	r := rand.New(NewSource(1))
	bits := RandomBits(r, 1000)
	require.Len(t, bits, 1000)

	ones := 0
	for _, b := range bits {
		require.LessOrEqual(t, b, uint8(1))
		ones += int(b)
	}
	assert.InDelta(t, 500, ones, 100)
}

func TestBitsJSON(t *testing.T) {
	data, err := json.Marshal(Bits{1, 0, 0, 1})
	require.NoError(t, err)
	assert.JSONEq(t, `"1001"`, string(data))

	var decoded Bits
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, Bits{1, 0, 0, 1}, decoded)

	require.Error(t, json.Unmarshal([]byte(`"102"`), &decoded))
}
