package encryption

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeccak256(t *testing.T) {
	cs := NewCryptoService()

	// Keccak-256 of the empty string.
	assert.Equal(t, "c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470",
		hex.EncodeToString(cs.Keccak256()))

	assert.Equal(t, cs.Keccak256([]byte("ab")), cs.Keccak256([]byte("a"), []byte("b")))
}

func TestVoteID(t *testing.T) {
	cs := NewCryptoService()

	id := cs.VoteID([]byte("seed"))
	require.True(t, strings.HasPrefix(id, VoteIDPrefix))
	suffix := strings.TrimPrefix(id, VoteIDPrefix)
	assert.Len(t, suffix, 2*voteIDBytes)
	_, err := hex.DecodeString(suffix)
	assert.NoError(t, err)

	assert.Equal(t, id, cs.VoteID([]byte("seed")))
	assert.NotEqual(t, id, cs.VoteID([]byte("other")))
}

func TestEncodeHash(t *testing.T) {
	assert.Equal(t, "0x00ff", NewCryptoService().EncodeHash([]byte{0x00, 0xff}))
}
