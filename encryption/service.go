package encryption

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/sha3"
)

const (
	// VoteIDPrefix marks vote identifiers.
	VoteIDPrefix = "VOTE_HASH_"
	voteIDBytes  = 10
)

type CryptoService struct{}

func NewCryptoService() *CryptoService {
	return &CryptoService{}
}

// Keccak256 computes Keccak-256 hash
func (cs *CryptoService) Keccak256(data ...[]byte) []byte {
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	return d.Sum(nil)
}

// VoteID derives a public vote identifier from seed. The identifier is not a
// secret; it only has to be collision free.
func (cs *CryptoService) VoteID(seed []byte) string {
	digest := crypto.Keccak256(seed)
	return VoteIDPrefix + common.Bytes2Hex(digest[:voteIDBytes])
}

// EncodeHash renders a digest as 0x-prefixed hex.
func (cs *CryptoService) EncodeHash(digest []byte) string {
	return hexutil.Encode(digest)
}
