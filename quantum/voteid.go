package quantum

import (
	"github.com/google/uuid"

	"qkd-voting-backend/encryption"
)

// IDGenerator issues vote identifiers that must not repeat within a process.
type IDGenerator interface {
	NewVoteID() (string, error)
}

// DigestIDGenerator hashes a random UUID into a VOTE_HASH_ identifier.
type DigestIDGenerator struct {
	crypto *encryption.CryptoService
}

func NewDigestIDGenerator() *DigestIDGenerator {
	return &DigestIDGenerator{crypto: encryption.NewCryptoService()}
}

func (g *DigestIDGenerator) NewVoteID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return g.crypto.VoteID(id[:]), nil
}
