package quantum

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"sync"
)

// lockedSource serializes access to an underlying source so a single
// *rand.Rand can be shared across goroutines.
type lockedSource struct {
	mu  sync.Mutex
	src rand.Source
}

func (s *lockedSource) Uint64() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.Uint64()
}

// NewSource returns a concurrency-safe PCG source. The same seed always
// yields the same stream.
func NewSource(seed uint64) rand.Source {
	return &lockedSource{src: rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)}
}

// NewRandomSource returns a concurrency-safe source seeded from crypto/rand.
func NewRandomSource() rand.Source {
	var seed [16]byte
	if _, err := crand.Read(seed[:]); err != nil {
		panic("quantum: failed to seed random source: " + err.Error())
	}
	return &lockedSource{src: rand.NewPCG(
		binary.LittleEndian.Uint64(seed[:8]),
		binary.LittleEndian.Uint64(seed[8:]),
	)}
}
