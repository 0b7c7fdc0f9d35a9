// Package bloom implements the duplicate-search filter: a fixed-size bloom
// filter answering "was this (product, platform) pair searched recently?".
// False positives are possible and bounded by the configured rate; false
// negatives are not. Bits only ever transition unset -> set, so concurrent
// inserts cannot corrupt the array and no locking is needed.
package bloom

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/bits"
	"sync/atomic"
)

type Filter struct {
	words   []atomic.Uint64
	numBits uint64
	hashes  uint64
}

// New sizes the bit array and hash count for the expected item count at the
// target false-positive rate.
func New(expectedItems uint64, falsePositiveRate float64) (*Filter, error) {
	if expectedItems == 0 {
		return nil, fmt.Errorf("bloom: expected items must be > 0")
	}
	if falsePositiveRate <= 0 || falsePositiveRate >= 1 {
		return nil, fmt.Errorf("bloom: false positive rate %v outside (0,1)", falsePositiveRate)
	}

	ln2 := math.Ln2
	numBits := uint64(math.Ceil(-float64(expectedItems) * math.Log(falsePositiveRate) / (ln2 * ln2)))
	if numBits < 64 {
		numBits = 64
	}
	hashes := uint64(math.Round(float64(numBits) / float64(expectedItems) * ln2))
	if hashes < 1 {
		hashes = 1
	}

	numWords := (numBits + 63) / 64
	return &Filter{
		words:   make([]atomic.Uint64, numWords),
		numBits: numWords * 64,
		hashes:  hashes,
	}, nil
}

// positions derives the k probe positions by double hashing two FNV-64
// digests of the key.
func (f *Filter) positions(key []byte) (uint64, uint64) {
	h1 := fnv.New64a()
	h1.Write(key)
	a := h1.Sum64()

	h2 := fnv.New64()
	h2.Write(key)
	b := h2.Sum64() | 1 // odd stride so probes cover the array

	return a, b
}

// Insert sets the k bits for key. Idempotent, safe for concurrent use.
func (f *Filter) Insert(key []byte) {
	a, b := f.positions(key)
	for i := uint64(0); i < f.hashes; i++ {
		bit := (a + i*b) % f.numBits
		f.words[bit/64].Or(1 << (bit % 64))
	}
}

// MightContain reports whether key may have been inserted. A false return is
// authoritative; a true return may be a false positive.
func (f *Filter) MightContain(key []byte) bool {
	a, b := f.positions(key)
	for i := uint64(0); i < f.hashes; i++ {
		bit := (a + i*b) % f.numBits
		if f.words[bit/64].Load()&(1<<(bit%64)) == 0 {
			return false
		}
	}
	return true
}

// LoadFactor returns the fraction of set bits. Callers should swap in a
// fresh filter once this crosses their high-water mark; the filter never
// rebuilds itself.
func (f *Filter) LoadFactor() float64 {
	var set int
	for i := range f.words {
		set += bits.OnesCount64(f.words[i].Load())
	}
	return float64(set) / float64(f.numBits)
}
