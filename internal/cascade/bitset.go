package cascade

import "math/bits"

// Key is a packed bitset representing a reconciled (or in-progress) shared
// key, up to tens of thousands of bits wide. It replaces the arbitrary
// precision integer representation (bit-test/flip by shift-and-mask) with
// 64-bit words and a Get/Flip/XORRange API, giving O(range/64) parity
// computation instead of O(range) big-integer shifts.
type Key struct {
	words []uint64
	bits  int
}

// NewKey returns a zeroed Key of the given bit length.
func NewKey(bitLen int) *Key {
	return &Key{words: make([]uint64, (bitLen+63)/64), bits: bitLen}
}

// KeyFromBits builds a Key from a slice of 0/1 values, bits[0] is bit index 0.
func KeyFromBits(bitValues []int) *Key {
	k := NewKey(len(bitValues))
	for i, v := range bitValues {
		if v&1 != 0 {
			k.Set(i)
		}
	}
	return k
}

// Len returns the key's bit length.
func (k *Key) Len() int { return k.bits }

// Get returns the value of bit i.
func (k *Key) Get(i int) bool {
	return k.words[i/64]&(uint64(1)<<uint(i%64)) != 0
}

// Set sets bit i to 1.
func (k *Key) Set(i int) {
	k.words[i/64] |= uint64(1) << uint(i%64)
}

// Flip inverts bit i.
func (k *Key) Flip(i int) {
	k.words[i/64] ^= uint64(1) << uint(i%64)
}

// XORRange returns the parity (XOR) of bits in [start, end).
func (k *Key) XORRange(start, end int) bool {
	if start >= end {
		return false
	}
	parity := false
	// Each step masks the part of the range that falls inside one 64-bit
	// word and folds in the parity of its popcount.
	for i := start; i < end; {
		wordIdx := i / 64
		bitIdx := i % 64
		wordEnd := (wordIdx + 1) * 64
		spanEnd := minOrdered(end, wordEnd)
		width := spanEnd - i
		mask := uint64(0)
		if width >= 64 {
			mask = ^uint64(0)
		} else {
			mask = ((uint64(1) << uint(width)) - 1) << uint(bitIdx)
		}
		if bits.OnesCount64(k.words[wordIdx]&mask)%2 == 1 {
			parity = !parity
		}
		i = spanEnd
	}
	return parity
}

// XOROf returns the parity of bits at the given indices, used by checksum
// table construction where the index set is a permutation, not a
// contiguous range.
func (k *Key) XOROf(indices []int) bool {
	parity := false
	for _, i := range indices {
		if k.Get(i) {
			parity = !parity
		}
	}
	return parity
}

// HammingDistance returns the number of differing bits between k and other.
// Both must have equal Len(). Cascade.receiveSampleKey uses this to estimate
// the channel's bit error rate from the initial probe keys; callers outside
// the protocol (tests, examples) use it to measure final convergence.
func (k *Key) HammingDistance(other *Key) int {
	count := 0
	n := minOrdered(len(k.words), len(other.words))
	for i := 0; i < n; i++ {
		count += bits.OnesCount64(k.words[i] ^ other.words[i])
	}
	return count
}

// Clone returns a deep copy of k.
func (k *Key) Clone() *Key {
	c := &Key{words: make([]uint64, len(k.words)), bits: k.bits}
	copy(c.words, k.words)
	return c
}
