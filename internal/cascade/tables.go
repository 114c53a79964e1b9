package cascade

import "math/rand/v2"

// createChecksumTables builds the per-pass block assignment and checksum
// tables once the real, keylen-bit key has arrived. Both sides of a link build identical tables: pass 1
// assigns contiguous blocks of size k, later passes permute [0, keylen)
// deterministically (seeded solely by the pass id) before chunking, so both
// parties derive the same block membership without exchanging it.
//
// Index 0 of each table is left nil; passes are 1-indexed throughout to
// match the protocol's own numbering (state is also the current pass id).
func (c *Cascade) createChecksumTables() error {
	if c.keylen <= 0 {
		return &ProtocolError{Entity: c.name, State: c.state, Cause: ErrInvalidConfig}
	}

	c.checksumTable = make([][]bool, 1)
	c.indexToBlockID = make([][]int, 1)
	c.blockIDToIndex = make([][][]int, 1)

	for pass := 1; pass <= c.w; pass++ {
		blockSize := c.k << uint(pass-1)
		if pass > 1 && blockSize/2 >= c.keylen {
			break
		}

		indexToBlockID := make([]int, c.keylen)
		blockNum := (c.keylen + blockSize - 1) / blockSize
		blockIDToIndex := make([][]int, blockNum)
		for b := 0; b < blockNum; b++ {
			size := blockSize
			if b == blockNum-1 {
				size = c.keylen - b*blockSize
			}
			blockIDToIndex[b] = make([]int, size)
		}

		var position []int
		if pass == 1 {
			position = nil // identity: position(i) == i
		} else {
			position = permute(c.keylen, pass)
		}

		for i := 0; i < c.keylen; i++ {
			pos := i
			if position != nil {
				pos = position[i]
			}
			blockID := pos / blockSize
			slot := pos % blockSize
			indexToBlockID[i] = blockID
			blockIDToIndex[blockID][slot] = i
		}

		checksum := make([]bool, blockNum)
		for b, idx := range blockIDToIndex {
			checksum[b] = c.key.XOROf(idx)
		}

		c.checksumTable = append(c.checksumTable, checksum)
		c.indexToBlockID = append(c.indexToBlockID, indexToBlockID)
		c.blockIDToIndex = append(c.blockIDToIndex, blockIDToIndex)
	}

	return nil
}

// permute returns a deterministic pseudo-random permutation of [0, n),
// seeded solely by pass id so both ends of a link derive the same block
// membership for pass >= 2 without any communication.
func permute(n, pass int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	rng := rand.New(rand.NewPCG(uint64(pass), uint64(pass)))
	rng.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })
	return order
}
