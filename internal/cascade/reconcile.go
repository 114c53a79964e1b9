package cascade

// sendChecksum runs on the sender. It advances the sender's own pass counter
// to match passID if the receiver has moved on to a new pass, then replies
// with checksumTable[passID][blockID]. Once passID runs past the last
// constructed pass, the sender simply stops responding: that silence is how
// the protocol terminates.
func (c *Cascade) sendChecksum(passID, blockID int) error {
	if passID > c.state {
		c.state++
	}
	if c.state >= len(c.checksumTable) {
		if c.OnDone != nil {
			c.OnDone()
		}
		return nil
	}
	checksum := c.checksumTable[passID][blockID]
	return c.channel.send(c.tl, c, func() error {
		if err := c.peer.receiveChecksum(passID, blockID, checksum); err != nil {
			c.logErr("receiveChecksum", err)
			return err
		}
		return nil
	})
}

// receiveChecksum runs on the receiver. Blocks must arrive in strict order
// within a pass, and passes in strict order overall; any other arrival is a
// protocol violation.
func (c *Cascade) receiveChecksum(passID, blockID int, checksum bool) error {
	if c.role == RoleSender {
		return &ProtocolError{Entity: c.name, State: c.state, Cause: ErrRoleViolation}
	}
	last := len(c.anotherChecksum) - 1
	inOrder := (passID == last && blockID == len(c.anotherChecksum[last])) ||
		(passID == last+1 && blockID == 0)
	if !inOrder {
		return &ProtocolError{Entity: c.name, State: c.state, Cause: ErrOutOfOrderChecksum}
	}
	if passID == last+1 {
		c.anotherChecksum = append(c.anotherChecksum, nil)
	}
	c.anotherChecksum[passID] = append(c.anotherChecksum[passID], checksum)

	if c.checksumTable[passID][blockID] == checksum {
		return c.requestNextChecksum()
	}
	blockSize := len(c.blockIDToIndex[passID][blockID])
	return c.interactiveBinarySearch(passID, blockID, 0, blockSize)
}

// requestNextChecksum runs on the receiver, advancing to the next block (or
// next pass) and asking the sender for its checksum.
func (c *Cascade) requestNextChecksum() error {
	if c.state >= len(c.checksumTable) {
		return nil
	}
	var blockID int
	if len(c.checksumTable[c.state]) > len(c.anotherChecksum[c.state]) {
		blockID = len(c.anotherChecksum[c.state])
	} else {
		c.state++
		blockID = 0
		c.anotherChecksum = append(c.anotherChecksum, nil)
	}
	passID := c.state
	return c.channel.send(c.tl, c, func() error {
		if err := c.peer.sendChecksum(passID, blockID); err != nil {
			c.logErr("sendChecksum", err)
			return err
		}
		return nil
	})
}

// sendForBinary runs on the sender: it answers a binary-search probe over
// [start, end) of the given block with the parity of its own bits in that
// range.
func (c *Cascade) sendForBinary(passID, blockID, start, end int) error {
	indices := c.blockIDToIndex[passID][blockID][start:end]
	checksum := c.key.XOROf(indices)
	return c.channel.send(c.tl, c, func() error {
		if err := c.peer.receiveForBinary(passID, blockID, start, end, checksum); err != nil {
			c.logErr("receiveForBinary", err)
			return err
		}
		return nil
	})
}

// receiveForBinary runs on the receiver: if its own parity over [start, end)
// disagrees with the sender's, either the range is narrowed further or, once
// it's down to a single bit, that bit is flipped and the checksum of the
// block holding it is toggled in every constructed pass's table.
func (c *Cascade) receiveForBinary(passID, blockID, start, end int, senderChecksum bool) error {
	if c.role == RoleSender {
		return &ProtocolError{Entity: c.name, State: c.state, Cause: ErrRoleViolation}
	}
	indices := c.blockIDToIndex[passID][blockID][start:end]
	mine := c.key.XOROf(indices)
	if mine == senderChecksum {
		return nil
	}
	if end-start == 1 {
		pos := indices[0]
		c.key.Flip(pos)
		for q := 1; q < len(c.checksumTable); q++ {
			block := c.indexToBlockID[q][pos]
			c.checksumTable[q][block] = !c.checksumTable[q][block]
		}
		if c.state == 1 {
			return c.requestNextChecksum()
		}
		corrected, err := c.correctErrorInPrevious()
		if err != nil {
			return err
		}
		if !corrected {
			return c.requestNextChecksum()
		}
		return nil
	}
	return c.interactiveBinarySearch(passID, blockID, start, end)
}

// interactiveBinarySearch runs on the receiver: it splits [start, end) and
// asks the sender for the parity of each half.
func (c *Cascade) interactiveBinarySearch(passID, blockID, start, end int) error {
	mid := (start + end) / 2
	ask := func(lo, hi int) error {
		return c.channel.send(c.tl, c, func() error {
			if err := c.peer.sendForBinary(passID, blockID, lo, hi); err != nil {
				c.logErr("sendForBinary", err)
				return err
			}
			return nil
		})
	}
	if err := ask(start, mid); err != nil {
		return err
	}
	return ask(mid, end)
}

// correctErrorInPrevious runs on the receiver after a pass > 1 bit flip: it
// scans every earlier pass for a block whose checksum no longer matches the
// sender's last-known value for it (the flip just performed may have broken
// an earlier block's agreement) and, on the first mismatch found, starts a
// new binary search into that block. Returns whether it found one.
func (c *Cascade) correctErrorInPrevious() (bool, error) {
	for q := 1; q < c.state; q++ {
		for b, known := range c.anotherChecksum[q] {
			if c.checksumTable[q][b] != known {
				blockSize := len(c.blockIDToIndex[q][b])
				if err := c.interactiveBinarySearch(q, b, 0, blockSize); err != nil {
					return false, err
				}
				return true, nil
			}
		}
	}
	return false, nil
}
