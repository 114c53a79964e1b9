package cascade

import "github.com/SagarPatange/sequence-go/internal/kernel"

// ClassicalChannel is a simulated point-to-point classical link between two
// Cascade entities, with a fixed one-way delay. All protocol messages
// (params, checksums, binary-search probes) travel over it, arriving
// strictly in the order they were sent since the kernel's event list breaks
// same-time ties by insertion order.
type ClassicalChannel struct {
	Delay kernel.PicoSeconds
	End1  *Cascade
	End2  *Cascade
}

// NewClassicalChannel builds a channel connecting a and b and wires each
// entity's peer/channel fields.
func NewClassicalChannel(delay kernel.PicoSeconds, a, b *Cascade) *ClassicalChannel {
	ch := &ClassicalChannel{Delay: delay, End1: a, End2: b}
	a.wire(ch, b)
	b.wire(ch, a)
	return ch
}

// peerOf returns the end of the channel opposite from.
func (c *ClassicalChannel) peerOf(from *Cascade) *Cascade {
	if c.End1 == from {
		return c.End2
	}
	return c.End1
}

// send schedules fn to run on the peer of from, Delay picoseconds from now.
// A non-nil error from fn is fatal: it propagates through Timeline.Run
// rather than being logged and swallowed.
func (c *ClassicalChannel) send(tl *kernel.Timeline, from *Cascade, fn func() error) error {
	peer := c.peerOf(from)
	return tl.Schedule(&kernel.Event{
		Time: tl.Now() + c.Delay,
		Proc: kernel.Process{Owner: peer.Name(), Handler: fn},
	})
}
