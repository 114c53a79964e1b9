// Package bb84 provides BB84Oracle implementations standing in for the
// quantum-key-distribution layer beneath Cascade. Cascade never
// observes the underlying physics; it only ever calls GenerateKey and waits
// for DeliverKey, so these oracles are free to synthesize correlated,
// optionally noisy key pairs however is convenient for testing.
//
// Modeled on a demo BB84 stub that links two instances so a single
// generate-key call on one delivers a key to both Cascade parents.
package bb84

import (
	"math/rand/v2"

	"github.com/SagarPatange/sequence-go/internal/cascade"
	"github.com/SagarPatange/sequence-go/internal/kernel"
)

// PairedOracle links two Cascade entities, standing in for a shared BB84
// apparatus: a single GenerateKey call (always made by the sender, per
// cascade.Cascade's role check) synthesizes one key per side and delivers
// both, after Latency, via DeliverKey.
type PairedOracle struct {
	Timeline  *kernel.Timeline
	A, B      *cascade.Cascade
	Latency   kernel.PicoSeconds
	ErrorRate float64

	rng *rand.Rand
}

// NewPairedOracle builds an oracle for the link between a and b, sharing it
// as each entity's oracle. seed makes the injected-error pattern
// reproducible across runs.
func NewPairedOracle(tl *kernel.Timeline, a, b *cascade.Cascade, errorRate float64, latency kernel.PicoSeconds, seed uint64) *PairedOracle {
	o := &PairedOracle{
		Timeline:  tl,
		A:         a,
		B:         b,
		Latency:   latency,
		ErrorRate: errorRate,
		rng:       rand.New(rand.NewPCG(seed, seed^0xd1b54a32d192ed03)),
	}
	a.SetOracle(o)
	b.SetOracle(o)
	return o
}

// GenerateKey implements cascade.BB84Oracle. requester is always the sender
// (Cascade.GenerateKey rejects receivers); the oracle still delivers a
// correlated key to both requester and its peer, since the receiver never
// calls GenerateKey itself.
func (o *PairedOracle) GenerateKey(requester *cascade.Cascade, keyLen int) {
	base := make([]int, keyLen)
	for i := range base {
		if o.rng.Float64() < 0.5 {
			base[i] = 1
		}
	}
	noisy := make([]int, keyLen)
	copy(noisy, base)
	for i := range noisy {
		if o.rng.Float64() < o.ErrorRate {
			noisy[i] ^= 1
		}
	}

	senderKey := cascade.KeyFromBits(base)
	receiverKey := cascade.KeyFromBits(noisy)

	peer := o.B
	senderSide := o.A
	if requester == o.B {
		senderSide, peer = o.B, o.A
	}

	at := o.Timeline.Now() + o.Latency
	_ = o.Timeline.Schedule(&kernel.Event{
		Time: at,
		Proc: kernel.Process{Owner: senderSide.Name(), Handler: func() error {
			return senderSide.DeliverKey(senderKey)
		}},
	})
	_ = o.Timeline.Schedule(&kernel.Event{
		Time: at,
		Proc: kernel.Process{Owner: peer.Name(), Handler: func() error {
			return peer.DeliverKey(receiverKey)
		}},
	})
}

// FixedErrorOracle is a deterministic test double: it always generates an
// all-ones sender key and flips exactly the given bit positions on the
// receiver's copy, for reproducing an exact, known error pattern in tests.
type FixedErrorOracle struct {
	Timeline  *kernel.Timeline
	A, B      *cascade.Cascade
	Latency   kernel.PicoSeconds
	ErrorBits []int // bit positions to flip in the receiver's copy
}

// NewFixedErrorOracle builds a deterministic oracle for the link between a
// and b.
func NewFixedErrorOracle(tl *kernel.Timeline, a, b *cascade.Cascade, errorBits []int, latency kernel.PicoSeconds) *FixedErrorOracle {
	o := &FixedErrorOracle{Timeline: tl, A: a, B: b, Latency: latency, ErrorBits: errorBits}
	a.SetOracle(o)
	b.SetOracle(o)
	return o
}

// GenerateKey implements cascade.BB84Oracle.
func (o *FixedErrorOracle) GenerateKey(requester *cascade.Cascade, keyLen int) {
	sender := cascade.NewKey(keyLen)
	for i := 0; i < keyLen; i++ {
		sender.Set(i)
	}
	receiver := sender.Clone()
	for _, bit := range o.ErrorBits {
		if bit < keyLen {
			receiver.Flip(bit)
		}
	}

	senderSide := o.A
	peer := o.B
	if requester == o.B {
		senderSide, peer = o.B, o.A
	}

	at := o.Timeline.Now() + o.Latency
	_ = o.Timeline.Schedule(&kernel.Event{
		Time: at,
		Proc: kernel.Process{Owner: senderSide.Name(), Handler: func() error {
			return senderSide.DeliverKey(sender)
		}},
	})
	_ = o.Timeline.Schedule(&kernel.Event{
		Time: at,
		Proc: kernel.Process{Owner: peer.Name(), Handler: func() error {
			return peer.DeliverKey(receiver)
		}},
	})
}
