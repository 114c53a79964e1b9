package cascade

import (
	"fmt"
	"math"

	"github.com/joeycumines/logiface"

	"github.com/SagarPatange/sequence-go/internal/kernel"
)

// Role identifies which side of a Cascade link an entity plays. Only the
// sender may initiate key generation; the receiver drives reconciliation by
// requesting checksums and probing for errors.
type Role int

const (
	RoleSender Role = iota
	RoleReceiver
)

func (r Role) String() string {
	if r == RoleSender {
		return "sender"
	}
	return "receiver"
}

// sampleSize is the length, in bits, of the initial key sample used to
// estimate the channel's bit error rate.
const sampleSize = 10000

// Cascade is one side of an interactive, multi-pass information
// reconciliation session. Two Cascade entities, joined by a
// ClassicalChannel and each backed by a BB84Oracle, converge a sender's key
// and a receiver's noisy copy of it to agreement.
type Cascade struct {
	name string
	role Role
	w    int

	tl      *kernel.Timeline
	channel *ClassicalChannel
	peer    *Cascade
	oracle  BB84Oracle
	logger  *logiface.Logger[logiface.Event]

	state  int
	keylen int
	key    *Key
	k      int

	sampleKey *Key // the receiver's sampleSize-bit probe key, held until sent to the sender

	checksumTable   [][]bool // checksumTable[p][b], p in [1, numPasses]
	anotherChecksum [][]bool
	indexToBlockID  [][]int // indexToBlockID[p][i] -> block id
	blockIDToIndex  [][][]int

	// OnDone, if set, is invoked once reconciliation stops responding to
	// further checksum requests (no further passes scheduled). It is a test
	// and demo hook, not part of the protocol.
	OnDone func()
}

// Option configures a Cascade at construction.
type Option func(*Cascade)

// WithW sets the maximum number of passes.
func WithW(w int) Option {
	return func(c *Cascade) { c.w = w }
}

// WithLogger attaches a structured logger; defaults to the Timeline's.
func WithLogger(l *logiface.Logger[logiface.Event]) Option {
	return func(c *Cascade) { c.logger = l }
}

// NewCascade constructs a Cascade entity. It must be registered with a
// Timeline, wired to a peer via NewClassicalChannel, and given an oracle via
// SetOracle before Init/Run.
func NewCascade(name string, role Role, opts ...Option) (*Cascade, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", ErrInvalidConfig)
	}
	c := &Cascade{name: name, role: role, w: 4, anotherChecksum: make([][]bool, 1)}
	for _, opt := range opts {
		opt(c)
	}
	if c.w < 1 {
		return nil, fmt.Errorf("%w: w must be >= 1, got %d", ErrInvalidConfig, c.w)
	}
	return c, nil
}

// Name implements kernel.Entity.
func (c *Cascade) Name() string { return c.name }

// Init implements kernel.Entity. Cascade schedules nothing at init time; the
// driver kicks off the session by calling GenerateKey on the sender.
func (c *Cascade) Init(tl *kernel.Timeline) {
	c.tl = tl
	if c.logger == nil {
		c.logger = tl.Logger()
	}
}

// SetOracle attaches the BB84 oracle this entity asks for keys.
func (c *Cascade) SetOracle(o BB84Oracle) { c.oracle = o }

// wire is called by NewClassicalChannel to attach the channel and peer.
func (c *Cascade) wire(ch *ClassicalChannel, peer *Cascade) {
	c.channel = ch
	c.peer = peer
}

// Role returns the entity's role.
func (c *Cascade) Role() Role { return c.role }

// State returns the current pass/state counter, for tests and diagnostics.
func (c *Cascade) State() int { return c.state }

// Key returns the entity's current (possibly still-noisy) key, or nil if
// none has been delivered yet.
func (c *Cascade) Key() *Key { return c.key }

// GenerateKey asks for a fresh key of the given length. Only the sender may
// call this; receivers get their key pushed to them by the oracle as a side
// effect of the sender's request.
func (c *Cascade) GenerateKey(keyLen int) error {
	if c.role == RoleReceiver {
		return &ProtocolError{Entity: c.name, State: c.state, Cause: ErrRoleViolation}
	}
	if c.oracle == nil || c.channel == nil {
		return ErrNotWired
	}
	if c.state == 0 {
		c.keylen = keyLen
		c.oracle.GenerateKey(c, sampleSize)
		return nil
	}
	c.oracle.GenerateKey(c, keyLen)
	return nil
}

// DeliverKey is the oracle's callback, invoked exactly once per requested
// key, on both ends of the link.
func (c *Cascade) DeliverKey(key *Key) error {
	c.key = key

	if c.state == 1 {
		if err := c.createChecksumTables(); err != nil {
			return err
		}
	}

	switch {
	case c.state == 0 && c.role == RoleReceiver:
		c.sampleKey = key
		return c.sendSampleKey()
	case c.state == 1 && c.role == RoleSender:
		return c.sendChecksum(c.state, 0)
	}
	return nil
}

// sendSampleKey schedules delivery of the receiver's sampleSize-bit probe
// key to the sender, who uses it to estimate the bit error rate.
func (c *Cascade) sendSampleKey() error {
	sample := c.sampleKey
	return c.channel.send(c.tl, c, func() error {
		if err := c.peer.receiveSampleKey(sample); err != nil {
			c.logErr("receiveSampleKey", err)
			return err
		}
		return nil
	})
}

// receiveSampleKey runs on the sender: it compares the receiver's probe key
// against its own, estimates the bit error rate, derives the pass-1 block
// size k, and sends those parameters to the receiver.
func (c *Cascade) receiveSampleKey(otherSample *Key) error {
	if c.role == RoleReceiver {
		return &ProtocolError{Entity: c.name, State: c.state, Cause: ErrRoleViolation}
	}
	mySample := c.sampleKey
	if mySample == nil {
		mySample = c.key
	}
	diff := mySample.HammingDistance(otherSample)
	p := float64(diff) / float64(sampleSize)
	if p == 0 {
		p = 1.0 / float64(sampleSize)
	}
	c.k = computeBlockSizeK1(p)
	c.state = 1
	return c.sendParams(c.k, c.keylen)
}

// sendParams schedules receiveParams(k, keylen) on the peer.
func (c *Cascade) sendParams(k, keylen int) error {
	return c.channel.send(c.tl, c, func() error {
		if err := c.peer.receiveParams(k, keylen); err != nil {
			c.logErr("receiveParams", err)
			return err
		}
		return nil
	})
}

// receiveParams runs on the receiver: it records (k, keylen), transitions to
// state 1, and asks the sender to (re)call GenerateKey for the real,
// keylen-bit key, which the oracle will deliver to both sides.
func (c *Cascade) receiveParams(k, keylen int) error {
	if c.role == RoleSender {
		return &ProtocolError{Entity: c.name, State: c.state, Cause: ErrRoleViolation}
	}
	c.k = k
	c.keylen = keylen
	c.state = 1
	c.anotherChecksum = append(c.anotherChecksum, nil)

	return c.channel.send(c.tl, c, func() error {
		if err := c.peer.GenerateKey(c.keylen); err != nil {
			c.logErr("GenerateKey", err)
			return err
		}
		return nil
	})
}

// computeBlockSizeK1 finds the largest positive integer k such that
//
//	k*p - (1-(1-2p)^k)/2 <= ln(2)/2
//
// via monotonic binary search over [0, sampleSize].
func computeBlockSizeK1(p float64) int {
	const threshold = math.Ln2 / 2
	satisfies := func(k int) bool {
		kf := float64(k)
		return kf*p-(1-math.Pow(1-2*p, kf))/2 <= threshold
	}
	lower, upper := 0, sampleSize
	for lower < upper {
		mid := (lower + upper + 1) / 2
		if satisfies(mid) {
			lower = mid
		} else {
			upper = mid - 1
		}
	}
	return lower
}

func (c *Cascade) logErr(op string, err error) {
	if c.logger == nil || err == nil {
		return
	}
	b := c.logger.Err()
	if c.tl != nil {
		b = b.Str("run_id", c.tl.ID().String())
	}
	b.Str("entity", c.name).Str("op", op).Str("error", err.Error()).Log("cascade operation failed")
}
