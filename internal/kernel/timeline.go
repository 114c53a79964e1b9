package kernel

import (
	"fmt"
	"io"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/joeycumines/logiface"
)

// Timeline is the single-threaded cooperative scheduler. It
// owns the EventList, the current simulated time, and the set of registered
// entities, and drives the simulation loop. Timeline is not safe for
// concurrent use from multiple goroutines: only the optional progress
// display (WithProgress) may read it concurrently, and it only ever reads
// Now/StopTime via atomics.
type Timeline struct {
	id uuid.UUID

	events   *EventList
	entities []Entity
	names    map[string]struct{}

	now      atomic.Int64
	stopTime atomic.Int64
	running  bool

	eventCounter uint64
	rng          *rand.Rand
	seed         uint64

	logger *logiface.Logger[logiface.Event]

	progressStop chan struct{}
	progressDone chan struct{}
}

// Option configures a Timeline at construction, mirroring the functional
// option pattern used for eventloop.LoopOption/resolveLoopOptions.
type Option func(*Timeline)

// WithStopTime sets the stop time.
// If omitted, the Timeline runs until the event list is empty.
func WithStopTime(t PicoSeconds) Option {
	return func(tl *Timeline) { tl.stopTime.Store(int64(t)) }
}

// WithLogger attaches a structured logger (github.com/joeycumines/logiface)
// to the Timeline; entities constructed against this Timeline can retrieve
// it via Timeline.Logger for consistent structured logging, grounded on the
// field-injected Logger used by comparable structured-logging call sites.
func WithLogger(l *logiface.Logger[logiface.Event]) Option {
	return func(tl *Timeline) { tl.logger = l }
}

// WithSeed seeds the Timeline's own deterministic generator (Rand). Entities
// in this module do not read it: Cascade seeds its per-pass permutation by
// pass number alone, and the bb84 oracles take their own seed.
func WithSeed(seed uint64) Option {
	return func(tl *Timeline) { tl.seed = seed }
}

// NewTimeline constructs a Timeline ready for entity registration.
func NewTimeline(opts ...Option) *Timeline {
	tl := &Timeline{
		id:     uuid.New(),
		events: NewEventList(),
		names:  make(map[string]struct{}),
	}
	tl.stopTime.Store(int64(NoStopTime))
	for _, opt := range opts {
		opt(tl)
	}
	if tl.logger == nil {
		tl.logger = logiface.New[logiface.Event]()
	}
	tl.rng = rand.New(rand.NewPCG(tl.seed, tl.seed^0x9e3779b97f4a7c15))
	return tl
}

// ID returns the Timeline's run identifier, included as a field on
// structured log records emitted by the timeline or its entities.
func (t *Timeline) ID() uuid.UUID { return t.id }

// Logger returns the Timeline's structured logger.
func (t *Timeline) Logger() *logiface.Logger[logiface.Event] { return t.logger }

// Now returns the current simulated time.
func (t *Timeline) Now() PicoSeconds { return PicoSeconds(t.now.Load()) }

// StopTime returns the configured stop time.
func (t *Timeline) StopTime() PicoSeconds { return PicoSeconds(t.stopTime.Load()) }

// SetStopTime changes the stop time; a subsequent Run call resumes from
// wherever the event list left off. An event sitting exactly at the old
// stop-time boundary stays at the head of the list and is executed once the
// boundary is raised past it.
func (t *Timeline) SetStopTime(stop PicoSeconds) { t.stopTime.Store(int64(stop)) }

// Pending returns the number of events still in the event list.
func (t *Timeline) Pending() int { return t.events.Len() }

// PeekNextEvent returns the earliest pending event without removing it.
func (t *Timeline) PeekNextEvent() (*Event, bool) { return t.events.Peek() }

// Seed reseeds all random sources used by the timeline and, by convention,
// any entity that derives its own generators from Timeline.Rand.
func (t *Timeline) Seed(seed uint64) {
	t.seed = seed
	t.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Rand returns the Timeline-owned deterministic generator. Entities that
// need their own reproducible sub-streams should derive a local generator
// keyed by (seed, extra) rather than mutate this one.
func (t *Timeline) Rand() *rand.Rand { return t.rng }

// SeedValue returns the seed last passed to WithSeed/Seed, for components
// that need to derive their own keyed sub-generators.
func (t *Timeline) SeedValue() uint64 { return t.seed }

// Register adds an entity to the timeline. Entities must be registered
// before Init is called. Returns ErrDuplicateEntityName if the name
// collides with an already-registered entity.
func (t *Timeline) Register(e Entity) error {
	name := e.Name()
	if _, exists := t.names[name]; exists {
		return fmt.Errorf("kernel: register %q: %w", name, ErrDuplicateEntityName)
	}
	t.names[name] = struct{}{}
	t.entities = append(t.entities, e)
	return nil
}

// Schedule pushes event into the event list. Pushing an event with Time
// before the Timeline's current time is a programming error.
func (t *Timeline) Schedule(event *Event) error {
	if event.Time < t.Now() {
		return &ScheduleError{Entity: event.Proc.Owner, Cause: ErrEventInPast}
	}
	t.eventCounter++
	t.events.Push(event)
	return nil
}

// RemoveEvent cancels event so it will never execute (used by e.g.
// memory-expiration rescheduling in the wider system; exposed here for
// completeness of the kernel contract).
func (t *Timeline) RemoveEvent(event *Event) bool {
	return t.events.Remove(event)
}

// Reschedule changes event's execution time, equivalent to Remove+Push.
func (t *Timeline) Reschedule(event *Event, newTime PicoSeconds) error {
	t.events.Remove(event)
	event.Time = newTime
	return t.Schedule(event)
}

// Init invokes Init on every registered entity exactly once, in
// registration order. Initialization may itself schedule
// events.
func (t *Timeline) Init() {
	for _, e := range t.entities {
		e.Init(t)
	}
}

// Run drives the simulation loop until the event list is empty or the next
// event's time is at or beyond StopTime.
func (t *Timeline) Run() error {
	if t.running {
		return ErrAlreadyRunning
	}
	t.running = true
	defer func() { t.running = false }()

	t.logger.Info().Str("run_id", t.id.String()).Log("timeline run started")

	for {
		event, ok := t.events.Peek()
		if !ok {
			break
		}
		if event.Time >= t.StopTime() {
			break
		}

		popped, err := t.events.Pop()
		if err != nil {
			// The Peek above guarantees non-empty; a mismatch here is a
			// kernel bug, not a user-facing condition.
			return err
		}
		if popped.Time < t.Now() {
			return &ScheduleError{Entity: popped.Proc.Owner, Cause: ErrEventInPast}
		}
		t.now.Store(int64(popped.Time))
		if err := popped.Proc.Run(); err != nil {
			t.logger.Err().Str("run_id", t.id.String()).Str("entity", popped.Proc.Owner).Str("error", err.Error()).Log("timeline run aborted")
			return err
		}
	}

	t.logger.Info().Str("run_id", t.id.String()).Int("events_scheduled", int(t.eventCounter)).Log("timeline run finished")
	return nil
}

// Stop sets StopTime to the current time, causing Run to exit at its next
// iteration.
func (t *Timeline) Stop() {
	t.stopTime.Store(t.now.Load())
}

// WithProgress starts a read-only background goroutine that periodically
// writes simulated/elapsed time to w. The display must never touch the
// event list or mutate time, only read Now/StopTime.
// The returned stop function must be called to terminate the goroutine.
func (t *Timeline) WithProgress(w io.Writer, interval time.Duration) (stop func()) {
	t.progressStop = make(chan struct{})
	t.progressDone = make(chan struct{})
	start := time.Now()
	go func() {
		defer close(t.progressDone)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-t.progressStop:
				return
			case <-ticker.C:
				simTime := FormatDuration(t.Now())
				stopTime := "unbounded"
				if st := t.StopTime(); st != NoStopTime {
					stopTime = FormatDuration(st)
				}
				fmt.Fprintf(w, "\rexecution time: %s; simulation time: %s / %s",
					time.Since(start).Round(time.Millisecond), simTime, stopTime)
			}
		}
	}()
	return func() {
		close(t.progressStop)
		<-t.progressDone
	}
}
