package kernel

// Entity is the abstract unit of simulation behavior. Every
// entity has a name unique within its Timeline, and an Init hook invoked
// exactly once, in registration order, by Timeline.Init.
type Entity interface {
	// Name returns the entity's identifier, unique within its Timeline.
	Name() string

	// Init is called once, by Timeline.Init, before the run loop starts.
	// Initialization may itself schedule events.
	Init(t *Timeline)
}

// Process is a bound invocation, scheduled to run at a specific time.
//
// Process carries a pre-bound closure (Handler) together with the owning
// Entity's name, for diagnostics/logging, rather than a reflective
// (owner, method-name, args) triple. The closure captures whatever typed
// arguments the call needs; dispatch is an ordinary Go call, not a
// reflective lookup.
type Process struct {
	// Owner names the entity the process runs against, for logging only.
	Owner string
	// Handler is invoked when the process's event fires. A non-nil error
	// is a fatal condition: Timeline.Run stops the simulation and returns
	// it, rather than continuing on corrupted or incomplete state.
	Handler func() error
}

// Run invokes the process's handler. A nil Handler is a no-op, which lets
// a cancelled/tombstoned event be "run" harmlessly if ever popped after
// removal (EventList itself guards against this, but Run stays defensive).
func (p Process) Run() error {
	if p.Handler != nil {
		return p.Handler()
	}
	return nil
}

// Event pairs a scheduled time with a Process. Seq is the
// monotonically increasing insertion sequence used to break time ties
// deterministically; callers never set it directly, EventList.Push assigns
// it.
type Event struct {
	Time PicoSeconds
	Seq  uint64
	Proc Process
}
