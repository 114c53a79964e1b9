package kernel_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SagarPatange/sequence-go/internal/kernel"
)

type stubEntity struct {
	name   string
	inits  int
	onInit func(t *kernel.Timeline)
}

func (s *stubEntity) Name() string { return s.name }
func (s *stubEntity) Init(t *kernel.Timeline) {
	s.inits++
	if s.onInit != nil {
		s.onInit(t)
	}
}

func TestTimelineRunsEventsInOrder(t *testing.T) {
	tl := kernel.NewTimeline()
	var order []int
	e := &stubEntity{name: "e"}
	require.NoError(t, tl.Register(e))
	tl.Init()

	require.NoError(t, tl.Schedule(&kernel.Event{Time: 20, Proc: kernel.Process{Owner: "e", Handler: func() error { order = append(order, 2); return nil }}}))
	require.NoError(t, tl.Schedule(&kernel.Event{Time: 10, Proc: kernel.Process{Owner: "e", Handler: func() error { order = append(order, 1); return nil }}}))
	require.NoError(t, tl.Schedule(&kernel.Event{Time: 30, Proc: kernel.Process{Owner: "e", Handler: func() error { order = append(order, 3); return nil }}}))

	require.NoError(t, tl.Run())
	assert.Equal(t, []int{1, 2, 3}, order)
	assert.Equal(t, kernel.PicoSeconds(30), tl.Now())
}

func TestTimelineStopTimeBoundaryLeavesEventAtHead(t *testing.T) {
	tl := kernel.NewTimeline(kernel.WithStopTime(50))
	e := &stubEntity{name: "e"}
	require.NoError(t, tl.Register(e))
	tl.Init()

	ran := false
	boundary := &kernel.Event{Time: 50, Proc: kernel.Process{Owner: "e", Handler: func() error { ran = true; return nil }}}
	require.NoError(t, tl.Schedule(boundary))

	require.NoError(t, tl.Run())
	assert.False(t, ran, "event at the stop time must not execute")
	require.Equal(t, 1, tl.Pending())

	head, ok := tl.PeekNextEvent()
	require.True(t, ok)
	assert.Same(t, boundary, head)
}

func TestTimelineResumesPastStopTime(t *testing.T) {
	tl := kernel.NewTimeline(kernel.WithStopTime(50))
	e := &stubEntity{name: "e"}
	require.NoError(t, tl.Register(e))
	tl.Init()

	ran := false
	require.NoError(t, tl.Schedule(&kernel.Event{Time: 50, Proc: kernel.Process{Owner: "e", Handler: func() error { ran = true; return nil }}}))
	require.NoError(t, tl.Run())
	assert.False(t, ran)

	tl.SetStopTime(200)
	require.NoError(t, tl.Run())
	assert.True(t, ran)
}

func TestRunAbortsOnHandlerError(t *testing.T) {
	tl := kernel.NewTimeline()
	e := &stubEntity{name: "e"}
	require.NoError(t, tl.Register(e))
	tl.Init()

	wantErr := assert.AnError
	ran := false
	require.NoError(t, tl.Schedule(&kernel.Event{Time: 10, Proc: kernel.Process{Owner: "e", Handler: func() error { return wantErr }}}))
	require.NoError(t, tl.Schedule(&kernel.Event{Time: 20, Proc: kernel.Process{Owner: "e", Handler: func() error { ran = true; return nil }}}))

	err := tl.Run()
	assert.Equal(t, wantErr, err)
	assert.False(t, ran, "events after a fatal handler error must not run")
}

func TestScheduleEventInPastIsError(t *testing.T) {
	tl := kernel.NewTimeline()
	e := &stubEntity{name: "e"}
	require.NoError(t, tl.Register(e))
	tl.Init()

	require.NoError(t, tl.Schedule(&kernel.Event{Time: 10, Proc: kernel.Process{Owner: "e"}}))
	require.NoError(t, tl.Run())

	err := tl.Schedule(&kernel.Event{Time: 5, Proc: kernel.Process{Owner: "e"}})
	var scheduleErr *kernel.ScheduleError
	require.ErrorAs(t, err, &scheduleErr)
	assert.ErrorIs(t, err, kernel.ErrEventInPast)
}

func TestRegisterDuplicateNameFails(t *testing.T) {
	tl := kernel.NewTimeline()
	require.NoError(t, tl.Register(&stubEntity{name: "dup"}))
	err := tl.Register(&stubEntity{name: "dup"})
	assert.ErrorIs(t, err, kernel.ErrDuplicateEntityName)
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		d    kernel.PicoSeconds
		want string
	}{
		{500_000, "500 ns"},
		{5_000_000_000, "5.00 ms"},
		{5_000_000_000_000, "5.00 sec"},
		{65_000_000_000_000, "1 min: 5.00 sec"},
		{3_665_000_000_000_000, "1 hour: 1 min: 5.00 sec"},
		{kernel.NoStopTime, "unbounded"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, kernel.FormatDuration(c.d))
	}
}
