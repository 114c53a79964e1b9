package kernel_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SagarPatange/sequence-go/internal/kernel"
)

func TestEventListOrdersByTime(t *testing.T) {
	l := kernel.NewEventList()
	e1 := &kernel.Event{Time: 30}
	e2 := &kernel.Event{Time: 10}
	e3 := &kernel.Event{Time: 20}
	l.Push(e1)
	l.Push(e2)
	l.Push(e3)

	got, err := l.Pop()
	require.NoError(t, err)
	assert.Same(t, e2, got)

	got, err = l.Pop()
	require.NoError(t, err)
	assert.Same(t, e3, got)

	got, err = l.Pop()
	require.NoError(t, err)
	assert.Same(t, e1, got)
}

func TestEventListBreaksTiesByInsertionOrder(t *testing.T) {
	l := kernel.NewEventList()
	first := &kernel.Event{Time: 100}
	second := &kernel.Event{Time: 100}
	third := &kernel.Event{Time: 100}
	l.Push(first)
	l.Push(second)
	l.Push(third)

	got, _ := l.Pop()
	assert.Same(t, first, got)
	got, _ = l.Pop()
	assert.Same(t, second, got)
	got, _ = l.Pop()
	assert.Same(t, third, got)
}

func TestEventListPopEmptyReturnsError(t *testing.T) {
	l := kernel.NewEventList()
	_, err := l.Pop()
	assert.ErrorIs(t, err, kernel.ErrEmptyEventList)
}

func TestEventListPeekDoesNotRemove(t *testing.T) {
	l := kernel.NewEventList()
	e := &kernel.Event{Time: 5}
	l.Push(e)

	peeked, ok := l.Peek()
	require.True(t, ok)
	assert.Same(t, e, peeked)
	assert.Equal(t, 1, l.Len())

	popped, err := l.Pop()
	require.NoError(t, err)
	assert.Same(t, e, popped)
}

func TestEventListRemoveBeforePop(t *testing.T) {
	l := kernel.NewEventList()
	e1 := &kernel.Event{Time: 1}
	e2 := &kernel.Event{Time: 2}
	e3 := &kernel.Event{Time: 3}
	l.Push(e1)
	l.Push(e2)
	l.Push(e3)

	assert.True(t, l.Remove(e2))
	assert.Equal(t, 2, l.Len())
	assert.False(t, l.Remove(e2), "removing twice must report not-found")

	got, _ := l.Pop()
	assert.Same(t, e1, got)
	got, _ = l.Pop()
	assert.Same(t, e3, got)
}
