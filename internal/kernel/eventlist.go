package kernel

import "container/heap"

// eventHeap is the container/heap.Interface implementation backing
// EventList. It is kept unexported so EventList can expose its own,
// differently-named Push/Pop methods (container/heap's Push(any)/Pop() any
// signatures would otherwise collide with the typed API callers want).
//
// Grounded on timerHeap (eventloop/loop.go), extended with an
// index map so Remove can locate an element in O(log n) instead of O(n).
type eventHeap struct {
	items []*Event
	index map[*Event]int
}

func (h *eventHeap) Len() int { return len(h.items) }

func (h *eventHeap) Less(i, j int) bool {
	a, b := h.items[i], h.items[j]
	if a.Time != b.Time {
		return a.Time < b.Time
	}
	return a.Seq < b.Seq
}

func (h *eventHeap) Swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
	h.index[h.items[i]] = i
	h.index[h.items[j]] = j
}

func (h *eventHeap) Push(x any) {
	e := x.(*Event)
	h.index[e] = len(h.items)
	h.items = append(h.items, e)
}

func (h *eventHeap) Pop() any {
	n := len(h.items)
	e := h.items[n-1]
	h.items[n-1] = nil
	h.items = h.items[:n-1]
	delete(h.index, e)
	return e
}

// EventList is the min-heap of pending events, ordered by (Time, Seq), used
// by Timeline. Push, Pop, and Remove are all O(log n).
type EventList struct {
	h       eventHeap
	counter uint64
}

// NewEventList returns an empty EventList.
func NewEventList() *EventList {
	return &EventList{h: eventHeap{index: make(map[*Event]int)}}
}

// Push assigns event a monotonically increasing insertion sequence and adds
// it to the list. The caller retains the *Event pointer, which is the
// identity used by Remove.
func (l *EventList) Push(event *Event) {
	event.Seq = l.counter
	l.counter++
	heap.Push(&l.h, event)
}

// Pop removes and returns the minimum (Time, Seq) event. Returns
// ErrEmptyEventList if the list is empty; popping from empty is a
// programming error the Timeline must guard against.
func (l *EventList) Pop() (*Event, error) {
	if l.h.Len() == 0 {
		return nil, ErrEmptyEventList
	}
	return heap.Pop(&l.h).(*Event), nil
}

// Peek returns the minimum event without removing it, and whether the list
// is non-empty.
func (l *EventList) Peek() (*Event, bool) {
	if l.h.Len() == 0 {
		return nil, false
	}
	return l.h.items[0], true
}

// Remove removes event from the list if present, returning whether it was
// found. A removed event must never be executed; since Remove actually
// deletes the heap slot (rather than tombstoning), there is nothing left to
// skip on pop.
func (l *EventList) Remove(event *Event) bool {
	idx, ok := l.h.index[event]
	if !ok {
		return false
	}
	heap.Remove(&l.h, idx)
	return true
}

// Len returns the number of pending events.
func (l *EventList) Len() int { return l.h.Len() }
