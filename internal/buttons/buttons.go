package buttons

import "context"

type Event string

const (
	PrevCategory     Event = "prev"
	NextCategory     Event = "next"
	IncreaseInterval Event = "increase"
	DecreaseInterval Event = "decrease"
	Exit             Event = "exit"
	// Wake covers pointer/touch activity and any unmapped button: it only
	// re-surfaces the overlay.
	Wake Event = "wake"
)

// ParseEvent maps an API action name to an Event.
func ParseEvent(name string) (Event, bool) {
	switch ev := Event(name); ev {
	case PrevCategory, NextCategory, IncreaseInterval, DecreaseInterval, Exit, Wake:
		return ev, true
	}
	return "", false
}

type Buttons interface {
	Start(ctx context.Context) error
	Stop() error
	Events() <-chan Event
}

// Pusher accepts events from producers such as the HTTP API.
type Pusher interface {
	Push(ev Event) bool
}

const defaultQueueSize = 32

// Queue is a buffered event channel shared by every input producer.
// The frame loop drains it once per tick.
type Queue struct{ ch chan Event }

func NewQueue(size int) *Queue {
	if size <= 0 {
		size = defaultQueueSize
	}
	return &Queue{ch: make(chan Event, size)}
}

// Push enqueues ev without blocking. It reports false when the queue is full
// and the event was dropped.
func (q *Queue) Push(ev Event) bool {
	select {
	case q.ch <- ev:
		return true
	default:
		return false
	}
}

func (q *Queue) Start(ctx context.Context) error { return nil }
func (q *Queue) Stop() error                     { return nil }
func (q *Queue) Events() <-chan Event            { return q.ch }
