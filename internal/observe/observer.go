// Package observe implements the Houdini engine's observer fan-out: a thin
// publisher broadcasting lifecycle events to registered observers, for
// tracing and timing (spec.md §4.G).
package observe

// Event is one lifecycle notification raised by the Houdini engine.
type Event int

const (
	EventStart Event = iota
	EventIteration
	EventImplementation
	EventAssignment
	EventOutcome
	EventEnqueue
	EventDequeue
	EventConstant
	EventEnd
	EventFlushStart
	EventFlushFinish
	EventException
)

func (e Event) String() string {
	switch e {
	case EventStart:
		return "start"
	case EventIteration:
		return "iteration"
	case EventImplementation:
		return "implementation"
	case EventAssignment:
		return "assignment"
	case EventOutcome:
		return "outcome"
	case EventEnqueue:
		return "enqueue"
	case EventDequeue:
		return "dequeue"
	case EventConstant:
		return "constant"
	case EventEnd:
		return "end"
	case EventFlushStart:
		return "flush-start"
	case EventFlushFinish:
		return "flush-finish"
	case EventException:
		return "exception"
	default:
		return "unknown"
	}
}

// Payload carries the data relevant to one event. Fields not applicable to
// a given Event are left zero. Observers must treat Payload as read-only:
// they must not mutate engine state through it.
type Payload struct {
	Event          Event
	Implementation string
	Candidate      string
	Value          bool
	Iteration      int
	Outcome        string
	Err            error
}

// Observer is implemented by every lifecycle listener. All methods must be
// safe to call synchronously from the engine's single cooperative thread;
// observers must not block or re-enter the engine.
type Observer interface {
	Notify(Payload)
}

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc func(Payload)

// Notify implements Observer.
func (f ObserverFunc) Notify(p Payload) { f(p) }

// Publisher is a value-typed fan-out of Observer references. Registration
// is idempotent; dispatch happens in registration order.
type Publisher struct {
	observers []Observer
}

// NewPublisher constructs an empty Publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// Register adds obs if it has not already been registered. Duplicate
// registration is a no-op, per spec.md §4.G. Equality is interface
// equality (pointer identity for struct-backed observers); ObserverFunc
// values, being backed by a non-comparable function type, are never
// considered duplicates of one another and are always appended.
func (p *Publisher) Register(obs Observer) {
	if obs == nil {
		return
	}
	for _, existing := range p.observers {
		if sameObserver(existing, obs) {
			return
		}
	}
	p.observers = append(p.observers, obs)
}

// sameObserver compares two Observer values for identity, tolerating
// non-comparable dynamic types (e.g. ObserverFunc) by treating them as
// always distinct rather than panicking.
func sameObserver(a, b Observer) (eq bool) {
	defer func() {
		if recover() != nil {
			eq = false
		}
	}()
	return a == b
}

// Publish dispatches payload to every registered observer, in registration
// order.
func (p *Publisher) Publish(payload Payload) {
	for _, obs := range p.observers {
		obs.Notify(payload)
	}
}
