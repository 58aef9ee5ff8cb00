package desim

// EventClient is the single callback shape used everywhere in desim: by
// Signal connections, Device hooks, trace sinks, and the wrapped
// input/action callables a Device exposes. Every caller passes the full
// triple; a callback ignores whatever argument it does not need (Design
// Notes, "the latter is preferred in a statically-typed port"). A non-nil
// slice return schedules further Events; a non-nil error aborts the
// dispatch that produced it. Device hooks on inputs, actions and the
// "act"/"out"/"xto" pseudo-components are the exception: whatever they
// return, events or error, is discarded.
type EventClient func(time EventTime, value *EventValue, context interface{}) ([]Event, error)

// Event is a timestamped, value-carrying, context-carrying callable
// descriptor. Time is fixed at construction and never mutated afterward.
type Event struct {
	time    EventTime
	Call    EventClient
	Value   *EventValue
	Context interface{}

	seq int64 // insertion sequence, used by Sequencer to break (time,priority) ties FIFO
}

// NewEvent constructs an Event. t may be an EventTime, int, int64, or
// float64; value, if non-nil, may be an EventValue or one of the raw types
// asEventValue accepts.
func NewEvent(t interface{}, call EventClient, value interface{}, context interface{}) (Event, error) {
	et, err := asEventTime(t)
	if err != nil {
		return Event{}, err
	}
	var v *EventValue
	if value != nil {
		coerced, err := asEventValue(value)
		if err != nil {
			return Event{}, err
		}
		v = &coerced
	}
	return Event{time: et, Call: call, Value: v, Context: context}, nil
}

// Time returns the event's fixed dispatch time.
func (e Event) Time() EventTime { return e.time }

// Action invokes the event's callback, returning whatever further events it
// produced (possibly none) or the error it returned.
func (e Event) Action() ([]Event, error) {
	return e.Call(e.time, e.Value, e.Context)
}
