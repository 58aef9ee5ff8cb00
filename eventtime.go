package desim

import "fmt"

// EventTime is a totally-ordered simulated-time point with a secondary
// priority used to break ties at the same instant. Two EventTimes compare
// equal only if both fields match; ordering compares Time first, and for
// equal Time, higher Priority sorts earlier.
type EventTime struct {
	Time     float64
	Priority int
}

// At returns an EventTime with the given time and zero priority.
func At(t float64) EventTime {
	return EventTime{Time: t}
}

// AtPriority returns an EventTime with the given time and priority.
func AtPriority(t float64, priority int) EventTime {
	return EventTime{Time: t, Priority: priority}
}

// asEventTime coerces a float64, int, or EventTime into an EventTime. Any
// other type is an ErrTypeMismatch, mirroring the source's constructor
// contract ("EventTime | int | float").
func asEventTime(v interface{}) (EventTime, error) {
	switch t := v.(type) {
	case EventTime:
		return t, nil
	case float64:
		return EventTime{Time: t}, nil
	case float32:
		return EventTime{Time: float64(t)}, nil
	case int:
		return EventTime{Time: float64(t)}, nil
	case int64:
		return EventTime{Time: float64(t)}, nil
	default:
		return EventTime{}, ErrTypeMismatch{Want: "EventTime", Got: v}
	}
}

// Equal reports whether two EventTimes have the same Time and Priority.
func (t EventTime) Equal(other EventTime) bool {
	return t.Time == other.Time && t.Priority == other.Priority
}

// Less reports whether t sorts strictly before other: earlier Time, or
// equal Time with a higher Priority (higher priority dispatches first).
func (t EventTime) Less(other EventTime) bool {
	if t.Time != other.Time {
		return t.Time < other.Time
	}
	return t.Priority > other.Priority
}

// GreaterOrEqual reports whether t sorts at or after other.
func (t EventTime) GreaterOrEqual(other EventTime) bool {
	return !t.Less(other)
}

// Add returns a new EventTime whose Time is the sum of t.Time and delta, and
// whose Priority is reset to zero.
func (t EventTime) Add(delta float64) EventTime {
	return EventTime{Time: t.Time + delta}
}

func (t EventTime) String() string {
	if t.Priority != 0 {
		return fmt.Sprintf("%s(priority=%d)", formatFloat(t.Time), t.Priority)
	}
	return formatFloat(t.Time)
}
