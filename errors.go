package desim

import "fmt"

// ErrTypeMismatch is raised when a constructor is given a payload of a type
// it does not know how to coerce into an EventTime or EventValue.
type ErrTypeMismatch struct {
	Want string
	Got  interface{}
}

func (e ErrTypeMismatch) Error() string {
	return fmt.Sprintf("desim: cannot use %v (%T) as %s", e.Got, e.Got, e.Want)
}

// ErrBackwardsTime is raised by Sequencer.Run when the next queued event's
// time is earlier than the sequencer's current time. This is fatal: the
// sequencer halts without dispatching the offending event.
type ErrBackwardsTime struct {
	Current EventTime
	Next    EventTime
}

func (e ErrBackwardsTime) Error() string {
	return fmt.Sprintf("desim: unexpected backwards step: time %s --> %s", e.Current, e.Next)
}

// ErrReentrancy is raised when Act, Out, or Xto is called other than from
// within the body of an input or action handler of the named device.
type ErrReentrancy struct {
	Device string
	Op     string
}

func (e ErrReentrancy) Error() string {
	return fmt.Sprintf("desim: %s.%s not called from input/action/act/out", e.Device, e.Op)
}

// ErrUnknownComponent is raised when Hook, Act, Out, or Trace reference a
// name that is not a known input, action, output, or pseudo-component
// ("act", "out", "xto") of the named device, and by WithTimingOverride for
// a timing name that was not declared.
type ErrUnknownComponent struct {
	Device string
	Name   string
}

func (e ErrUnknownComponent) Error() string {
	return fmt.Sprintf("desim: %s: unrecognised component: %q", e.Device, e.Name)
}

// ErrStateGuard is raised when Xto is called with a current-state set that
// does not contain the device's actual state, or when it names a state not
// declared in the device's STATES list.
type ErrStateGuard struct {
	Device       string
	Caller       string
	CurrentState string
	Expected     []string
	Valid        []string
}

func (e ErrStateGuard) Error() string {
	if len(e.Valid) > 0 {
		return fmt.Sprintf(
			"desim: %s.xto called from %s names a state in %v that is not one of the valid states %v",
			e.Device, e.Caller, e.Expected, e.Valid,
		)
	}
	return fmt.Sprintf(
		"desim: %s.xto called from %s: current state %q is not one of the expected states %v",
		e.Device, e.Caller, e.CurrentState, e.Expected,
	)
}

// ErrArityMismatch is raised when Act is passed a value or context for an
// action that was registered to take neither.
type ErrArityMismatch struct {
	Device string
	Action string
}

func (e ErrArityMismatch) Error() string {
	return fmt.Sprintf("desim: %s.act(%q, ...): action takes no value/context but one was given", e.Device, e.Action)
}

// ErrDuplicateConnection is raised when Signal.Connect is asked to install a
// connection object it already holds.
type ErrDuplicateConnection struct {
	Signal string
}

func (e ErrDuplicateConnection) Error() string {
	return fmt.Sprintf("desim: signal %q: connection already installed", e.Signal)
}
