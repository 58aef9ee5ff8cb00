package desim

import (
	"fmt"

	"github.com/google/uuid"
)

// TraceContext is the structured record passed to trace callbacks, both for
// Signal tracing and Device tracing. The reference implementation this was
// ported from is inconsistent here (a bare Signal for Signal tracing, a
// structured mapping for Device tracing); this port settles on one shape
// everywhere.
type TraceContext struct {
	// Device is empty for a bare Signal trace (one not owned by a Device).
	Device string
	// Component is the name of the input/action/output/pseudo-component
	// being traced ("act", "out", "xto", or a declared name).
	Component string
	// Kind classifies Component: "input", "action", "output", "act", "out", or "xto".
	Kind string
	// Signal is set when Kind == "output" or when this trace is a bare Signal trace.
	Signal *Signal
	// CallContext is not filled in by Signal.Trace or Device.Trace; a Device
	// trace callback reads the traced call's own context (e.g. the resolved
	// action name, for "act") from HookCallContext.CallContext instead.
	CallContext interface{}
	// Handle identifies the SignalConnection the trace was installed as, so
	// a trace line can be correlated back to a specific Connect/Hook call.
	Handle uuid.UUID
}

// TraceHandlerClient is the process-wide, overridable sink that every
// Signal-level trace connection delegates to. Tests that replace it must
// restore the original afterward.
var TraceHandlerClient EventClient = defaultTraceHandler

func defaultTraceHandler(time EventTime, value *EventValue, context interface{}) ([]Event, error) {
	ctx, _ := context.(TraceContext)
	sig := ctx.Signal
	if sig == nil {
		fmt.Printf("@%s: Sig<?> : <no-signal>\n", time)
		return nil, nil
	}
	fmt.Printf("@%s: Sig<%s> [%s] : %s ==> %s\n", time, sig.Name, ctx.Handle, sig.previousValue, sig.value)
	return nil, nil
}
