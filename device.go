package desim

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// DeviceHandler is the signature of a raw, user-declared input or action
// body, before it is wrapped by RegisterInput/RegisterAction into the
// uniform EventClient every Signal connection and Event callback expects.
// Every handler receives the full (time, value, context) triple and
// ignores what it does not need.
type DeviceHandler func(d *Device, time EventTime, value *EventValue, context interface{}) ([]Event, error)

// HookCallContext is what every hook callback receives: the context the
// hooked operation itself was called with (always nil for output hooks)
// plus whatever context the hook was installed with.
type HookCallContext struct {
	CallContext interface{}
	HookContext interface{}

	// Handle identifies which installed SignalConnection is firing, for
	// logging/tracing.
	Handle uuid.UUID
}

// XtoCallContext is the CallContext a "xto" pre-hook receives.
type XtoCallContext struct {
	Caller   string
	OldState string
	NewState string
}

// Device is a stateful participant exposing named inputs (Signal sinks),
// outputs (owned Signals), and actions (self-scheduled delayed handlers).
// A Device is constructed once and is never destroyed during a run; it is
// not safe for concurrent use from multiple goroutines.
type Device struct {
	Name string

	states  []string
	state   string
	timings map[string]float64

	inputs  map[string]EventClient
	actions map[string]EventClient
	// actionStrict marks actions registered via RegisterSimpleAction, which
	// take no value/context; Act rejects a value/context passed to one of
	// these (ErrArityMismatch), since every Go handler shares a single call
	// signature and can't reject extra arguments structurally.
	actionStrict map[string]bool

	outputs map[string]*Signal

	preHooks    map[string][]*SignalConnection
	postHooks   map[string][]*SignalConnection
	outputHooks map[string][]*SignalConnection

	furtherActs []Event

	currentTime      *EventTime
	currentComponent string

	log Logger
}

// DeviceOption configures a Device at construction time.
type DeviceOption func(*Device) error

// WithTimings declares the device's default timing values. Every key must
// begin with "t_", mirroring the source's TIMINGS convention.
func WithTimings(defaults map[string]float64) DeviceOption {
	return func(d *Device) error {
		for name, val := range defaults {
			if !strings.HasPrefix(name, "t_") {
				return ErrTypeMismatch{Want: `timing name starting with "t_"`, Got: name}
			}
			d.timings[name] = val
		}
		return nil
	}
}

// WithTimingOverride overrides a single previously-declared timing, the Go
// equivalent of passing t_delay=2.0 as a constructor kwarg in the source.
func WithTimingOverride(name string, value float64) DeviceOption {
	return func(d *Device) error {
		if _, has := d.timings[name]; !has {
			return ErrUnknownComponent{Device: d.Name, Name: name}
		}
		d.timings[name] = value
		return nil
	}
}

// WithDeviceLogger sets the device's diagnostic logger.
func WithDeviceLogger(l Logger) DeviceOption {
	return func(d *Device) error {
		d.log = l
		return nil
	}
}

// NewDevice constructs a Device with the given declared states (non-empty,
// first entry is the initial state).
func NewDevice(name string, states []string, opts ...DeviceOption) (*Device, error) {
	if len(states) == 0 {
		return nil, ErrTypeMismatch{Want: "non-empty STATES list", Got: states}
	}
	d := &Device{
		Name:         name,
		states:       append([]string(nil), states...),
		state:        states[0],
		timings:      map[string]float64{},
		inputs:       map[string]EventClient{},
		actions:      map[string]EventClient{},
		actionStrict: map[string]bool{},
		outputs:      map[string]*Signal{},
		preHooks:     map[string][]*SignalConnection{},
		postHooks:    map[string][]*SignalConnection{},
		outputHooks:  map[string][]*SignalConnection{},
		log:          NopLogger{},
	}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// State returns the device's current state.
func (d *Device) State() string { return d.state }

// States returns the device's declared state list.
func (d *Device) States() []string { return append([]string(nil), d.states...) }

// Timing returns the current value of a declared timing.
func (d *Device) Timing(name string) float64 { return d.timings[name] }

// Inputs returns the device's registered, wrapped inputs.
func (d *Device) Inputs() map[string]EventClient { return d.inputs }

// Actions returns the device's registered, wrapped actions.
func (d *Device) Actions() map[string]EventClient { return d.actions }

// Outputs returns the device's owned output signals.
func (d *Device) Outputs() map[string]*Signal { return d.outputs }

func (d *Device) hasState(name string) bool {
	for _, s := range d.states {
		if s == name {
			return true
		}
	}
	return false
}

// AddOutput registers an output signal under the device, bound for later
// lookup via Outputs()/Out(). nameOrSignal is either a string (a fresh
// Signal is created) or an existing *Signal to adopt.
func (d *Device) AddOutput(nameOrSignal interface{}, start ...EventValue) (*Signal, error) {
	var sig *Signal
	switch v := nameOrSignal.(type) {
	case string:
		sig = NewSignal(v, start...)
	case *Signal:
		sig = v
	default:
		return nil, ErrTypeMismatch{Want: "string or *Signal", Got: nameOrSignal}
	}
	d.outputs[sig.Name] = sig
	return sig, nil
}

// RegisterInput binds name as one of the device's inputs, wrapping fn with
// the common input/action machinery: re-entrancy guard, hooks, further-acts drain.
func (d *Device) RegisterInput(name string, fn DeviceHandler) error {
	d.inputs[name] = d.wrap(name, fn)
	return nil
}

// RegisterAction binds name as one of the device's actions, able to accept
// a value and context when scheduled via Act.
func (d *Device) RegisterAction(name string, fn DeviceHandler) error {
	d.actions[name] = d.wrap(name, fn)
	return nil
}

// RegisterSimpleAction binds name as an action that takes no value or
// context; Act rejects a value/context passed to it (ErrArityMismatch).
func (d *Device) RegisterSimpleAction(name string, fn func(d *Device, time EventTime) ([]Event, error)) error {
	d.actions[name] = d.wrap(name, func(dev *Device, t EventTime, v *EventValue, ctx interface{}) ([]Event, error) {
		return fn(dev, t)
	})
	d.actionStrict[name] = true
	return nil
}

// wrap builds the uniform input/action wrapper: re-entrancy guard,
// pre-hooks, body, post-hooks, further-acts drain.
func (d *Device) wrap(name string, fn DeviceHandler) EventClient {
	return func(time EventTime, value *EventValue, context interface{}) ([]Event, error) {
		if d.currentTime != nil {
			return nil, ErrReentrancy{Device: d.Name, Op: name}
		}
		d.currentTime = &time
		d.currentComponent = name

		d.log.Debug("dispatch", "device", d.Name, "component", name, "time", time.String())

		d.runHooks(d.preHooks, name, time, value, context)

		result, err := fn(d, time, value, context)

		d.runHooks(d.postHooks, name, time, value, context)

		if err == nil && len(result) > 0 {
			d.furtherActs = append(d.furtherActs, result...)
		}

		d.currentTime = nil
		d.currentComponent = ""

		drained := d.furtherActs
		d.furtherActs = nil
		return drained, err
	}
}

func (d *Device) runHooks(hookset map[string][]*SignalConnection, name string, time EventTime, value *EventValue, callContext interface{}) {
	for _, hook := range hookset[name] {
		hookCtx := HookCallContext{CallContext: callContext, HookContext: hook.CallContext, Handle: hook.Handle}
		d.log.Debug("hook-dispatch", "device", d.Name, "component", name, "handle", hook.Handle.String())
		_, _ = hook.Call(time, value, hookCtx)
	}
}

// Act schedules a subsequent call to one of this device's actions. It may
// only be called from within an input or action body. name is resolved
// against the device's actions by trying, in order, "<name>", "act<name>",
// then "act_<name>" -- the order needed to stay compatible with devices that
// register their delayed actions under an "act_"-prefixed name.
func (d *Device) Act(name string, time interface{}, value interface{}, context interface{}) error {
	if d.currentTime == nil {
		return ErrReentrancy{Device: d.Name, Op: "act"}
	}
	t, err := asEventTime(time)
	if err != nil {
		return err
	}
	var v *EventValue
	if value != nil {
		coerced, err := asEventValue(value)
		if err != nil {
			return err
		}
		v = &coerced
	}

	resolvedName, action := d.resolveAction(name)
	if action == nil {
		return ErrUnknownComponent{Device: d.Name, Name: name}
	}
	if d.actionStrict[resolvedName] && (v != nil || context != nil) {
		return ErrArityMismatch{Device: d.Name, Action: resolvedName}
	}

	d.runHooks(d.preHooks, "act", t, v, resolvedName)

	d.furtherActs = append(d.furtherActs, Event{time: t, Call: action, Value: v, Context: context})
	return nil
}

func (d *Device) resolveAction(name string) (string, EventClient) {
	for _, candidate := range []string{name, "act" + name, "act_" + name} {
		if action, ok := d.actions[candidate]; ok {
			return candidate, action
		}
	}
	return "", nil
}

// Out updates one of this device's outputs. Time is taken from the
// currently executing input/action. It may only be called from within an
// input or action body.
func (d *Device) Out(outputName string, value interface{}) error {
	if d.currentTime == nil {
		return ErrReentrancy{Device: d.Name, Op: "out"}
	}
	sig, ok := d.outputs[outputName]
	if !ok {
		return ErrUnknownComponent{Device: d.Name, Name: outputName}
	}
	t := *d.currentTime
	v := SIG_UNDEFINED
	if value != nil {
		coerced, err := asEventValue(value)
		if err != nil {
			return err
		}
		v = coerced
	}

	d.runHooks(d.preHooks, "out", t, &v, outputName)

	events, err := sig.Update(t, v)
	if err != nil {
		return err
	}
	d.furtherActs = append(d.furtherActs, events...)
	return nil
}

// Xto is a guarded state transition: the device's current state must be one
// of currentStates, and both currentStates and newState (if given) must be
// declared STATES. It may only be called from within an input or action
// body.
func (d *Device) Xto(currentStates interface{}, newState string) error {
	if d.currentTime == nil {
		return ErrReentrancy{Device: d.Name, Op: "xto"}
	}

	var states []string
	switch v := currentStates.(type) {
	case string:
		states = []string{v}
	case []string:
		states = v
	default:
		return ErrTypeMismatch{Want: "string or []string", Got: currentStates}
	}

	caller := d.Name + "." + d.currentComponent

	toCheck := append([]string(nil), states...)
	if newState != "" {
		toCheck = append(toCheck, newState)
	}
	for _, s := range toCheck {
		if !d.hasState(s) {
			return ErrStateGuard{Device: d.Name, Caller: caller, Expected: toCheck, Valid: d.states}
		}
	}

	inStates := false
	for _, s := range states {
		if s == d.state {
			inStates = true
			break
		}
	}
	if !inStates {
		return ErrStateGuard{Device: d.Name, Caller: caller, CurrentState: d.state, Expected: states}
	}

	t := *d.currentTime
	zero := SIG_ZERO
	d.runHooks(d.preHooks, "xto", t, &zero, XtoCallContext{Caller: caller, OldState: d.state, NewState: newState})

	if newState != "" {
		d.state = newState
	}
	return nil
}

// allEventCallNames lists everything Hook/Trace can reference by name: the
// three pseudo-components plus every declared input, action and output.
func (d *Device) allEventCallNames() []string {
	names := []string{"act", "out", "xto"}
	for name := range d.inputs {
		names = append(names, name)
	}
	for name := range d.actions {
		names = append(names, name)
	}
	for name := range d.outputs {
		names = append(names, name)
	}
	return names
}

func (d *Device) isKnownComponent(name string) bool {
	if name == "act" || name == "out" || name == "xto" {
		return true
	}
	if _, ok := d.inputs[name]; ok {
		return true
	}
	if _, ok := d.actions[name]; ok {
		return true
	}
	return false
}

// Hook installs call to run before (default) or after the named
// input/action/output/pseudo-component's operation occurs. For an output,
// this connects directly to the underlying Signal (index 0 for a pre-hook,
// -1 for a post-hook). For "act"/"out"/"xto", only pre-hooks exist: a
// requested post-hook silently becomes a pre-hook, since there is no
// natural "after" for these.
func (d *Device) Hook(name string, call EventClient, context interface{}, callAfter bool) (*SignalConnection, error) {
	if sig, ok := d.outputs[name]; ok {
		index := 0
		if callAfter {
			index = -1
		}
		conn, err := sig.Connect(call, HookCallContext{CallContext: nil, HookContext: context}, index)
		if err != nil {
			return nil, err
		}
		conn.CallContext = HookCallContext{CallContext: nil, HookContext: context, Handle: conn.Handle}
		d.outputHooks[name] = append(d.outputHooks[name], conn)
		d.log.Debug("hook-install", "device", d.Name, "component", name, "handle", conn.Handle.String())
		return conn, nil
	}

	if !d.isKnownComponent(name) {
		return nil, ErrUnknownComponent{Device: d.Name, Name: name}
	}
	if name == "act" || name == "out" || name == "xto" {
		callAfter = false
	}

	conn := &SignalConnection{Call: call, CallContext: context, Handle: uuid.New()}
	if callAfter {
		d.postHooks[name] = append(d.postHooks[name], conn)
	} else {
		d.preHooks[name] = append(d.preHooks[name], conn)
	}
	d.log.Debug("hook-install", "device", d.Name, "component", name, "handle", conn.Handle.String())
	return conn, nil
}

// Unhook removes a hook, addressed either by the name it was installed
// under (removes every hook on that name) or by the specific handle Hook
// returned.
func (d *Device) Unhook(nameOrHook interface{}) {
	switch v := nameOrHook.(type) {
	case string:
		for _, hook := range d.outputHooks[v] {
			if sig, ok := d.outputs[v]; ok {
				sig.Disconnect(hook)
			}
		}
		delete(d.outputHooks, v)
		delete(d.preHooks, v)
		delete(d.postHooks, v)
	case *SignalConnection:
		d.unhookConn(v)
	}
}

func (d *Device) unhookConn(hook *SignalConnection) {
	for name, list := range d.outputHooks {
		for _, h := range list {
			if h == hook {
				if sig, ok := d.outputs[name]; ok {
					sig.Disconnect(hook)
				}
				d.outputHooks[name] = removeConn(list, hook)
			}
		}
	}
	for name, list := range d.preHooks {
		d.preHooks[name] = removeConn(list, hook)
	}
	for name, list := range d.postHooks {
		d.postHooks[name] = removeConn(list, hook)
	}
}

func removeConn(list []*SignalConnection, target *SignalConnection) []*SignalConnection {
	kept := list[:0:0]
	for _, c := range list {
		if c != target {
			kept = append(kept, c)
		}
	}
	return kept
}

// Trace installs the device's built-in trace callback on name, or on every
// known component when name is "*".
func (d *Device) Trace(name string, after bool) (*SignalConnection, error) {
	if name == "*" {
		for _, n := range d.allEventCallNames() {
			if _, err := d.Trace(n, after); err != nil {
				return nil, err
			}
		}
		return nil, nil
	}

	kind, err := d.componentKind(name)
	if err != nil {
		return nil, err
	}
	ctx := TraceContext{Device: d.Name, Component: name, Kind: kind}
	if kind == "output" {
		ctx.Signal = d.outputs[name]
	}
	return d.Hook(name, d.traceCallback, ctx, after)
}

// Untrace removes the trace hook(s) installed by Trace for name ("*" for
// every known component).
func (d *Device) Untrace(name string) {
	names := []string{name}
	if name == "*" {
		names = d.allEventCallNames()
	}
	for _, n := range names {
		for _, list := range [][]*SignalConnection{d.preHooks[n], d.postHooks[n], d.outputHooks[n]} {
			for _, hook := range list {
				if hook.isTraceHook(d) {
					d.Unhook(hook)
				}
			}
		}
	}
}

func (c *SignalConnection) isTraceHook(d *Device) bool {
	// Output trace hooks carry a TraceContext wrapped in a HookCallContext;
	// input/action/pseudo-component hooks carry it bare.
	switch ctx := c.CallContext.(type) {
	case HookCallContext:
		_, ok := ctx.HookContext.(TraceContext)
		return ok
	case TraceContext:
		_ = ctx
		return true
	default:
		return false
	}
}

func (d *Device) componentKind(name string) (string, error) {
	if _, ok := d.inputs[name]; ok {
		return "input", nil
	}
	if _, ok := d.actions[name]; ok {
		return "action", nil
	}
	if _, ok := d.outputs[name]; ok {
		return "output", nil
	}
	if name == "act" || name == "out" || name == "xto" {
		return name, nil
	}
	return "", ErrUnknownComponent{Device: d.Name, Name: name}
}

func (d *Device) traceCallback(time EventTime, value *EventValue, context interface{}) ([]Event, error) {
	hookCtx, _ := context.(HookCallContext)
	traceCtx, _ := hookCtx.HookContext.(TraceContext)

	d.log.Debug("trace", "device", d.Name, "component", traceCtx.Component, "kind", traceCtx.Kind, "handle", hookCtx.Handle.String())

	switch traceCtx.Kind {
	case "input":
		printTrace(d.Name, traceCtx.Component, "input", "value <-- "+safeValueString(value))
	case "action":
		printTrace(d.Name, traceCtx.Component, "action", "")
	case "output":
		sig := traceCtx.Signal
		if sig != nil {
			printTrace(d.Name, traceCtx.Component, "output", sig.PreviousValue().String()+" --> "+sig.Value().String())
		}
	case "act":
		printTrace(d.Name, "act", "act", "==> "+stringOrEmpty(hookCtx.CallContext))
	case "out":
		printTrace(d.Name, "out", "out", stringOrEmpty(hookCtx.CallContext)+" <== "+safeValueString(value))
	case "xto":
		if xc, ok := hookCtx.CallContext.(XtoCallContext); ok {
			printTrace(d.Name, "xto", "xto", "(in "+xc.Caller+") state "+xc.OldState+" -> "+xc.NewState)
		}
	}
	return nil, nil
}

func printTrace(device, component, kind, detail string) {
	if detail == "" {
		fmt.Printf("trace %s.%s (%s)\n", device, component, kind)
		return
	}
	fmt.Printf("trace %s.%s (%s): %s\n", device, component, kind, detail)
}

func safeValueString(v *EventValue) string {
	if v == nil {
		return SIG_UNDEFINED.String()
	}
	return v.String()
}

func stringOrEmpty(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
