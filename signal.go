package desim

import "github.com/google/uuid"

// SignalConnection binds a callback to a Signal (or to a Device hook slot).
// Connections are identity-based: two distinct *SignalConnection values
// wrapping the same callable are distinct, and Disconnect/Unhook compare by
// pointer, never by callback value.
type SignalConnection struct {
	Call        EventClient
	CallContext interface{}

	// Handle identifies the connection for logging/tracing purposes only; it
	// plays no role in identity or equality (grounded on nugget-thane-ai-agent's
	// use of uuid.NewV7() for per-connection/session identifiers).
	Handle uuid.UUID
}

// Signal is a named mutable value with an ordered list of broadcast
// subscribers. It implements no scheduling logic of its own: Update is the
// only thing that changes a Signal's state, and it is purely a
// message-passing mechanism.
type Signal struct {
	Name string

	value         EventValue
	previousValue EventValue

	connectedClients []*SignalConnection
	traceConnection  *SignalConnection
}

// NewSignal constructs a Signal with the given starting value (SIG_START_DEFAULT if omitted).
func NewSignal(name string, start ...EventValue) *Signal {
	startValue := SIG_START_DEFAULT
	if len(start) > 0 {
		startValue = start[0]
	}
	return &Signal{
		Name:          name,
		value:         startValue,
		previousValue: SIG_UNDEFINED,
	}
}

// Value returns the signal's current value.
func (s *Signal) Value() EventValue { return s.value }

// PreviousValue returns the value immediately before the most recent Update.
func (s *Signal) PreviousValue() EventValue { return s.previousValue }

func (s *Signal) String() string {
	return "Signal<" + s.Name + " = " + s.value.String() + ">"
}

// Update sets the signal's value at the given time and notifies every
// connected client in list order, in a snapshot taken before the first
// call so that a client which connects a new subscriber mid-broadcast does
// not get notified within the same Update. It returns the concatenation of
// every Event any client returned.
func (s *Signal) Update(time interface{}, value interface{}) ([]Event, error) {
	t, err := asEventTime(time)
	if err != nil {
		return nil, err
	}
	var v EventValue
	if value == nil {
		v = SIG_ZERO
	} else {
		v, err = asEventValue(value)
		if err != nil {
			return nil, err
		}
	}

	s.previousValue = s.value
	s.value = v

	snapshot := make([]*SignalConnection, len(s.connectedClients))
	copy(snapshot, s.connectedClients)

	var further []Event
	for _, conn := range snapshot {
		events, err := conn.Call(t, &v, conn.CallContext)
		if err != nil {
			return further, err
		}
		further = append(further, events...)
	}
	return further, nil
}

// Connect creates a connection to this signal. -1 (the default), any other
// negative index, or an index at or past the end of the list appends; 0
// prepends; any other value inserts at that position. A connection object already installed is
// rejected with ErrDuplicateConnection (defensive: the same *SignalConnection
// cannot be installed twice, though the same callback wrapped in two
// distinct connections is fine).
func (s *Signal) Connect(call EventClient, callContext interface{}, index int) (*SignalConnection, error) {
	conn := &SignalConnection{Call: call, CallContext: callContext, Handle: uuid.New()}
	for _, existing := range s.connectedClients {
		if existing == conn {
			return nil, ErrDuplicateConnection{Signal: s.Name}
		}
	}
	s.connectedClients = insertConnection(s.connectedClients, conn, index)
	return conn, nil
}

func insertConnection(list []*SignalConnection, conn *SignalConnection, index int) []*SignalConnection {
	if index < 0 || index >= len(list) {
		return append(list, conn)
	}
	list = append(list, nil)
	copy(list[index+1:], list[index:])
	list[index] = conn
	return list
}

// Disconnect removes every occurrence of connection from the subscriber
// list. Disconnecting a connection that is not installed is a silent no-op,
// matching the source.
func (s *Signal) Disconnect(connection *SignalConnection) {
	if connection == nil {
		return
	}
	kept := s.connectedClients[:0:0]
	for _, c := range s.connectedClients {
		if c != connection {
			kept = append(kept, c)
		}
	}
	s.connectedClients = kept
}

// Trace installs the internal trace connection at index 0, idempotently.
func (s *Signal) Trace() {
	if s.traceConnection != nil {
		return
	}
	conn, _ := s.Connect(s.traceCallback, nil, 0)
	s.traceConnection = conn
}

// Untrace removes the trace connection installed by Trace, if any.
func (s *Signal) Untrace() {
	if s.traceConnection == nil {
		return
	}
	s.Disconnect(s.traceConnection)
	s.traceConnection = nil
}

func (s *Signal) traceCallback(time EventTime, value *EventValue, _ interface{}) ([]Event, error) {
	return TraceHandlerClient(time, value, TraceContext{Kind: "signal", Signal: s, Handle: s.traceConnection.Handle})
}
