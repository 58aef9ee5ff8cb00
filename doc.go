// Package desim is a discrete-event simulation kernel.
//
// A simulation is a set of Devices, connected to one another's Signals, all
// driven by a Sequencer that dispatches a priority-ordered queue of Events.
// Events are normally produced internally: a Device input or action mutates
// state, updates an output Signal, and optionally schedules a delayed action
// of its own, all of which come back to the Sequencer as further Events to
// merge into the queue.
//
// The four pieces fit together like this:
//
//	Sequencer.Add(seed events)
//	Sequencer.Run() pops the earliest (time, priority) Event and calls it
//	  -> usually a Device input/action wrapper, or a Signal.Update
//	  -> which may synchronously return further Events
//	Sequencer merges those into the queue and continues
//
// The package is deliberately single-threaded and cooperative: a Device,
// Signal or Sequencer must not be shared across goroutines without external
// synchronization, and a handler must never call back into its own Device
// directly -- it returns or schedules an Event instead.
package desim
