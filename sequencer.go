package desim

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// Sequencer is the priority-ordered event queue driver: it holds a flat list
// of pending Events and repeatedly dispatches the earliest one, merging
// whatever further Events that dispatch produces back into the list. It
// does no real-time waiting and does not dispatch concurrently.
type Sequencer struct {
	events  []Event
	time    EventTime
	verbose bool
	log     Logger

	nextSeq int64
}

// SequencerOption configures a Sequencer at construction time.
type SequencerOption func(*Sequencer)

// WithSequencerLogger sets the sequencer's diagnostic logger.
func WithSequencerLogger(l Logger) SequencerOption {
	return func(s *Sequencer) { s.log = l }
}

// WithSequencerVerbose makes every Run call verbose by default, as if
// verbose=true had been passed explicitly each time.
func WithSequencerVerbose() SequencerOption {
	return func(s *Sequencer) { s.verbose = true }
}

// NewSequencer constructs a Sequencer with an empty queue. It takes no
// initial events; they are enqueued with Add.
func NewSequencer(opts ...SequencerOption) *Sequencer {
	s := &Sequencer{time: At(0), log: NopLogger{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Time returns the sequencer's current simulated time: zero before anything
// has run, otherwise the time of the last event Run took from the head of
// the queue. That includes an event Run then left queued because a stop
// time or step budget halted it.
func (s *Sequencer) Time() EventTime { return s.time }

// Pending returns the number of events currently queued.
func (s *Sequencer) Pending() int { return len(s.events) }

// Add enqueues one or more events for later dispatch.
func (s *Sequencer) Add(events ...Event) {
	for i := range events {
		events[i].seq = s.nextSeq
		s.nextSeq++
	}
	s.events = append(s.events, events...)
}

func (s *Sequencer) sort() {
	sort.Slice(s.events, func(i, j int) bool {
		a, b := s.events[i], s.events[j]
		if a.time.Equal(b.time) {
			return a.seq < b.seq
		}
		return a.time.Less(b.time)
	})
}

// HaltReason identifies why Run stopped.
type HaltReason string

const (
	// HaltDrained means the queue ran dry: there were no more events to dispatch.
	HaltDrained HaltReason = "drained"
	// HaltStopTime means the sequencer reached or passed the requested stop time.
	HaltStopTime HaltReason = "stop_time"
	// HaltSteps means the requested number of dispatch steps was exhausted.
	HaltSteps HaltReason = "steps"
)

// RunOptions controls a single Run call. All fields are optional; the zero
// value runs until the queue drains. Steps is honoured only when HasSteps is
// set, Period only when HasPeriod is set, and Stop == nil means no stop time.
type RunOptions struct {
	// Steps bounds the number of events dispatched when HasSteps is set;
	// negative means unbounded.
	Steps int
	// HasSteps indicates Steps was actually requested.
	HasSteps bool
	// Period halts once Time >= (time at Run's start) + Period. Takes
	// precedence over Stop, matching the source: it overwrites Stop.
	Period   float64
	HasPeriod bool
	// Stop halts once Time >= Stop.
	Stop    interface{}
	Verbose bool
}

// Run dispatches events in time order until the queue drains, a requested
// stop time is reached, or a requested step count is exhausted -- whichever
// comes first. It mirrors the source's run() loop invariant exactly: sort,
// peek, monotonicity check, stop-time check, steps check, dispatch, merge.
func (s *Sequencer) Run(opts RunOptions) (HaltReason, error) {
	verbose := opts.Verbose || s.verbose

	haltSteps := -1
	if opts.HasSteps {
		haltSteps = opts.Steps
	}

	stop := opts.Stop
	if opts.HasPeriod {
		stop = s.time.Add(opts.Period)
	}

	for len(s.events) > 0 {
		s.sort()
		event := s.events[0]
		rest := s.events[1:]

		nextTime := event.Time()
		if nextTime.Less(s.time) {
			return "", ErrBackwardsTime{Current: s.time, Next: nextTime}
		}
		s.time = nextTime

		if stop != nil {
			stopTime, err := asEventTime(stop)
			if err != nil {
				return "", err
			}
			if s.time.GreaterOrEqual(stopTime) {
				if verbose {
					fmt.Printf("Halted at set time: %s >= %s.\n", s.time, stopTime)
				}
				s.events = append([]Event{event}, rest...)
				return HaltStopTime, nil
			}
		}

		if haltSteps >= 0 {
			haltSteps--
			if haltSteps < 0 {
				if verbose {
					fmt.Printf("Halted after %d steps.\n", opts.Steps)
				}
				s.events = append([]Event{event}, rest...)
				return HaltSteps, nil
			}
		}

		if verbose {
			fmt.Println("\nNEXT:", event.time)
		}
		s.log.Debug("dispatch", "time", s.time.String())

		newEvents, err := event.Action()
		if err != nil {
			s.events = rest
			return "", err
		}

		if len(newEvents) > 0 {
			for i := range newEvents {
				newEvents[i].seq = s.nextSeq
				s.nextSeq++
			}
			rest = append(rest, newEvents...)
			if verbose {
				fmt.Println("resulting: ")
				for _, e := range newEvents {
					fmt.Println("  - ", e.time)
				}
			}
		}

		s.events = rest
		if len(s.events) == 0 {
			if verbose {
				fmt.Println("Halted with no more events.")
			}
			return HaltDrained, nil
		}
	}
	return HaltDrained, nil
}

// Step runs up to n dispatch steps (1 if n <= 0), fewer if the queue drains
// first.
func (s *Sequencer) Step(n int, verbose bool) (HaltReason, error) {
	if n <= 0 {
		n = 1
	}
	return s.Run(RunOptions{Steps: n, HasSteps: true, Verbose: verbose})
}

// Until runs until the sequencer's time reaches or passes the given time.
func (s *Sequencer) Until(stop interface{}, verbose bool) (HaltReason, error) {
	return s.Run(RunOptions{Stop: stop, Verbose: verbose})
}

// Awhile runs for the given period measured from the sequencer's current time.
func (s *Sequencer) Awhile(period float64, verbose bool) (HaltReason, error) {
	return s.Run(RunOptions{Period: period, HasPeriod: true, Verbose: verbose})
}

// Interact drives a REPL over r, writing prompts and output to w: blank
// input is a single step, "q" quits, "*" runs to completion, a bare integer
// steps that many times, "f.f" runs for that period, and "-f.f" runs until
// that time. A leading "-" is accepted only on a decimal; "-n" without a
// decimal point, like any other unrecognised input, prints the help message.
func (s *Sequencer) Interact(r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	for {
		fmt.Fprint(w, "\n n=steps / t.t=for / -t.t=until / *=all / ?\n: ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		ask := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if ask == "" {
			ask = "1"
		}
		switch {
		case ask[0] == 'q':
			return nil
		case ask[0] == '*':
			if _, err := s.Run(RunOptions{}); err != nil {
				return err
			}
		case (ask[0] >= '0' && ask[0] <= '9') || (ask[0] == '-' && strings.Contains(ask, ".")):
			if strings.Contains(ask, ".") {
				f, err := strconv.ParseFloat(ask, 64)
				if err != nil {
					fmt.Fprintln(w, "Options:\n  Q=quit ''=1 n=steps  f.f=period -f.f=until")
				} else if f < 0.0 {
					if _, err := s.Until(-f, false); err != nil {
						return err
					}
				} else {
					if _, err := s.Awhile(f, false); err != nil {
						return err
					}
				}
			} else {
				n, err := strconv.Atoi(ask)
				if err != nil {
					fmt.Fprintln(w, "Options:\n  Q=quit ''=1 n=steps  f.f=period -f.f=until")
				} else if _, err := s.Step(n, false); err != nil {
					return err
				}
			}
		default:
			fmt.Fprintln(w, "Options:\n  Q=quit ''=1 n=steps  f.f=period -f.f=until")
		}
		if len(s.events) == 0 {
			return nil
		}
	}
}
