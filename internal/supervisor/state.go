package supervisor

import "strings"

// BuildState is the logical outcome of the watch process's current
// build cycle. Exactly one instance exists per session; transitions
// are driven by subprocess output and exit events only.
type BuildState int

const (
	StateIdle BuildState = iota
	StateStarting
	StateWatching
	StateSucceeded
	StateFailed
	StateStopped
)

func (s BuildState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateWatching:
		return "watching"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

// EventKind discriminates the discrete inputs the state machine reacts to.
type EventKind int

const (
	// EventStdoutLine carries one non-empty line from stdout.
	EventStdoutLine EventKind = iota
	// EventStderrLine carries one non-empty line from stderr.
	EventStderrLine
	// EventExit fires once when the process closes.
	EventExit
)

// Event is a single discrete input to the state machine.
type Event struct {
	Kind     EventKind
	Line     string
	ExitCode int
}

// Effect names a side effect the caller must apply after a transition.
// Keeping effects out of the transition function makes it testable
// without a real subprocess.
type Effect int

const (
	// EffectClearErrors empties the error partition of the log buffer.
	EffectClearErrors Effect = iota
	// EffectReload invalidates loaded moon modules and broadcasts a
	// full reload.
	EffectReload
	// EffectLogExit records the process exit code.
	EffectLogExit
)

// Transition applies one event to the current state and returns the
// next state plus the effects to run. It is pure: no I/O, no mutation.
//
// A "Watching for changes" marker re-arms the cycle from any live
// state and discards stale errors; the watch tool emits it exactly
// when it is back to waiting, so failed and succeeded cycles re-enter
// through it. Completion and failure both leave the process running.
func Transition(state BuildState, ev Event) (BuildState, []Effect) {
	if state == StateStopped {
		return state, nil
	}

	switch ev.Kind {
	case EventExit:
		return StateStopped, []Effect{EffectLogExit}

	case EventStdoutLine:
		switch {
		case isWatchingLine(ev.Line):
			switch state {
			case StateStarting, StateWatching, StateSucceeded, StateFailed:
				return StateWatching, []Effect{EffectClearErrors}
			}
		case isSuccessLine(ev.Line):
			switch state {
			case StateWatching, StateSucceeded, StateFailed:
				return StateSucceeded, []Effect{EffectClearErrors, EffectReload}
			}
		}

	case EventStderrLine:
		if isErrorLine(ev.Line) {
			switch state {
			case StateStarting, StateWatching, StateSucceeded:
				// The watch process keeps running and may recover on
				// the next change; only the outcome flag flips.
				return StateFailed, nil
			}
		}
	}

	return state, nil
}

func isWatchingLine(line string) bool {
	return strings.Contains(line, watchingMarker)
}

func isSuccessLine(line string) bool {
	for _, marker := range successMarkers {
		if strings.Contains(line, marker) {
			return true
		}
	}
	return false
}
