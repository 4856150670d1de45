package terminate

import (
	"fmt"

	"github.com/pranshuparmar/portsurgeon/internal/safety"
	"github.com/pranshuparmar/portsurgeon/pkg/model"
)

// State is a step of a single termination request.
type State int

const (
	Start State = iota
	SafetyCheck
	Refused
	Attempt
	Waiting
	Forcing
	NeedsElevation
	ElevatedAttempt
	Succeeded
	Failed
)

var stateNames = map[State]string{
	Start:           "start",
	SafetyCheck:     "safety-check",
	Refused:         "refused",
	Attempt:         "attempt",
	Waiting:         "waiting",
	Forcing:         "forcing",
	NeedsElevation:  "needs-elevation",
	ElevatedAttempt: "elevated-attempt",
	Succeeded:       "succeeded",
	Failed:          "failed",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal states end a request; nothing follows them.
func (s State) Terminal() bool {
	return s == Refused || s == Succeeded || s == Failed
}

// Waiting and Forcing are only reached by the graceful sequence.
// SafetyCheck -> NeedsElevation is the explicit elevation request, where the
// caller already knows the plain attempt was denied.
var transitions = map[State][]State{
	Start:           {SafetyCheck},
	SafetyCheck:     {Refused, Attempt, NeedsElevation, Failed},
	Attempt:         {Succeeded, Waiting, NeedsElevation, Failed},
	Waiting:         {Succeeded, Forcing, Failed},
	Forcing:         {Succeeded, NeedsElevation, Failed},
	NeedsElevation:  {ElevatedAttempt},
	ElevatedAttempt: {Succeeded, Failed},
}

func (s State) next(to State) bool {
	for _, t := range transitions[s] {
		if t == to {
			return true
		}
	}
	return false
}

// Report records the path a request took and how it ended.
type Report struct {
	PID     int
	Name    string
	Verdict safety.Verdict
	Path    []State
	Outcome model.TerminationOutcome
}

func newReport(pid int) *Report {
	return &Report{PID: pid, Path: []State{Start}}
}

func (r *Report) State() State {
	return r.Path[len(r.Path)-1]
}

// to advances the report. An illegal transition is a programming error.
func (r *Report) to(s State) {
	cur := r.State()
	if !cur.next(s) {
		panic(fmt.Sprintf("terminate: illegal transition %s -> %s", cur, s))
	}
	r.Path = append(r.Path, s)
}

func (r *Report) finish(s State, out model.TerminationOutcome) Report {
	r.to(s)
	r.Outcome = out
	return *r
}
