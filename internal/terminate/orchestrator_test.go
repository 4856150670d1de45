package terminate

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/pranshuparmar/portsurgeon/internal/safety"
	"github.com/pranshuparmar/portsurgeon/pkg/model"
)

const selfPID = 99999

// fakeProcs answers Alive true for the given number of calls per pid. A
// negative count means the process never exits.
type fakeProcs struct {
	mu     sync.Mutex
	names  map[int]string
	alive  map[int]int
	checks int
}

func (f *fakeProcs) Lookup(pid int) (model.ProcessMetadata, bool) {
	name, ok := f.names[pid]
	if !ok {
		return model.ProcessMetadata{}, false
	}
	return model.ProcessMetadata{PID: pid, Name: name}, true
}

func (f *fakeProcs) LookupMany(pids []int) map[int]model.ProcessMetadata {
	out := make(map[int]model.ProcessMetadata)
	for _, pid := range pids {
		if m, ok := f.Lookup(pid); ok {
			out[pid] = m
		}
	}
	return out
}

func (f *fakeProcs) Alive(pid int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checks++
	n, ok := f.alive[pid]
	switch {
	case !ok || n == 0:
		return false
	case n < 0:
		return true
	}
	f.alive[pid] = n - 1
	return true
}

type fakeSignaler struct {
	calls   []string
	termErr error
	killErr error
}

func (s *fakeSignaler) Terminate(pid int) error {
	s.calls = append(s.calls, fmt.Sprintf("term %d", pid))
	return s.termErr
}

func (s *fakeSignaler) Kill(pid int) error {
	s.calls = append(s.calls, fmt.Sprintf("kill %d", pid))
	return s.killErr
}

type fakeElevator struct {
	calls []bool
	out   model.TerminationOutcome
}

func (e *fakeElevator) Elevate(_ context.Context, _ int, force bool) model.TerminationOutcome {
	e.calls = append(e.calls, force)
	return e.out
}

func newOrchestrator(procs *fakeProcs) (*Orchestrator, *fakeSignaler, *fakeElevator) {
	sig := &fakeSignaler{}
	elev := &fakeElevator{out: model.Succeeded("elevated ok")}
	o := &Orchestrator{
		Registry:     safety.New(selfPID, []string{"systemd", "launchd"}),
		Procs:        procs,
		Signaler:     sig,
		Elevator:     elev,
		PollInterval: time.Millisecond,
	}
	return o, sig, elev
}

func TestRefusalsNeverSignal(t *testing.T) {
	tests := []struct {
		name string
		pid  int
		want string
	}{
		{"protected name", 500, "protected system process: systemd"},
		{"protected name case", 501, "protected system process: LaunchD"},
		{"init", 1, "protected PID: 1"},
		{"kernel", 0, "protected PID: 0"},
		{"self", selfPID, "Cannot terminate self"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			procs := &fakeProcs{
				names: map[int]string{500: "systemd", 501: "LaunchD", 1: "init", selfPID: "portsurgeon"},
				alive: map[int]int{500: -1, 501: -1, 1: -1, 0: -1, selfPID: -1},
			}
			o, sig, elev := newOrchestrator(procs)

			for _, force := range []bool{false, true} {
				rep := o.Run(context.Background(), tt.pid, force)
				if rep.Outcome.Success || rep.Outcome.RequiredElevation {
					t.Fatalf("outcome = %+v, want refusal", rep.Outcome)
				}
				if !strings.Contains(rep.Outcome.Message, tt.want) {
					t.Fatalf("message %q does not mention %q", rep.Outcome.Message, tt.want)
				}
				if rep.State() != Refused {
					t.Fatalf("state = %s, want refused", rep.State())
				}
				if rep.Outcome.Code != model.CodeSafetyViolation {
					t.Fatalf("code = %q", rep.Outcome.Code)
				}
			}
			o.TerminateGraceful(context.Background(), tt.pid, time.Second)
			o.Elevate(context.Background(), tt.pid, true)

			if len(sig.calls) != 0 {
				t.Fatalf("signals sent to protected target: %v", sig.calls)
			}
			if len(elev.calls) != 0 {
				t.Fatalf("elevator invoked for protected target")
			}
		})
	}
}

func TestTerminateNotFound(t *testing.T) {
	o, sig, _ := newOrchestrator(&fakeProcs{})
	rep := o.Run(context.Background(), 424242, true)

	if rep.Outcome.Success || rep.Outcome.RequiredElevation {
		t.Fatalf("outcome = %+v", rep.Outcome)
	}
	if !strings.Contains(rep.Outcome.Message, "not found") {
		t.Fatalf("message %q does not mention not found", rep.Outcome.Message)
	}
	if want := []State{Start, SafetyCheck, Failed}; !reflect.DeepEqual(rep.Path, want) {
		t.Fatalf("path = %v, want %v", rep.Path, want)
	}
	if len(sig.calls) != 0 {
		t.Fatalf("unexpected signals %v", sig.calls)
	}
	if rep.Name != "Unknown" {
		t.Fatalf("name = %q, want Unknown", rep.Name)
	}
}

func TestTerminateSignals(t *testing.T) {
	for _, force := range []bool{false, true} {
		procs := &fakeProcs{names: map[int]string{42: "node"}, alive: map[int]int{42: -1}}
		o, sig, _ := newOrchestrator(procs)

		rep := o.Run(context.Background(), 42, force)
		if !rep.Outcome.Success {
			t.Fatalf("force=%v: outcome = %+v", force, rep.Outcome)
		}
		if rep.Outcome.Message != "Process 42 (node) terminated successfully" {
			t.Fatalf("message = %q", rep.Outcome.Message)
		}
		want := "term 42"
		if force {
			want = "kill 42"
		}
		if !reflect.DeepEqual(sig.calls, []string{want}) {
			t.Fatalf("force=%v: calls = %v", force, sig.calls)
		}
		if wantPath := []State{Start, SafetyCheck, Attempt, Succeeded}; !reflect.DeepEqual(rep.Path, wantPath) {
			t.Fatalf("path = %v", rep.Path)
		}
	}
}

func TestTerminateSignalErrors(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		elevation bool
		state     State
		message   string
		code      string
	}{
		{"eperm", fmt.Errorf("signal: %w", syscall.EPERM), true, NeedsElevation, "May require elevated privileges", model.CodeAccessDenied},
		{"eacces", syscall.EACCES, true, NeedsElevation, "May require elevated privileges", model.CodeAccessDenied},
		{"esrch", syscall.ESRCH, false, Failed, "Process 42 not found", model.CodeNotFound},
		{"other", errors.New("boom"), false, Failed, "boom", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			procs := &fakeProcs{names: map[int]string{42: "node"}, alive: map[int]int{42: -1}}
			o, sig, elev := newOrchestrator(procs)
			sig.termErr = tt.err

			rep := o.Run(context.Background(), 42, false)
			if rep.Outcome.Success {
				t.Fatal("unexpected success")
			}
			if rep.Outcome.RequiredElevation != tt.elevation {
				t.Fatalf("RequiredElevation = %v, want %v", rep.Outcome.RequiredElevation, tt.elevation)
			}
			if rep.State() != tt.state {
				t.Fatalf("state = %s, want %s", rep.State(), tt.state)
			}
			if !strings.Contains(rep.Outcome.Message, tt.message) {
				t.Fatalf("message %q does not contain %q", rep.Outcome.Message, tt.message)
			}
			if rep.Outcome.Code != tt.code {
				t.Fatalf("code = %q, want %q", rep.Outcome.Code, tt.code)
			}
			if len(elev.calls) != 0 {
				t.Fatal("orchestrator escalated on its own")
			}
		})
	}
}

func TestEscalateReturnsElevatorOutcome(t *testing.T) {
	procs := &fakeProcs{names: map[int]string{42: "postgres"}, alive: map[int]int{42: -1}}
	o, sig, elev := newOrchestrator(procs)
	sig.killErr = syscall.EPERM
	elev.out = model.TerminationOutcome{Message: "Elevated termination failed: dismissed", RequiredElevation: true}

	rep := o.Run(context.Background(), 42, true)
	rep = o.Escalate(context.Background(), rep, true)

	if rep.Outcome != elev.out {
		t.Fatalf("outcome = %+v, want %+v", rep.Outcome, elev.out)
	}
	if !reflect.DeepEqual(elev.calls, []bool{true}) {
		t.Fatalf("elevator calls = %v", elev.calls)
	}
	want := []State{Start, SafetyCheck, Attempt, NeedsElevation, ElevatedAttempt, Failed}
	if !reflect.DeepEqual(rep.Path, want) {
		t.Fatalf("path = %v, want %v", rep.Path, want)
	}
}

func TestEscalateIgnoresFinishedReport(t *testing.T) {
	procs := &fakeProcs{names: map[int]string{42: "node"}, alive: map[int]int{42: -1}}
	o, _, elev := newOrchestrator(procs)

	rep := o.Run(context.Background(), 42, false)
	if got := o.Escalate(context.Background(), rep, false); got.State() != Succeeded {
		t.Fatalf("state = %s", got.State())
	}
	if len(elev.calls) != 0 {
		t.Fatal("elevator called for finished report")
	}
}

func TestElevateDirect(t *testing.T) {
	procs := &fakeProcs{names: map[int]string{42: "node"}, alive: map[int]int{42: -1}}
	o, sig, elev := newOrchestrator(procs)

	out := o.Elevate(context.Background(), 42, false)
	if out != elev.out {
		t.Fatalf("outcome = %+v, want %+v", out, elev.out)
	}
	if len(sig.calls) != 0 {
		t.Fatalf("plain signal sent: %v", sig.calls)
	}
}

func TestElevateVanishedProcess(t *testing.T) {
	procs := &fakeProcs{names: map[int]string{42: "node"}}
	o, sig, elev := newOrchestrator(procs)

	rep := o.RunElevated(context.Background(), 42, true)
	if rep.Outcome.Success || rep.Outcome.Message != "Process 42 not found" {
		t.Fatalf("outcome = %+v", rep.Outcome)
	}
	if rep.Outcome.Code != model.CodeNotFound {
		t.Fatalf("code = %q", rep.Outcome.Code)
	}
	if want := []State{Start, SafetyCheck, Failed}; !reflect.DeepEqual(rep.Path, want) {
		t.Fatalf("path = %v, want %v", rep.Path, want)
	}
	if len(elev.calls) != 0 || len(sig.calls) != 0 {
		t.Fatalf("elevator calls = %v, signals = %v", elev.calls, sig.calls)
	}
}

func TestNegativePIDNeverSignals(t *testing.T) {
	for _, pid := range []int{-1, -42} {
		// the source claims the pid is alive, as kill(pid, 0) would for a group
		procs := &fakeProcs{names: map[int]string{pid: "node"}, alive: map[int]int{pid: -1}}
		o, sig, elev := newOrchestrator(procs)

		reports := []Report{
			o.Run(context.Background(), pid, false),
			o.Run(context.Background(), pid, true),
			o.RunElevated(context.Background(), pid, true),
			o.RunGraceful(context.Background(), pid, time.Second),
		}
		for i, rep := range reports {
			if rep.Outcome.Success {
				t.Fatalf("pid %d call %d: unexpected success", pid, i)
			}
			if want := fmt.Sprintf("Invalid PID %d", pid); rep.Outcome.Message != want {
				t.Fatalf("pid %d call %d: message = %q, want %q", pid, i, rep.Outcome.Message, want)
			}
			if rep.State() != Failed {
				t.Fatalf("pid %d call %d: state = %s", pid, i, rep.State())
			}
		}
		if len(sig.calls) != 0 {
			t.Fatalf("pid %d: signals sent %v", pid, sig.calls)
		}
		if len(elev.calls) != 0 {
			t.Fatalf("pid %d: elevator invoked %v", pid, elev.calls)
		}
	}
}

func TestGracefulExit(t *testing.T) {
	// alive for the pre-check and two polls
	procs := &fakeProcs{names: map[int]string{42: "node"}, alive: map[int]int{42: 3}}
	o, sig, _ := newOrchestrator(procs)

	rep := o.RunGraceful(context.Background(), 42, 5*time.Second)
	if !rep.Outcome.Success || rep.Outcome.Message != "Process 42 terminated gracefully" {
		t.Fatalf("outcome = %+v", rep.Outcome)
	}
	if !reflect.DeepEqual(sig.calls, []string{"term 42"}) {
		t.Fatalf("calls = %v", sig.calls)
	}
	want := []State{Start, SafetyCheck, Attempt, Waiting, Succeeded}
	if !reflect.DeepEqual(rep.Path, want) {
		t.Fatalf("path = %v, want %v", rep.Path, want)
	}
}

func TestGracefulTimeoutForces(t *testing.T) {
	procs := &fakeProcs{names: map[int]string{42: "node"}, alive: map[int]int{42: -1}}
	o, sig, _ := newOrchestrator(procs)
	o.PollInterval = 5 * time.Millisecond

	timeout := 30 * time.Millisecond
	start := time.Now()
	rep := o.RunGraceful(context.Background(), 42, timeout)
	elapsed := time.Since(start)

	if !reflect.DeepEqual(sig.calls, []string{"term 42", "kill 42"}) {
		t.Fatalf("calls = %v", sig.calls)
	}
	if !rep.Outcome.Success {
		t.Fatalf("outcome = %+v", rep.Outcome)
	}
	want := []State{Start, SafetyCheck, Attempt, Waiting, Forcing, Succeeded}
	if !reflect.DeepEqual(rep.Path, want) {
		t.Fatalf("path = %v, want %v", rep.Path, want)
	}
	if elapsed < timeout {
		t.Fatalf("forced after %v, before timeout %v", elapsed, timeout)
	}
	// pre-check, one check per tick, one before forcing, plus slack
	if max := 3 + int(timeout/o.PollInterval) + 2; procs.checks > max {
		t.Fatalf("polled %d times, want at most %d", procs.checks, max)
	}
}

func TestGracefulForceFindsProcessGone(t *testing.T) {
	procs := &fakeProcs{names: map[int]string{42: "node"}, alive: map[int]int{42: -1}}
	o, sig, _ := newOrchestrator(procs)
	o.PollInterval = 5 * time.Millisecond
	sig.killErr = syscall.ESRCH

	rep := o.RunGraceful(context.Background(), 42, 10*time.Millisecond)
	if !rep.Outcome.Success || rep.Outcome.Message != "Process 42 terminated gracefully" {
		t.Fatalf("outcome = %+v", rep.Outcome)
	}
}

func TestGracefulPrivilegeFailureReturnsImmediately(t *testing.T) {
	procs := &fakeProcs{names: map[int]string{42: "node"}, alive: map[int]int{42: -1}}
	o, sig, _ := newOrchestrator(procs)
	sig.termErr = syscall.EPERM

	rep := o.RunGraceful(context.Background(), 42, time.Hour)
	if !rep.Outcome.RequiredElevation || rep.Outcome.Success {
		t.Fatalf("outcome = %+v", rep.Outcome)
	}
	if !reflect.DeepEqual(sig.calls, []string{"term 42"}) {
		t.Fatalf("calls = %v", sig.calls)
	}
}

func TestGracefulContextCancel(t *testing.T) {
	procs := &fakeProcs{names: map[int]string{42: "node"}, alive: map[int]int{42: -1}}
	o, sig, _ := newOrchestrator(procs)
	o.PollInterval = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep := o.RunGraceful(ctx, 42, time.Hour)
	if rep.Outcome.Success || !strings.Contains(rep.Outcome.Message, context.Canceled.Error()) {
		t.Fatalf("outcome = %+v", rep.Outcome)
	}
	if !reflect.DeepEqual(sig.calls, []string{"term 42"}) {
		t.Fatalf("calls = %v", sig.calls)
	}
}

func TestStateTransitions(t *testing.T) {
	if Start.next(Succeeded) {
		t.Error("start must not jump to succeeded")
	}
	if Refused.next(Attempt) {
		t.Error("refused is terminal")
	}
	if !SafetyCheck.next(Refused) || !Attempt.next(NeedsElevation) || !NeedsElevation.next(ElevatedAttempt) {
		t.Error("missing legal transition")
	}
	for s := range transitions {
		if s.Terminal() {
			t.Errorf("terminal state %s has outgoing transitions", s)
		}
	}

	defer func() {
		if recover() == nil {
			t.Fatal("illegal transition did not panic")
		}
	}()
	newReport(1).to(Succeeded)
}
