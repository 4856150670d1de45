// Package terminate runs process termination through the safety gate, the
// plain signal attempt and, when asked, the elevated path.
package terminate

import (
	"context"
	"errors"
	"sync"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/pranshuparmar/portsurgeon/internal/proc"
	"github.com/pranshuparmar/portsurgeon/internal/safety"
	"github.com/pranshuparmar/portsurgeon/pkg/model"
)

const DefaultPollInterval = 100 * time.Millisecond

type Signaler interface {
	Terminate(pid int) error
	Kill(pid int) error
}

type Elevator interface {
	Elevate(ctx context.Context, pid int, force bool) model.TerminationOutcome
}

type Orchestrator struct {
	Registry     *safety.Registry
	Procs        proc.ProcessSource
	Signaler     Signaler
	Elevator     Elevator
	PollInterval time.Duration
	Log          *log.Entry

	// guards the fresh lookup
	mu sync.Mutex
}

func New(reg *safety.Registry, procs proc.ProcessSource) *Orchestrator {
	return &Orchestrator{
		Registry:     reg,
		Procs:        procs,
		Signaler:     UnixSignaler{},
		Elevator:     NewCommandElevator(),
		PollInterval: DefaultPollInterval,
	}
}

func (o *Orchestrator) Terminate(ctx context.Context, pid int, force bool) model.TerminationOutcome {
	return o.Run(ctx, pid, force).Outcome
}

// Run is Terminate with the full report.
func (o *Orchestrator) Run(ctx context.Context, pid int, force bool) Report {
	r, ok := o.check(pid)
	if !ok {
		return *r
	}
	if !o.Procs.Alive(pid) {
		return r.finish(Failed, notFound(pid))
	}

	r.to(Attempt)
	return o.signal(r, force, Succeeded)
}

// Elevate re-checks safety and hands the request to the Elevator once.
func (o *Orchestrator) Elevate(ctx context.Context, pid int, force bool) model.TerminationOutcome {
	return o.RunElevated(ctx, pid, force).Outcome
}

func (o *Orchestrator) RunElevated(ctx context.Context, pid int, force bool) Report {
	r, ok := o.check(pid)
	if !ok {
		return *r
	}
	// no credential prompt for a process that is already gone
	if !o.Procs.Alive(pid) {
		return r.finish(Failed, notFound(pid))
	}
	r.to(NeedsElevation)
	return o.elevate(ctx, r, force)
}

// Escalate continues a report that stopped at NeedsElevation.
func (o *Orchestrator) Escalate(ctx context.Context, prev Report, force bool) Report {
	if prev.State() != NeedsElevation {
		return prev
	}
	r := prev
	r.Path = append([]State(nil), prev.Path...)
	return o.elevate(ctx, &r, force)
}

func (o *Orchestrator) elevate(ctx context.Context, r *Report, force bool) Report {
	r.to(ElevatedAttempt)
	o.logger(r).WithField("force", force).Info("requesting elevated termination")

	if o.Elevator == nil {
		out := model.Failed("Elevated termination is not available")
		out.RequiredElevation = true
		return r.finish(Failed, out)
	}
	out := o.Elevator.Elevate(ctx, r.PID, force)
	if out.Success {
		return r.finish(Succeeded, out)
	}
	return r.finish(Failed, out)
}

// TerminateGraceful sends SIGTERM, waits up to timeout for the process to go
// away and then forces it.
func (o *Orchestrator) TerminateGraceful(ctx context.Context, pid int, timeout time.Duration) model.TerminationOutcome {
	return o.RunGraceful(ctx, pid, timeout).Outcome
}

func (o *Orchestrator) RunGraceful(ctx context.Context, pid int, timeout time.Duration) Report {
	r, ok := o.check(pid)
	if !ok {
		return *r
	}
	if !o.Procs.Alive(pid) {
		return r.finish(Failed, notFound(pid))
	}

	r.to(Attempt)
	rep := o.signal(r, false, Waiting)
	if rep.State() != Waiting {
		return rep
	}
	return o.wait(ctx, r, timeout)
}

func (o *Orchestrator) wait(ctx context.Context, r *Report, timeout time.Duration) Report {
	interval := o.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	tick := time.NewTicker(interval)
	defer tick.Stop()

	for {
		if !o.Procs.Alive(r.PID) {
			return r.finish(Succeeded, model.Succeeded("Process %d terminated gracefully", r.PID))
		}
		select {
		case <-ctx.Done():
			return r.finish(Failed, model.Failed("Waiting for process %d aborted: %v", r.PID, ctx.Err()))
		case <-deadline.C:
			return o.force(r)
		case <-tick.C:
		}
	}
}

func (o *Orchestrator) force(r *Report) Report {
	r.to(Forcing)
	if !o.Procs.Alive(r.PID) {
		return r.finish(Succeeded, model.Succeeded("Process %d terminated gracefully", r.PID))
	}
	o.logger(r).Warn("process did not exit gracefully, forcing termination")
	return o.signal(r, true, Succeeded)
}

// check performs the fresh lookup and the safety gate. It returns false when
// the report is already final.
func (o *Orchestrator) check(pid int) (*Report, bool) {
	r := newReport(pid)

	o.mu.Lock()
	meta, ok := o.Procs.Lookup(pid)
	o.mu.Unlock()
	if !ok || meta.Name == "" {
		meta = model.UnknownProcess(pid)
	}
	r.Name = meta.Name

	r.to(SafetyCheck)
	r.Verdict = o.Registry.Classify(pid, r.Name)
	if !r.Verdict.Safe() {
		o.logger(r).WithField("verdict", r.Verdict.Kind).Warn("termination refused")
		r.finish(Refused, model.Failed("%s", r.Verdict.Reason()).WithCode(model.CodeSafetyViolation))
		return r, false
	}
	// kill(2) treats negative pids as process groups, -1 as every process
	if pid < 0 {
		r.finish(Failed, model.Failed("Invalid PID %d", pid).WithCode(model.CodeNotFound))
		return r, false
	}
	return r, true
}

// signal delivers TERM or KILL. A delivered signal moves the report to ok,
// which is Succeeded or, for the graceful sequence, Waiting.
func (o *Orchestrator) signal(r *Report, force bool, ok State) Report {
	send := o.Signaler.Terminate
	if force {
		send = o.Signaler.Kill
	}

	err := send(r.PID)
	switch {
	case err == nil:
		out := model.Succeeded("Process %d (%s) terminated successfully", r.PID, r.Name)
		if ok != Succeeded {
			r.to(ok)
			r.Outcome = out
			return *r
		}
		return r.finish(Succeeded, out)
	case errors.Is(err, syscall.ESRCH):
		if r.State() == Forcing {
			return r.finish(Succeeded, model.Succeeded("Process %d terminated gracefully", r.PID))
		}
		return r.finish(Failed, notFound(r.PID))
	case errors.Is(err, syscall.EPERM), errors.Is(err, syscall.EACCES):
		o.logger(r).WithError(err).Info("termination denied")
		out := model.Failed("Failed to terminate process %d (%s). May require elevated privileges.", r.PID, r.Name).WithCode(model.CodeAccessDenied)
		out.RequiredElevation = true
		r.to(NeedsElevation)
		r.Outcome = out
		return *r
	default:
		o.logger(r).WithError(err).Error("termination failed")
		return r.finish(Failed, model.Failed("Failed to terminate process %d (%s): %v", r.PID, r.Name, err))
	}
}

func notFound(pid int) model.TerminationOutcome {
	return model.Failed("Process %d not found", pid).WithCode(model.CodeNotFound)
}

func (o *Orchestrator) logger(r *Report) *log.Entry {
	l := o.Log
	if l == nil {
		l = log.NewEntry(log.StandardLogger())
	}
	return l.WithFields(log.Fields{"pid": r.PID, "name": r.Name})
}
