// Package pipeline runs query and termination requests end to end: it pulls
// fresh snapshots from the sources, correlates them and hands termination to
// the orchestrator.
package pipeline

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/pranshuparmar/portsurgeon/internal/container"
	"github.com/pranshuparmar/portsurgeon/internal/correlate"
	"github.com/pranshuparmar/portsurgeon/internal/proc"
	"github.com/pranshuparmar/portsurgeon/internal/safety"
	"github.com/pranshuparmar/portsurgeon/internal/terminate"
	"github.com/pranshuparmar/portsurgeon/pkg/model"
)

// Terminator is the part of the orchestrator the service drives.
type Terminator interface {
	Terminate(ctx context.Context, pid int, force bool) model.TerminationOutcome
	Elevate(ctx context.Context, pid int, force bool) model.TerminationOutcome
	TerminateGraceful(ctx context.Context, pid int, timeout time.Duration) model.TerminationOutcome
}

// rescanner is implemented by process sources that keep a snapshot.
type rescanner interface {
	Rescan() error
}

type Options struct {
	DockerHost string
	// AutoElevate retries a privilege failure once through the elevation
	// helper.
	AutoElevate bool
	// HideSelf drops the running process from snapshots.
	HideSelf bool
	Log      *log.Entry
}

type Service struct {
	Sockets     proc.SocketSource
	Engine      *correlate.Engine
	Terminator  Terminator
	AutoElevate bool
	// HidePID is left out of snapshots when non-zero.
	HidePID int
	Log     *log.Entry

	now func() time.Time
}

// Open wires the service to the running host and the container runtime at
// opts.DockerHost. A missing runtime is not an error.
func Open(ctx context.Context, opts Options) *Service {
	reg := safety.Default()
	table := proc.NewTable()
	if err := table.Rescan(); err != nil {
		logger(opts.Log).WithError(err).Warn("initial process scan failed")
	}

	orch := terminate.New(reg, table)
	orch.Log = opts.Log

	s := &Service{
		Sockets: proc.OSSockets{},
		Engine: &correlate.Engine{
			Registry:   reg,
			Procs:      table,
			Containers: container.Connect(ctx, opts.DockerHost),
		},
		Terminator:  orch,
		AutoElevate: opts.AutoElevate,
		Log:         opts.Log,
	}
	if opts.HideSelf {
		s.HidePID = os.Getpid()
	}
	return s
}

func (s *Service) Close() error {
	if s.Engine.Containers == nil {
		return nil
	}
	return s.Engine.Containers.Close()
}

func (s *Service) ContainersAvailable() bool {
	return s.Engine.Containers != nil && s.Engine.Containers.Available()
}

// Snapshot is the full query: every process holding a socket, deduplicated
// per port. Only listening sockets are read unless includeNonListening is set.
func (s *Service) Snapshot(ctx context.Context, includeNonListening bool) (model.Snapshot, error) {
	l := s.request("snapshot")

	records, err := s.Sockets.Sockets(!includeNonListening)
	if err != nil {
		l.WithError(err).Error("socket scan failed")
		return model.Snapshot{}, model.ScanError(err)
	}
	s.rescan(l)
	s.refreshContainers(ctx, l)

	res := s.Engine.Build(records)
	nodes := res.Nodes
	if s.HidePID != 0 {
		nodes = nodes[:0]
		for _, n := range res.Nodes {
			if n.PID == s.HidePID {
				if n.Listening() {
					res.ListeningPorts--
				}
				continue
			}
			nodes = append(nodes, n)
		}
	}

	l.WithFields(log.Fields{
		"sockets":   len(records),
		"processes": len(nodes),
	}).Debug("snapshot built")

	return model.Snapshot{
		Processes:           nodes,
		TotalConnections:    res.TotalConnections,
		ListeningPorts:      res.ListeningPorts,
		ContainersAvailable: s.ContainersAvailable(),
		UpdatedAt:           s.clock(),
	}, nil
}

// FindPort returns every owner of port, one node per socket.
func (s *Service) FindPort(ctx context.Context, port uint16) ([]model.ProcessNode, error) {
	l := s.request("find-port").WithField("port", port)

	records, err := s.Sockets.Sockets(false)
	if err != nil {
		l.WithError(err).Error("socket scan failed")
		return nil, model.ScanError(err)
	}
	s.rescan(l)
	s.refreshContainers(ctx, l)
	return s.Engine.FindByPort(records, port), nil
}

func (s *Service) Kill(ctx context.Context, pid int, force bool) model.TerminationOutcome {
	l := s.request("kill").WithFields(log.Fields{"pid": pid, "force": force})

	out := s.Terminator.Terminate(ctx, pid, force)
	if !out.Success && out.RequiredElevation && s.AutoElevate {
		l.Info("retrying with elevated privileges")
		out = s.Terminator.Elevate(ctx, pid, force)
	}
	logOutcome(l, out)
	return out
}

// KillPort terminates every distinct owner of port. Protected owners come
// back as refusals like any other outcome.
func (s *Service) KillPort(ctx context.Context, port uint16, force bool) ([]model.TerminationOutcome, error) {
	nodes, err := s.FindPort(ctx, port)
	if err != nil {
		return nil, err
	}
	seen := make(map[int]bool)
	var outs []model.TerminationOutcome
	for _, n := range nodes {
		if seen[n.PID] {
			continue
		}
		seen[n.PID] = true
		outs = append(outs, s.Kill(ctx, n.PID, force))
	}
	return outs, nil
}

func (s *Service) Elevate(ctx context.Context, pid int, force bool) model.TerminationOutcome {
	l := s.request("elevate").WithFields(log.Fields{"pid": pid, "force": force})
	out := s.Terminator.Elevate(ctx, pid, force)
	logOutcome(l, out)
	return out
}

func (s *Service) KillGraceful(ctx context.Context, pid int, timeout time.Duration) model.TerminationOutcome {
	l := s.request("kill-graceful").WithFields(log.Fields{"pid": pid, "timeout": timeout})
	out := s.Terminator.TerminateGraceful(ctx, pid, timeout)
	logOutcome(l, out)
	return out
}

// ContainerAction never fails the request; runtime errors become a failed
// outcome.
func (s *Service) ContainerAction(ctx context.Context, id string, action model.ContainerAction) model.TerminationOutcome {
	l := s.request("container-action").WithFields(log.Fields{"container": id, "action": action})

	if !s.ContainersAvailable() {
		return model.Failed("%s", container.ErrUnavailable)
	}
	if err := s.Engine.Containers.Execute(ctx, id, action); err != nil {
		l.WithError(err).Warn("container action failed")
		return model.Failed("Container action failed: %v", err)
	}
	l.Info("container action completed")
	return model.Succeeded("Container %s action %s completed", id, action)
}

// Containers lists all containers, stopped ones included. An unavailable
// runtime yields an empty list.
func (s *Service) Containers(ctx context.Context) ([]model.ContainerInfo, error) {
	l := s.request("containers")

	if !s.ContainersAvailable() {
		return []model.ContainerInfo{}, nil
	}
	list, err := s.Engine.Containers.ListAll(ctx)
	if errors.Is(err, container.ErrUnavailable) {
		return []model.ContainerInfo{}, nil
	}
	if err != nil {
		l.WithError(err).Error("container listing failed")
		return nil, &model.AppError{
			Code:    model.CodeContainerError,
			Message: "failed to list containers",
			Details: err.Error(),
			Err:     err,
		}
	}
	return list, nil
}

func (s *Service) rescan(l *log.Entry) {
	r, ok := s.Engine.Procs.(rescanner)
	if !ok {
		return
	}
	if err := r.Rescan(); err != nil {
		l.WithError(err).Warn("process rescan failed, using previous scan")
	}
}

// refreshContainers degrades to no container attachment on error.
func (s *Service) refreshContainers(ctx context.Context, l *log.Entry) {
	if !s.ContainersAvailable() {
		return
	}
	if err := s.Engine.Containers.Refresh(ctx); err != nil {
		l.WithError(err).Warn("container index refresh failed")
	}
}

func (s *Service) request(op string) *log.Entry {
	return logger(s.Log).WithFields(log.Fields{
		"request": uuid.NewString(),
		"op":      op,
	})
}

func (s *Service) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

func logOutcome(l *log.Entry, out model.TerminationOutcome) {
	l = l.WithFields(log.Fields{"success": out.Success, "elevation": out.RequiredElevation})
	if out.Success {
		l.Info(out.Message)
		return
	}
	l.Warn(out.Message)
}

func logger(l *log.Entry) *log.Entry {
	if l == nil {
		return log.NewEntry(log.StandardLogger())
	}
	return l
}
