// Package safety decides which processes may never be terminated.
package safety

import (
	"fmt"
	"os"
	"strings"
)

type Kind int

const (
	Safe Kind = iota
	ProtectedName
	ProtectedPID
	SelfTermination
)

func (k Kind) String() string {
	switch k {
	case Safe:
		return "safe"
	case ProtectedName:
		return "protected-name"
	case ProtectedPID:
		return "protected-pid"
	case SelfTermination:
		return "self"
	}
	return "unknown"
}

// Verdict is the result of classifying a (pid, name) pair.
type Verdict struct {
	Kind Kind
	PID  int
	Name string
}

func (v Verdict) Safe() bool { return v.Kind == Safe }

// Reason is the operator-facing explanation for a refusal.
func (v Verdict) Reason() string {
	switch v.Kind {
	case ProtectedName:
		return fmt.Sprintf("Cannot terminate protected system process: %s", v.Name)
	case ProtectedPID:
		return fmt.Sprintf("Cannot terminate protected PID: %d", v.PID)
	case SelfTermination:
		return "Cannot terminate self"
	}
	return ""
}

// kernel / init anchor
var protectedPIDs = map[int]bool{0: true, 1: true}

// Registry is immutable after construction and safe for concurrent use.
type Registry struct {
	self  int
	names map[string]bool
}

// New builds a registry protecting self and the given process names.
func New(self int, names []string) *Registry {
	r := &Registry{
		self:  self,
		names: make(map[string]bool, len(names)),
	}
	for _, n := range names {
		r.names[normalize(n)] = true
	}
	return r
}

// Default protects the running process and the platform's critical processes.
func Default() *Registry {
	return New(os.Getpid(), platformNames)
}

func (r *Registry) Classify(pid int, name string) Verdict {
	if pid == r.self {
		return Verdict{Kind: SelfTermination, PID: pid, Name: name}
	}
	if protectedPIDs[pid] {
		return Verdict{Kind: ProtectedPID, PID: pid, Name: name}
	}
	if r.names[normalize(name)] {
		return Verdict{Kind: ProtectedName, PID: pid, Name: name}
	}
	return Verdict{Kind: Safe, PID: pid, Name: name}
}

func (r *Registry) Protected(pid int, name string) bool {
	return !r.Classify(pid, name).Safe()
}

func normalize(name string) string {
	return strings.TrimSuffix(strings.ToLower(name), ".exe")
}
