package model

type TargetType string

const (
	TargetPID  TargetType = "pid"
	TargetPort TargetType = "port"
	TargetName TargetType = "name"
)

// Target is what the operator asked to act on: a pid, every owner of a
// local port, or every socket-holding process matching a name.
type Target struct {
	Type  TargetType `json:"type"`
	Value int        `json:"value,omitempty"`
	Name  string     `json:"name,omitempty"`
}
