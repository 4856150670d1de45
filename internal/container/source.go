// Package container resolves host ports to the containers publishing them and
// runs container lifecycle actions.
package container

import (
	"context"
	"errors"

	"github.com/pranshuparmar/portsurgeon/pkg/model"
)

var ErrUnavailable = errors.New("container runtime is not available")

// Source is the container runtime as seen by the rest of the program. When
// no runtime is reachable the NullSource stands in.
type Source interface {
	Available() bool
	// Refresh rebuilds the port index from running containers only.
	Refresh(ctx context.Context) error
	ContainerForPort(port uint16) (model.ContainerInfo, bool)
	// ListAll includes stopped containers and leaves the index untouched.
	ListAll(ctx context.Context) ([]model.ContainerInfo, error)
	Execute(ctx context.Context, id string, action model.ContainerAction) error
	Close() error
}

// NullSource answers every query with "nothing there".
type NullSource struct{}

func (NullSource) Available() bool { return false }
func (NullSource) Refresh(context.Context) error { return ErrUnavailable }
func (NullSource) Close() error { return nil }
func (NullSource) ContainerForPort(uint16) (model.ContainerInfo, bool) {
	return model.ContainerInfo{}, false
}
func (NullSource) ListAll(context.Context) ([]model.ContainerInfo, error) {
	return nil, ErrUnavailable
}
func (NullSource) Execute(context.Context, string, model.ContainerAction) error {
	return ErrUnavailable
}
