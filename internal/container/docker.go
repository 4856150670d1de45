package container

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	log "github.com/sirupsen/logrus"

	"github.com/pranshuparmar/portsurgeon/pkg/model"
)

const (
	pingTimeout     = 2 * time.Second
	stopGracePeriod = 10 // seconds
)

// dockerAPI is the slice of the Engine API client we use.
type dockerAPI interface {
	Ping(ctx context.Context) (types.Ping, error)
	ContainerList(ctx context.Context, options container.ListOptions) ([]types.Container, error)
	ContainerStop(ctx context.Context, containerID string, options container.StopOptions) error
	ContainerKill(ctx context.Context, containerID, signal string) error
	ContainerRemove(ctx context.Context, containerID string, options container.RemoveOptions) error
	ContainerRestart(ctx context.Context, containerID string, options container.StopOptions) error
	io.Closer
}

// DockerSource talks to a Docker-compatible Engine API (Docker, Podman).
type DockerSource struct {
	api     dockerAPI
	runtime model.ContainerRuntime
	index   *Index
}

// Connect dials the engine named by host (DOCKER_HOST when empty). A runtime
// that cannot be reached yields a NullSource, never an error.
func Connect(ctx context.Context, host string) Source {
	opts := []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}
	if host != "" {
		opts = append(opts, client.WithHost(host))
	}
	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		log.WithError(err).Debug("Docker client creation failed")
		return NullSource{}
	}

	src, err := newDockerSource(ctx, cli, runtimeFor(cli.DaemonHost()))
	if err != nil {
		log.WithError(err).Warn("Container runtime not available - container features disabled")
		_ = cli.Close()
		return NullSource{}
	}
	log.WithField("host", cli.DaemonHost()).Info("Container runtime connection established")
	return src
}

func newDockerSource(ctx context.Context, api dockerAPI, rt model.ContainerRuntime) (*DockerSource, error) {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if _, err := api.Ping(pingCtx); err != nil {
		return nil, fmt.Errorf("ping container runtime: %w", err)
	}
	return &DockerSource{api: api, runtime: rt, index: NewIndex()}, nil
}

func runtimeFor(host string) model.ContainerRuntime {
	if strings.Contains(strings.ToLower(host), "podman") {
		return model.RuntimePodman
	}
	return model.RuntimeDocker
}

func (d *DockerSource) Available() bool { return true }

func (d *DockerSource) Refresh(ctx context.Context) error {
	containers, err := d.list(ctx, false)
	if err != nil {
		return err
	}
	d.index.Replace(containers)
	log.WithFields(log.Fields{
		"containers": len(containers),
		"ports":      d.index.Len(),
	}).Debug("Container port index rebuilt")
	return nil
}

func (d *DockerSource) ContainerForPort(port uint16) (model.ContainerInfo, bool) {
	return d.index.Lookup(port)
}

func (d *DockerSource) ListAll(ctx context.Context) ([]model.ContainerInfo, error) {
	return d.list(ctx, true)
}

func (d *DockerSource) list(ctx context.Context, all bool) ([]model.ContainerInfo, error) {
	containers, err := d.api.ContainerList(ctx, container.ListOptions{All: all})
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}
	out := make([]model.ContainerInfo, 0, len(containers))
	for _, c := range containers {
		out = append(out, toInfo(c, d.runtime))
	}
	return out, nil
}

func (d *DockerSource) Execute(ctx context.Context, id string, action model.ContainerAction) error {
	var err error
	switch action {
	case model.ContainerStop:
		timeout := stopGracePeriod
		err = d.api.ContainerStop(ctx, id, container.StopOptions{Timeout: &timeout})
	case model.ContainerKill:
		err = d.api.ContainerKill(ctx, id, "SIGKILL")
	case model.ContainerRemove:
		err = d.api.ContainerRemove(ctx, id, container.RemoveOptions{Force: true})
	case model.ContainerRestart:
		err = d.api.ContainerRestart(ctx, id, container.StopOptions{})
	default:
		return fmt.Errorf("unknown container action %q", action)
	}
	if err != nil {
		return fmt.Errorf("%s container %s: %w", action, id, err)
	}
	log.WithFields(log.Fields{
		"action":    action,
		"container": id,
	}).Info("Container action completed")
	return nil
}

func (d *DockerSource) Close() error {
	return d.api.Close()
}

// toInfo keeps only port bindings published on the host.
func toInfo(c types.Container, rt model.ContainerRuntime) model.ContainerInfo {
	name := "unknown"
	if len(c.Names) > 0 {
		name = strings.TrimPrefix(c.Names[0], "/")
	}

	var ports []model.ContainerPort
	for _, p := range c.Ports {
		if p.PublicPort == 0 {
			continue
		}
		proto := model.TCP
		if strings.EqualFold(p.Type, "udp") {
			proto = model.UDP
		}
		ports = append(ports, model.ContainerPort{
			HostPort:      p.PublicPort,
			ContainerPort: p.PrivatePort,
			Protocol:      proto,
			HostIP:        p.IP,
		})
	}

	return model.ContainerInfo{
		ID:      c.ID,
		Name:    name,
		Image:   c.Image,
		Status:  c.Status,
		State:   c.State,
		Runtime: rt,
		Ports:   ports,
	}
}
