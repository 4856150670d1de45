package proc

import (
	"strings"

	"github.com/pranshuparmar/portsurgeon/pkg/model"
)

// cgroupRuntime names the container runtime from a /proc/<pid>/cgroup file.
// Host processes return "".
func cgroupRuntime(content string) model.ContainerRuntime {
	switch {
	case strings.Contains(content, "kubepods"):
		return model.RuntimeKubernetes
	case strings.Contains(content, "libpod"), strings.Contains(content, "podman"):
		return model.RuntimePodman
	case strings.Contains(content, "docker"), strings.Contains(content, "colima"):
		return model.RuntimeDocker
	case strings.Contains(content, "containerd"):
		// only after docker and kubernetes, which also run on containerd
		return model.RuntimeContainerd
	}
	return ""
}
