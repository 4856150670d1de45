package model

import "strings"

type ContainerRuntime string

const (
	RuntimeDocker     ContainerRuntime = "docker"
	RuntimePodman     ContainerRuntime = "podman"
	RuntimeContainerd ContainerRuntime = "containerd"
	RuntimeKubernetes ContainerRuntime = "kubernetes"
	RuntimeUnknown    ContainerRuntime = "unknown"
)

type ContainerPort struct {
	HostPort      uint16   `json:"hostPort"`
	ContainerPort uint16   `json:"containerPort"`
	Protocol      Protocol `json:"protocol"`
	HostIP        string   `json:"hostIp,omitempty"`
}

type ContainerInfo struct {
	ID      string           `json:"id"`
	Name    string           `json:"name"`
	Image   string           `json:"image"`
	Status  string           `json:"status"`
	State   string           `json:"state"`
	Runtime ContainerRuntime `json:"runtime"`
	Ports   []ContainerPort  `json:"ports"`
}

func (c ContainerInfo) ShortID() string {
	if len(c.ID) > 12 {
		return c.ID[:12]
	}
	return c.ID
}

type ContainerAction string

const (
	ContainerStop    ContainerAction = "stop"
	ContainerKill    ContainerAction = "kill"
	ContainerRemove  ContainerAction = "remove"
	ContainerRestart ContainerAction = "restart"
)

func ParseContainerAction(s string) (ContainerAction, bool) {
	switch a := ContainerAction(strings.ToLower(s)); a {
	case ContainerStop, ContainerKill, ContainerRemove, ContainerRestart:
		return a, true
	}
	return "", false
}
