// Package proc reads the OS socket table and process metadata.
package proc

import (
	"strings"

	"github.com/pranshuparmar/portsurgeon/pkg/model"
)

// SocketSource enumerates the socket table.
type SocketSource interface {
	Sockets(listeningOnly bool) ([]model.SocketRecord, error)
}

// ProcessSource resolves process metadata by pid.
type ProcessSource interface {
	Lookup(pid int) (model.ProcessMetadata, bool)
	LookupMany(pids []int) map[int]model.ProcessMetadata
	Alive(pid int) bool
}

// OSSockets reads the socket table of the running host.
type OSSockets struct{}

func (OSSockets) Sockets(listeningOnly bool) ([]model.SocketRecord, error) {
	records, err := listSockets()
	if err != nil {
		return nil, err
	}
	if !listeningOnly {
		return records, nil
	}
	out := records[:0]
	for _, r := range records {
		if r.State == model.StateListen {
			out = append(out, r)
		}
	}
	return out, nil
}

// IsContainerProxyName reports whether name belongs to a container runtime
// process that holds sockets on behalf of containers.
func IsContainerProxyName(name string) bool {
	n := strings.ToLower(name)
	switch n {
	case "dockerd", "docker-proxy", "vpnkit", "com.docker.backend", "com.docker.vpnkit":
		return true
	}
	return strings.Contains(n, "docker") || strings.Contains(n, "containerd")
}
