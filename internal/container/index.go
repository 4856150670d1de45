package container

import (
	"sort"
	"sync"

	"github.com/pranshuparmar/portsurgeon/pkg/model"
)

// Index maps host ports to the running container publishing them. It is
// rebuilt wholesale; there are no incremental updates.
type Index struct {
	mu    sync.RWMutex
	ports map[uint16]model.ContainerInfo
}

func NewIndex() *Index {
	return &Index{ports: make(map[uint16]model.ContainerInfo)}
}

// Replace clears the index and inserts every host port binding in listing
// order. When two containers publish the same host port the later one wins.
func (ix *Index) Replace(containers []model.ContainerInfo) {
	next := make(map[uint16]model.ContainerInfo)
	for _, c := range containers {
		for _, p := range c.Ports {
			next[p.HostPort] = c
		}
	}

	ix.mu.Lock()
	ix.ports = next
	ix.mu.Unlock()
}

func (ix *Index) Lookup(port uint16) (model.ContainerInfo, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	c, ok := ix.ports[port]
	return c, ok
}

func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.ports)
}

// Ports returns the indexed host ports in ascending order.
func (ix *Index) Ports() []uint16 {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make([]uint16, 0, len(ix.ports))
	for p := range ix.ports {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
