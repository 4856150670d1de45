// Package correlate fuses socket records, process metadata and container
// metadata into one node per process.
package correlate

import (
	"sort"

	"github.com/pranshuparmar/portsurgeon/internal/container"
	"github.com/pranshuparmar/portsurgeon/internal/proc"
	"github.com/pranshuparmar/portsurgeon/internal/safety"
	"github.com/pranshuparmar/portsurgeon/pkg/model"
)

type Engine struct {
	Registry   *safety.Registry
	Procs      proc.ProcessSource
	Containers container.Source
}

type Result struct {
	Nodes            []model.ProcessNode
	TotalConnections int
	ListeningPorts   int
}

type portKey struct {
	proto model.Protocol
	port  uint16
	addr  string
}

func keyOf(r model.SocketRecord) portKey {
	return portKey{proto: r.Protocol, port: r.LocalPort, addr: model.NormalizedAddress(r.LocalAddress)}
}

// Build groups records by owning pid. For each pid only the first record per
// (protocol, port, normalized address) is kept; the same tuple under another
// pid gets its own entry.
func (e *Engine) Build(records []model.SocketRecord) Result {
	var order []int
	ports := make(map[int][]model.PortEntry)
	seen := make(map[int]map[portKey]bool)

	for _, r := range records {
		key := keyOf(r)
		for _, pid := range r.PIDs {
			s, ok := seen[pid]
			if !ok {
				s = make(map[portKey]bool)
				seen[pid] = s
				order = append(order, pid)
			}
			if s[key] {
				continue
			}
			s[key] = true
			ports[pid] = append(ports[pid], r.Entry())
		}
	}

	meta := e.lookup(order)
	nodes := make([]model.ProcessNode, 0, len(order))
	for _, pid := range order {
		nodes = append(nodes, e.node(pid, metaFor(meta, pid), ports[pid]))
	}
	sortNodes(nodes)

	res := Result{Nodes: nodes, TotalConnections: len(records)}
	for _, n := range nodes {
		if n.Listening() {
			res.ListeningPorts++
		}
	}
	return res
}

// FindByPort builds one node per (pid, record) for records bound to port.
// Nothing is deduplicated: a single-port query keeps every owner and socket.
func (e *Engine) FindByPort(records []model.SocketRecord, port uint16) []model.ProcessNode {
	var matched []model.SocketRecord
	var pids []int
	for _, r := range records {
		if r.LocalPort != port {
			continue
		}
		matched = append(matched, r)
		pids = append(pids, r.PIDs...)
	}
	if len(matched) == 0 {
		return []model.ProcessNode{}
	}

	meta := e.lookup(pids)
	nodes := make([]model.ProcessNode, 0, len(pids))
	for _, r := range matched {
		for _, pid := range r.PIDs {
			nodes = append(nodes, e.node(pid, metaFor(meta, pid), []model.PortEntry{r.Entry()}))
		}
	}
	sortNodes(nodes)
	return nodes
}

func (e *Engine) lookup(pids []int) map[int]model.ProcessMetadata {
	if e.Procs == nil || len(pids) == 0 {
		return map[int]model.ProcessMetadata{}
	}
	return e.Procs.LookupMany(pids)
}

// metaFor substitutes the Unknown sentinel so that a socket whose owner has
// exited or is unreadable still surfaces.
func metaFor(meta map[int]model.ProcessMetadata, pid int) model.ProcessMetadata {
	if m, ok := meta[pid]; ok {
		return m
	}
	return model.UnknownProcess(pid)
}

func (e *Engine) node(pid int, meta model.ProcessMetadata, ports []model.PortEntry) model.ProcessNode {
	n := model.ProcessNode{
		ID:             model.NodeID(pid, ports),
		PID:            pid,
		Name:           meta.Name,
		ExePath:        meta.ExePath,
		Cmdline:        meta.Cmdline,
		User:           meta.User,
		MemoryBytes:    meta.MemoryBytes,
		CPUPercent:     meta.CPUPercent,
		StartedAt:      meta.StartedAt,
		Ports:          ports,
		ContainerProxy: proc.IsContainerProxyName(meta.Name),
		Runtime:        meta.Runtime,
	}

	// only the first port is resolved; a proxy process fronts one container
	if n.ContainerProxy && e.Containers != nil && e.Containers.Available() && len(ports) > 0 {
		if c, ok := e.Containers.ContainerForPort(ports[0].LocalPort); ok {
			n.Container = &c
		}
	}

	if e.Registry != nil {
		n.Protected = e.Registry.Protected(pid, n.Name)
	}
	return n
}

// sortNodes orders by pid; equal pids keep their build order.
func sortNodes(nodes []model.ProcessNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].PID < nodes[j].PID
	})
}
