package proc

import (
	"sync"

	"github.com/pranshuparmar/portsurgeon/pkg/model"
)

// Table is a point-in-time view of running processes. Rescan replaces the
// whole snapshot under the write lock, so readers never see a partial scan.
type Table struct {
	mu    sync.RWMutex
	procs map[int]model.ProcessMetadata

	read  func(pid int) (model.ProcessMetadata, error)
	list  func() ([]model.ProcessMetadata, error)
	alive func(pid int) bool
}

func NewTable() *Table {
	return newTable(readProcess, listProcesses, isAlive)
}

func newTable(
	read func(int) (model.ProcessMetadata, error),
	list func() ([]model.ProcessMetadata, error),
	alive func(int) bool,
) *Table {
	return &Table{
		procs: make(map[int]model.ProcessMetadata),
		read:  read,
		list:  list,
		alive: alive,
	}
}

func (t *Table) Rescan() error {
	procs, err := t.list()
	if err != nil {
		return err
	}
	next := make(map[int]model.ProcessMetadata, len(procs))
	for _, p := range procs {
		next[p.PID] = p
	}

	t.mu.Lock()
	t.procs = next
	t.mu.Unlock()
	return nil
}

// Lookup always reads the process fresh; the pid may have been reused since
// the last scan.
func (t *Table) Lookup(pid int) (model.ProcessMetadata, bool) {
	p, err := t.read(pid)

	t.mu.Lock()
	defer t.mu.Unlock()
	if err != nil {
		delete(t.procs, pid)
		return model.ProcessMetadata{}, false
	}
	t.procs[pid] = p
	return p, true
}

// LookupMany answers from the last scan and falls back to a fresh read for
// pids the scan did not see. Absent pids are omitted.
func (t *Table) LookupMany(pids []int) map[int]model.ProcessMetadata {
	out := make(map[int]model.ProcessMetadata, len(pids))
	var missing []int

	t.mu.RLock()
	for _, pid := range pids {
		if p, ok := t.procs[pid]; ok {
			out[pid] = p
		} else {
			missing = append(missing, pid)
		}
	}
	t.mu.RUnlock()

	for _, pid := range missing {
		if p, ok := t.Lookup(pid); ok {
			out[pid] = p
		}
	}
	return out
}

func (t *Table) Alive(pid int) bool {
	return t.alive(pid)
}

func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.procs)
}
