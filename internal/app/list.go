package app

import (
	"context"
	"fmt"
	"io"

	"github.com/pranshuparmar/portsurgeon/internal/output"
	"github.com/pranshuparmar/portsurgeon/internal/target"
	"github.com/pranshuparmar/portsurgeon/pkg/model"
)

func list(ctx context.Context, w io.Writer, svc service, cfg Config, all bool) error {
	snap, err := svc.Snapshot(ctx, all)
	if err != nil {
		return err
	}
	if cfg.JSON {
		return printJSON(w, snap)
	}
	output.RenderProcesses(w, snap.Processes, cfg.colorEnabled())
	output.RenderSummary(w, snap, cfg.colorEnabled())
	return nil
}

func showPort(ctx context.Context, w io.Writer, svc service, cfg Config, port uint16) error {
	nodes, err := svc.FindPort(ctx, port)
	if err != nil {
		return err
	}
	return showNodes(w, nodes, cfg, fmt.Sprintf("Nothing is bound to port %d", port))
}

// showTarget prints details for a pid, port or name.
func showTarget(ctx context.Context, w io.Writer, svc service, cfg Config, arg string) error {
	t, err := target.Parse(arg)
	if err != nil {
		return err
	}
	if t.Type == model.TargetPort {
		return showPort(ctx, w, svc, cfg, uint16(t.Value))
	}

	snap, err := svc.Snapshot(ctx, true)
	if err != nil {
		return err
	}
	var nodes []model.ProcessNode
	switch t.Type {
	case model.TargetPID:
		for _, n := range snap.Processes {
			if n.PID == t.Value {
				nodes = append(nodes, n)
			}
		}
	case model.TargetName:
		want := make(map[int]bool)
		for _, pid := range target.ResolveName(snap.Processes, t.Name, false) {
			want[pid] = true
		}
		for _, n := range snap.Processes {
			if want[n.PID] {
				nodes = append(nodes, n)
			}
		}
	}
	return showNodes(w, nodes, cfg, fmt.Sprintf("No process holding sockets matches %q", arg))
}

func showNodes(w io.Writer, nodes []model.ProcessNode, cfg Config, empty string) error {
	if cfg.JSON {
		if nodes == nil {
			nodes = []model.ProcessNode{}
		}
		return printJSON(w, nodes)
	}
	if len(nodes) == 0 {
		fmt.Fprintln(w, empty)
		return errFailed
	}
	for i, n := range nodes {
		if i > 0 {
			fmt.Fprintln(w)
		}
		output.RenderNode(w, n, cfg.colorEnabled())
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	s, err := output.ToJSON(v)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, s)
	return nil
}
