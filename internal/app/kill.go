package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/pranshuparmar/portsurgeon/internal/output"
	"github.com/pranshuparmar/portsurgeon/internal/target"
	"github.com/pranshuparmar/portsurgeon/pkg/model"
)

type killFlags struct {
	force    bool
	graceful bool
	timeout  time.Duration
}

func newKillCmd(cfg *Config) *cobra.Command {
	var kf killFlags

	cmd := &cobra.Command{
		Use:   "kill TARGET",
		Short: "Terminate a process by pid, port (:8080) or name",
		Long: `Terminate a process. Protected processes are refused before any signal is
sent. Without --force SIGTERM is sent, with --force SIGKILL. --graceful sends
SIGTERM, waits up to --timeout and then forces. --elevate retries a
permission failure once through pkexec (Linux) or osascript (macOS).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if kf.graceful && kf.force {
				return fmt.Errorf("--graceful and --force are mutually exclusive")
			}
			t, err := target.Parse(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			svc := openService(ctx, *cfg, false)
			defer svc.Close()

			outs, err := runKill(ctx, cmd.OutOrStdout(), svc, *cfg, kf, t)
			if err != nil {
				return err
			}
			return report(cmd.OutOrStdout(), *cfg, outs)
		},
	}

	f := cmd.Flags()
	f.BoolVarP(&kf.force, "force", "f", false, "send SIGKILL instead of SIGTERM")
	f.BoolVarP(&kf.graceful, "graceful", "g", false, "SIGTERM, wait, then SIGKILL")
	f.DurationVarP(&kf.timeout, "timeout", "t", 5*time.Second, "how long --graceful waits")
	f.BoolVarP(&cfg.AutoElevate, "elevate", "e", false, "retry with elevated privileges on permission failure")
	return cmd
}

func runKill(ctx context.Context, w io.Writer, svc service, cfg Config, kf killFlags, t model.Target) ([]model.TerminationOutcome, error) {
	switch t.Type {
	case model.TargetPort:
		if kf.graceful {
			nodes, err := svc.FindPort(ctx, uint16(t.Value))
			if err != nil {
				return nil, err
			}
			return killEach(ctx, svc, cfg, kf, uniquePIDs(nodes)), nil
		}
		outs, err := svc.KillPort(ctx, uint16(t.Value), kf.force)
		if err != nil {
			return nil, err
		}
		if len(outs) == 0 {
			return []model.TerminationOutcome{model.Failed("Nothing is bound to port %d", t.Value)}, nil
		}
		return outs, nil

	case model.TargetName:
		snap, err := svc.Snapshot(ctx, true)
		if err != nil {
			return nil, err
		}
		pids := target.ResolveName(snap.Processes, t.Name, true)
		switch len(pids) {
		case 0:
			return []model.TerminationOutcome{model.Failed("No process holding sockets matches %q", t.Name)}, nil
		case 1:
			return killEach(ctx, svc, cfg, kf, pids), nil
		}
		fmt.Fprint(w, "Multiple matching processes found:\n\n")
		for i, pid := range pids {
			fmt.Fprintf(w, "[%d] PID %d\n", i+1, pid)
		}
		fmt.Fprintln(w, "\nRe-run with:")
		fmt.Fprintln(w, "  portsurgeon kill <pid>")
		return nil, errFailed
	}

	return killEach(ctx, svc, cfg, kf, []int{t.Value}), nil
}

func killEach(ctx context.Context, svc service, cfg Config, kf killFlags, pids []int) []model.TerminationOutcome {
	outs := make([]model.TerminationOutcome, 0, len(pids))
	for _, pid := range pids {
		if !kf.graceful {
			outs = append(outs, svc.Kill(ctx, pid, kf.force))
			continue
		}
		out := svc.KillGraceful(ctx, pid, kf.timeout)
		if !out.Success && out.RequiredElevation && cfg.AutoElevate {
			out = svc.Elevate(ctx, pid, false)
		}
		outs = append(outs, out)
	}
	return outs
}

func uniquePIDs(nodes []model.ProcessNode) []int {
	seen := make(map[int]bool)
	var pids []int
	for _, n := range nodes {
		if !seen[n.PID] {
			seen[n.PID] = true
			pids = append(pids, n.PID)
		}
	}
	return pids
}

// report prints the outcomes and fails the command if any of them failed.
func report(w io.Writer, cfg Config, outs []model.TerminationOutcome) error {
	if cfg.JSON {
		var err error
		if len(outs) == 1 {
			err = printJSON(w, outs[0])
		} else {
			err = printJSON(w, outs)
		}
		if err != nil {
			return err
		}
	} else {
		for _, out := range outs {
			output.RenderOutcome(w, out, cfg.colorEnabled())
		}
	}
	for _, out := range outs {
		if !out.Success {
			return errFailed
		}
	}
	return nil
}
