package app

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pranshuparmar/portsurgeon/internal/output"
	"github.com/pranshuparmar/portsurgeon/pkg/model"
)

func newContainersCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "containers",
		Short: "List containers, stopped ones included",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			svc := openService(ctx, *cfg, false)
			defer svc.Close()

			list, err := svc.Containers(ctx)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if cfg.JSON {
				return printJSON(w, list)
			}
			if !svc.ContainersAvailable() {
				fmt.Fprintln(w, "Container runtime is not available")
				return nil
			}
			output.RenderContainers(w, list, cfg.colorEnabled())
			return nil
		},
	}
}

func newContainerCmd(cfg *Config) *cobra.Command {
	actions := []string{
		string(model.ContainerStop),
		string(model.ContainerKill),
		string(model.ContainerRemove),
		string(model.ContainerRestart),
	}

	return &cobra.Command{
		Use:       "container ACTION ID",
		Short:     "Stop, kill, remove or restart a container",
		Args:      cobra.ExactArgs(2),
		ValidArgs: actions,
		RunE: func(cmd *cobra.Command, args []string) error {
			action, ok := model.ParseContainerAction(args[0])
			if !ok {
				return fmt.Errorf("unknown action %q (want one of %s)", args[0], strings.Join(actions, ", "))
			}

			ctx := cmd.Context()
			svc := openService(ctx, *cfg, false)
			defer svc.Close()

			out := svc.ContainerAction(ctx, args[1], action)
			return report(cmd.OutOrStdout(), *cfg, []model.TerminationOutcome{out})
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "portsurgeon %s (commit %s, built %s)\n", version, commit, buildDate)
		},
	}
}
