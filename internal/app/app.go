// Package app is the portsurgeon command line.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pranshuparmar/portsurgeon/internal/pipeline"
	"github.com/pranshuparmar/portsurgeon/internal/tui"
	"github.com/pranshuparmar/portsurgeon/pkg/model"
)

const (
	envLogLevel     = "PORTSURGEON_LOG_LEVEL"
	defaultLogLevel = "warn"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func SetVersionBuildCommitString(v, c, d string) {
	if v != "" {
		version = v
	}
	if c != "" {
		commit = c
	}
	if d != "" {
		buildDate = d
	}
}

// Config is filled from flags and environment once per invocation.
type Config struct {
	JSON        bool
	NoColor     bool
	LogLevel    string
	DockerHost  string
	AutoElevate bool
}

func (c Config) colorEnabled() bool {
	if c.NoColor || c.JSON {
		return false
	}
	_, noColor := os.LookupEnv("NO_COLOR")
	return !noColor
}

// service is everything the commands need from the pipeline.
type service interface {
	tui.Service
	FindPort(ctx context.Context, port uint16) ([]model.ProcessNode, error)
	KillPort(ctx context.Context, port uint16, force bool) ([]model.TerminationOutcome, error)
	Close() error
}

// openService is swapped out in tests.
var openService = func(ctx context.Context, cfg Config, hideSelf bool) service {
	return pipeline.Open(ctx, pipeline.Options{
		DockerHost:  cfg.DockerHost,
		AutoElevate: cfg.AutoElevate,
		HideSelf:    hideSelf,
		Log:         log.NewEntry(log.StandardLogger()),
	})
}

// errFailed marks a command whose outcome was already printed; it only sets
// the exit status.
var errFailed = errors.New("operation failed")

func newRootCmd() *cobra.Command {
	cfg := &Config{}
	var (
		all         bool
		port        uint16
		interactive bool
	)

	root := &cobra.Command{
		Use:   "portsurgeon [TARGET]",
		Short: "Find which process or container owns a port, and stop it safely",
		Long: `portsurgeon lists the processes holding network sockets, folds in the
containers published through docker-proxy, and terminates processes through a
safety gate that refuses init, the kernel, critical system services and itself.

TARGET is a pid (1234), a port (:8080) or a process name.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return configureLogging(cfg.LogLevel, cmd.ErrOrStderr())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc := openService(ctx, *cfg, interactive)
			defer svc.Close()

			if interactive {
				return tui.Run(ctx, svc, tui.Options{Version: version, IncludeNonListening: all})
			}
			if port != 0 {
				return showPort(ctx, cmd.OutOrStdout(), svc, *cfg, port)
			}
			if len(args) == 1 {
				return showTarget(ctx, cmd.OutOrStdout(), svc, *cfg, args[0])
			}
			return list(ctx, cmd.OutOrStdout(), svc, *cfg, all)
		},
	}

	pf := root.PersistentFlags()
	pf.BoolVar(&cfg.JSON, "json", false, "output as JSON")
	pf.BoolVar(&cfg.NoColor, "no-color", false, "disable colorized output")
	pf.StringVar(&cfg.LogLevel, "log-level", envOr(envLogLevel, defaultLogLevel), "log level (debug, info, warn, error)")
	pf.StringVar(&cfg.DockerHost, "docker-host", "", "container engine address (defaults to DOCKER_HOST)")

	f := root.Flags()
	f.BoolVarP(&all, "all", "a", false, "include non-listening sockets")
	f.Uint16VarP(&port, "port", "p", 0, "show every owner of a port")
	f.BoolVarP(&interactive, "interactive", "i", false, "interactive mode")

	root.AddCommand(
		newKillCmd(cfg),
		newContainersCmd(cfg),
		newContainerCmd(cfg),
		newVersionCmd(),
	)
	return root
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := newRootCmd().ExecuteContext(ctx)
	if err == nil {
		return
	}
	if !errors.Is(err, errFailed) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	stop()
	os.Exit(1)
}

func configureLogging(level string, w io.Writer) error {
	lvl, err := log.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	log.SetOutput(w)
	log.SetLevel(lvl)
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
	return nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
