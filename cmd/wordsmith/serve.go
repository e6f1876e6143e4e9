package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"wordsmith/internal/engine"
	"wordsmith/internal/logging"
	"wordsmith/internal/monitor"
	"wordsmith/internal/pipeline"
	"wordsmith/internal/transform"
	"wordsmith/internal/tui"
)

func (a *app) uiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ui",
		Short: "Open the interactive terminal client",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			restore, err := a.logToFile()
			if err != nil {
				return err
			}
			defer restore()

			c, err := a.client()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			mon := monitor.New(c, a.cfg.Monitor.Interval)
			status := make(chan monitor.Status, 4)
			mon.Subscribe(func(s monitor.Status) {
				select {
				case status <- s:
				default:
				}
			})
			go func() { _ = mon.Run(ctx) }()

			remote := transform.NewHTTPRemote(c)
			m := tui.New(tui.Deps{
				Run: func(ctx context.Context, text string, ids []string) (pipeline.Result, error) {
					return pipeline.NewRunner(remote.ForInput(text)).Run(ctx, text, ids)
				},
				History: c,
				Status:  status,
				Recheck: mon.Recheck,
			})
			_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
			return err
		},
	}
}

// uiLogPath is where the ui command logs while it owns the terminal.
func (a *app) uiLogPath() string {
	return filepath.Join(filepath.Dir(a.cfg.Identity.Path), "ui.log")
}

// logToFile points the process logger at uiLogPath. The returned func
// restores logging to errOut.
func (a *app) logToFile() (func(), error) {
	path := a.uiLogPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open ui log: %w", err)
	}
	logging.Configure(logging.Options{Level: a.cfg.Log.Level, JSON: a.cfg.Log.JSON, Output: f})
	return func() {
		logging.Configure(logging.Options{Level: a.cfg.Log.Level, JSON: a.cfg.Log.JSON, Output: a.errOut})
		_ = f.Close()
	}, nil
}

func (a *app) serveCmd() *cobra.Command {
	var pipelineFile string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the batch engine: Kafka-fed pipeline, health and metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("pipeline") {
				a.cfg.Pipeline.File = pipelineFile
			} else if _, err := os.Stat(a.cfg.Pipeline.File); errors.Is(err, fs.ErrNotExist) {
				logging.L().Warn("no pipeline file, running health and metrics only", "path", a.cfg.Pipeline.File)
				a.cfg.Pipeline.File = ""
			}
			mon := monitor.New(c, a.cfg.Monitor.Interval)
			eng, err := engine.Bootstrap(engine.Config{
				GRPCPort:    a.cfg.GRPC.Port,
				MetricsPort: a.cfg.Metrics.Port,
				PipelineYml: a.cfg.Pipeline.File,
			}, c, mon)
			if err != nil {
				return err
			}
			logging.L().Info("engine started", "grpc", a.cfg.GRPC.Port, "metrics", a.cfg.Metrics.Port, "pipeline", a.cfg.Pipeline.File)
			return eng.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&pipelineFile, "pipeline", "p", "", "Pipeline file (empty runs health and metrics only)")
	return cmd
}
