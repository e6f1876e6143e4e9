package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"wordsmith/internal/api"
	"wordsmith/internal/config"
	"wordsmith/internal/identity"
	"wordsmith/internal/logging"
)

type app struct {
	cfgPath  string
	baseURL  string
	logLevel string

	cfg    config.Config
	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	a := &app{in: in, out: out, errOut: errOut}

	root := &cobra.Command{
		Use:   "wordsmith",
		Short: "Rewrite text with one or more transformations",
		Long: `wordsmith sends text through an ordered chain of transformations
(grammar, tone, length, format) on the WordSmith service.

Tone options (formal, friendly) and length options (shorten, expand) are
mutually exclusive within their group; the last one picked wins.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().StringVar(&a.cfgPath, "config", config.DefaultPath(), "Config file")
	root.PersistentFlags().StringVar(&a.baseURL, "base-url", "", "Service base URL (overrides api.base_url)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "debug|info|warn|error (overrides log.level)")

	root.AddCommand(
		a.transformCmd(),
		a.optionsCmd(),
		a.historyCmd(),
		a.healthCmd(),
		a.uiCmd(),
		a.serveCmd(),
		a.probeCmd(),
	)
	return root
}

func (a *app) setup() error {
	cfg, err := config.LoadFrom(a.cfgPath)
	if err != nil {
		return err
	}
	if a.baseURL != "" {
		cfg.API.BaseURL = a.baseURL
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	a.cfg = cfg
	if !logging.InitFromEnv() {
		logging.Configure(logging.Options{Level: cfg.Log.Level, JSON: cfg.Log.JSON, Output: a.errOut})
	}
	return nil
}

// client builds an API client scoped to the persisted anonymous user.
func (a *app) client() (*api.Client, error) {
	uid, err := identity.Load(a.cfg.Identity.Path)
	if err != nil {
		return nil, err
	}
	return api.New(a.cfg.API.BaseURL, api.WithTimeout(a.cfg.API.Timeout), api.WithUserID(uid)), nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdin, os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
