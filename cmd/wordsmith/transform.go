package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"wordsmith/internal/api"
	"wordsmith/internal/catalog"
	"wordsmith/internal/pipeline"
	"wordsmith/internal/selection"
	"wordsmith/internal/transform"
)

type transformFlags struct {
	options      []string
	offline      bool
	instructions string
	verbose      bool
}

func (a *app) transformCmd() *cobra.Command {
	var f transformFlags
	cmd := &cobra.Command{
		Use:   "transform [text]",
		Short: "Apply transformations to text",
		Long: `Applies the selected options in order, feeding each step's output into
the next. Text comes from the arguments, or stdin when none are given or
the only argument is "-".`,
		Example: `  wordsmith transform -o grammar -o formal "hey can u send the report"
  pbpaste | wordsmith transform -o shorten -o bullet`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTransform(cmd, args, f)
		},
	}
	cmd.Flags().StringArrayVarP(&f.options, "option", "o", nil, "Option id to apply (repeatable, order matters)")
	cmd.Flags().BoolVar(&f.offline, "offline", false, "Rewrite locally without calling the service")
	cmd.Flags().StringVar(&f.instructions, "instructions", "", "Additional instructions sent with every step")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "Print each step to stderr")
	return cmd
}

func (a *app) runTransform(cmd *cobra.Command, args []string, f transformFlags) error {
	text, err := readText(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}
	// Flags are toggled in order so tone and length conflicts resolve the
	// same way they do in the UI.
	sel, err := selection.Of(f.options...)
	if err != nil {
		return err
	}
	if sel.Empty() {
		return errors.New("no transformations selected (use --option)")
	}

	remote, err := a.remote(text, f)
	if err != nil {
		return err
	}
	runner := pipeline.NewRunner(remote)
	if f.verbose {
		runner.SetObserver(stepPrinter{w: cmd.ErrOrStderr()})
	}
	res, err := runner.Run(cmd.Context(), text, sel.IDs())
	if err != nil {
		return err
	}
	if !res.Succeeded() {
		return res.Err()
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.FinalText)
	return nil
}

func (a *app) remote(original string, f transformFlags) (transform.Remote, error) {
	if f.offline {
		return transform.NewOffline(), nil
	}
	c, err := a.client()
	if err != nil {
		return nil, err
	}
	r := transform.NewHTTPRemote(c).ForInput(original)
	if f.instructions != "" {
		r.Instructions = &f.instructions
	}
	return r, nil
}

func readText(in io.Reader, args []string) (string, error) {
	if len(args) > 0 && !(len(args) == 1 && args[0] == "-") {
		return strings.Join(args, " "), nil
	}
	raw, err := io.ReadAll(io.LimitReader(in, int64(api.MaxTextLength*4+1)))
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return strings.TrimRight(string(raw), "\r\n"), nil
}

type stepPrinter struct{ w io.Writer }

func (p stepPrinter) BeforeStep(step int, optionID string) {
	fmt.Fprintf(p.w, "[%d] %s...\n", step+1, optionID)
}

func (p stepPrinter) AfterStep(step int, optionID string, out transform.Output, err error) {
	if err != nil {
		fmt.Fprintf(p.w, "[%d] %s failed: %v\n", step+1, optionID, err)
		return
	}
	fmt.Fprintf(p.w, "[%d] %s done (%s)\n", step+1, optionID, out.ID)
}

func (a *app) optionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "options",
		Short: "List the available transformations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tLABEL\tGROUP\tSERVICE TYPE")
			for _, o := range catalog.All() {
				fmt.Fprintf(tw, "%s\t%s %s\t%s\t%s\n", o.ID, o.Icon, o.Label, o.Category, o.Wire)
			}
			return tw.Flush()
		},
	}
}
