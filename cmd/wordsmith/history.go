package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"wordsmith/internal/history"
)

func (a *app) historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List, save and delete past transformations",
	}

	var saved bool
	list := &cobra.Command{
		Use:   "list",
		Short: "Show recent transformations, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			filter := history.All
			if saved {
				filter = history.SavedOnly
			}
			page, err := c.History(cmd.Context(), history.Query(filter))
			if err != nil {
				return err
			}
			if len(page.Items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No history yet.")
				return nil
			}
			now := time.Now()
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTYPE\tWHEN\tSAVED\tTEXT")
			for _, it := range page.Items {
				mark := ""
				if it.IsSaved {
					mark = "*"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", it.ID, history.TypeLabel(it.TransformationType),
					history.Ago(it.CreatedAt.Time, now), mark, oneLine(it.TransformedText, 60))
			}
			return tw.Flush()
		},
	}
	list.Flags().BoolVar(&saved, "saved", false, "Only saved items")

	save := &cobra.Command{
		Use:   "save <id>",
		Short: "Mark a history item as saved",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			if err := c.SaveHistory(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", args[0])
			return nil
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete history items",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			n, err := c.DeleteHistory(cmd.Context(), args)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d item(s)\n", n)
			return nil
		},
	}

	cmd.AddCommand(list, save, del)
	return cmd
}

func oneLine(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
