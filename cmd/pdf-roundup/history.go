package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pdf-roundup/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect past runs",
	Long: `History reads the run database written by "pdf-roundup run". Each run keeps
its counts, produced files, and the outcome of every part number.`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs, newest first",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one run and its per-part outcomes (a unique id prefix is enough)",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

func init() {
	historyCmd.PersistentFlags().String("db", "", "history database (default ~/.pdf_roundup/history.db)")
	historyListCmd.Flags().Int("limit", 20, "maximum number of runs to list")
	historyShowCmd.Flags().Bool("yaml", false, "print the run as YAML")

	historyCmd.AddCommand(historyListCmd, historyShowCmd)
	rootCmd.AddCommand(historyCmd)
}

func openHistory(cmd *cobra.Command) (*history.Store, error) {
	path, _ := cmd.Flags().GetString("db")
	if path == "" {
		var err error
		if path, err = history.DefaultPath(); err != nil {
			return nil, err
		}
	}
	return history.Open(path)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	store, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.List(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSTARTED\tPOLICY\tTOTAL\tOK\tFAILED\tINPUT")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			shortID(r.RunID), r.Started.Local().Format(time.DateTime), r.Policy,
			r.Total, r.Downloaded, r.Failed, r.InputPath)
	}
	return tw.Flush()
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	asYAML, _ := cmd.Flags().GetBool("yaml")

	store, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := store.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asYAML {
		return history.ExportYAML(out, run)
	}

	fmt.Fprintf(out, "Run:      %s\n", run.RunID)
	fmt.Fprintf(out, "Started:  %s\n", run.Started.Local().Format(time.DateTime))
	fmt.Fprintf(out, "Input:    %s\n", run.InputPath)
	fmt.Fprintf(out, "Output:   %s\n", run.OutputDir)
	fmt.Fprintf(out, "Policy:   %s\n", run.Policy)
	fmt.Fprintf(out, "Result:   %d total, %d downloaded, %d failed\n", run.Total, run.Downloaded, run.Failed)
	for _, p := range append(run.Archives, run.Moved...) {
		fmt.Fprintf(out, "  %s\n", p)
	}
	fmt.Fprintln(out)
	for _, it := range run.Items {
		detail := it.URL
		if it.Error != "" {
			detail = it.Error
		}
		fmt.Fprintf(out, "%4d  %-8s %s  %s\n", it.Seq, it.Status, it.Identifier, detail)
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
