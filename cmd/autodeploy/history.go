package main

import (
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"autodeploy/internal/security"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect remembered target locations",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List targets with their most recent location",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show NAME",
	Short: "Show every remembered location for a target, most recent first",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyForgetCmd = &cobra.Command{
	Use:   "forget NAME",
	Short: "Remove a target from the history",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryForget,
}

func init() {
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyForgetCmd)
}

func openHistoryWorkspace(cmd *cobra.Command) (*workspace, error) {
	level, err := parseLogLevel(logLevel)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	return openWorkspace(cmd.Context(), logger)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	ws, err := openHistoryWorkspace(cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	snapshot := ws.History.Snapshot()
	if len(snapshot) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No targets recorded yet.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TARGET\tLOCATIONS\tMOST RECENT")
	for _, name := range snapshot.Names() {
		locations := snapshot[name]
		fmt.Fprintf(w, "%s\t%d\t%s\n", name, len(locations), locations[0])
	}
	return w.Flush()
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	name := args[0]
	if err := security.ValidateName(name); err != nil {
		return fmt.Errorf("invalid target name: %w", err)
	}

	ws, err := openHistoryWorkspace(cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	locations := ws.History.LocationsFor(name)
	if len(locations) == 0 {
		return fmt.Errorf("no locations recorded for target '%s'", name)
	}
	for i, location := range locations {
		fmt.Fprintf(cmd.OutOrStdout(), "%2d  %s\n", i+1, location)
	}
	return nil
}

func runHistoryForget(cmd *cobra.Command, args []string) error {
	name := args[0]

	ws, err := openHistoryWorkspace(cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	removed, err := ws.History.Forget(cmd.Context(), name)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("no locations recorded for target '%s'", name)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Forgot target '%s'.\n", name)
	return nil
}
