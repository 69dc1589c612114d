package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"autodeploy/internal/deployment"
	"autodeploy/internal/notify"
	"autodeploy/internal/project"
	"autodeploy/internal/view"
)

var (
	deployActive  string
	deployTarget  string
	deployPath    string
	deployInherit bool
	deployYes     bool
)

var deployCmd = &cobra.Command{
	Use:   "deploy [PROJECT...]",
	Short: "Deploy selected projects to a target",
	Long: `Deploy the build output of the selected projects to a target location.

Projects come from the arguments, or from AUTODEPLOY_SELECTED (a shell-quoted
list) and AUTODEPLOY_ACTIVE when no arguments are given. With no selection the
active project is deployed on its own.

In a terminal the target is asked for interactively, suggesting previously
used names and locations. Pass --yes (or run without a terminal) to take the
answers from --target, --path and --inherit instead.`,
	Example: `  autodeploy deploy api --target staging --path out/staging --yes
  AUTODEPLOY_SELECTED="api web" autodeploy deploy`,
	RunE: runDeploy,
}

func init() {
	deployCmd.Flags().StringVar(&deployActive, "active", "", "Project to deploy when nothing is selected")
	deployCmd.Flags().StringVarP(&deployTarget, "target", "t", "", "Target name (default: suggested name)")
	deployCmd.Flags().StringVarP(&deployPath, "path", "p", "", "Target location, absolute or relative to base_path (default: most recent)")
	deployCmd.Flags().BoolVar(&deployInherit, "inherit", false, "Use the workspace default_target")
	deployCmd.Flags().BoolVarP(&deployYes, "yes", "y", false, "Do not prompt; confirm the deployment")
}

func runDeploy(cmd *cobra.Command, args []string) error {
	level, err := parseLogLevel(logLevel)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	ws, err := openWorkspace(ctx, logger)
	if err != nil {
		return err
	}
	defer ws.Close()

	selection, err := deploySelection(args)
	if err != nil {
		return err
	}

	console := notify.NewConsole(os.Stdout)
	orch, err := deployment.NewOrchestrator(deployment.Options{
		Selection: selection,
		Views: view.NewFactory(view.Deps{
			Projects:      ws.Registry,
			History:       ws.History,
			Prompter:      deployPrompter(),
			Copier:        deployment.NewExecutor(),
			BasePath:      ws.Config.BasePath,
			DefaultTarget: ws.Config.DefaultTarget,
			OnCopied: func(result *deployment.CopyResult) {
				console.Success(fmt.Sprintf("Copied %d files from %s to %s",
					result.Files, result.Project, result.Destination))
			},
		}),
		History:     ws.History,
		Notifier:    console,
		Diagnostics: notify.NewLogger(logger),
		Logger:      logger,
		BasePath:    ws.Config.BasePath,
	})
	if err != nil {
		return err
	}

	outcome := orch.Run(ctx)
	switch {
	case outcome.Cancelled():
		fmt.Fprintln(cmd.OutOrStdout(), "Deployment cancelled.")
		return nil
	case outcome.Err != nil:
		return fmt.Errorf("deployment %s: %w", outcome.State, outcome.Err)
	case outcome.HistoryRecorded:
		console.Success(fmt.Sprintf("Target '%s' remembered at %s", outcome.Target.Name, outcome.Location))
	default:
		console.Success(fmt.Sprintf("Deployed to %s", outcome.Target))
	}
	return nil
}

// deploySelection uses the arguments when given, the environment otherwise.
func deploySelection(args []string) (project.StaticSelection, error) {
	if len(args) > 0 {
		return project.StaticSelection{Selected: project.NewSelection(args...), Active: deployActive}, nil
	}
	selection, err := project.NewEnvSelection(nil)
	if err != nil {
		return project.StaticSelection{}, err
	}
	if deployActive != "" {
		selection.Active = deployActive
	}
	return selection, nil
}

func deployPrompter() view.Prompter {
	if deployYes || !notify.IsTerminal(os.Stdin) {
		return &view.Answers{
			Name:    deployTarget,
			Path:    deployPath,
			Inherit: deployInherit,
			Yes:     deployYes,
		}
	}
	return view.HuhPrompter{}
}
