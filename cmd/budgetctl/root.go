package main

import (
	"context"
	"fmt"
	"os"

	"budget/internal/backend"
	"budget/internal/cli"
	"budget/internal/log"

	"github.com/spf13/cobra"
)

var flagVerbose bool

// app is opened by the root command before any subcommand runs.
var app struct {
	svc     *cli.Services
	backend *backend.BackendResult
	logger  *log.Logger
}

var rootCmd = &cobra.Command{
	Use:           "budgetctl",
	Short:         "Budget dashboard in the terminal",
	Long:          "Inspect the monthly summary, budgets and savings goals stored by the budget server.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runSummary,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return openApp(cmd.Context())
	},
	PersistentPostRun: func(*cobra.Command, []string) {
		closeApp()
	},
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "  Error:", err)
		closeApp()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log to stderr at debug level")
}

// openApp loads configuration and wires the services. Logs go to stderr so
// they never mix with the rendered tables.
func openApp(ctx context.Context) error {
	if app.svc != nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	cli.LoadEnvFile()

	level := "warn"
	if flagVerbose {
		level = "debug"
	}
	logger := log.New(log.Config{Level: log.ParseLevel(level), Output: os.Stderr})

	cfg, err := cli.LoadConfig()
	if err != nil {
		return err
	}
	res, err := cli.OpenStore(ctx, logger, cfg)
	if err != nil {
		return err
	}

	app.logger = logger
	app.backend = res
	app.svc = cli.InitServices(logger, cfg, res.Store)
	return nil
}

func closeApp() {
	if app.svc == nil {
		return
	}
	app.svc.Close()
	if err := app.backend.Cleanup(); err != nil {
		app.logger.Error("Failed to close data backend", log.FieldError, err)
	}
	app.svc = nil
}
