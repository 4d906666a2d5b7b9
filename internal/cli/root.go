// Package cli provides the command-line interface for the budget auditor.
package cli

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"budget-auditor/internal/config"
	"budget-auditor/internal/logging"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2026-08-24"
)

// App holds the application dependencies.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	rootCmd := &cobra.Command{
		Use:   "auditor",
		Short: "Real-time government budget audit engine",
		Long: `Budget Auditor ingests a continuous stream of government budget
disbursement events and surfaces two classes of anomaly in real time:
sector spending spikes relative to the rolling sector average, and
contractors whose cumulative lifetime spend crosses the compliance ceiling.

Aggregates are maintained incrementally; history is never re-scanned.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/budget-auditor)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newRunCmd(app))
	rootCmd.AddCommand(newSimulateCmd(app))

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Budget Auditor v%s\n", Version)
			fmt.Printf("Build date: %s\n", BuildDate)
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := json.MarshalIndent(app.Config, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(config.DefaultConfigDir())
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Config.Validate(); err != nil {
				return err
			}
			fmt.Println("configuration is valid")
			return nil
		},
	})

	return cmd
}
