package cli

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"budget-auditor/internal/source"
)

func newSimulateCmd(app *App) *cobra.Command {
	var out string
	var seed int64

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Generate a synthetic budget event stream",
		Long: `Append synthetic budget disbursement events to a JSONL file that the
run command can tail in file mode. A small fraction of events are
deliberate anomalies so both alert paths fire.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				out = app.Config.Source.Path
			}
			if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
				return err
			}

			f, err := os.OpenFile(out, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err != nil {
				return err
			}
			defer f.Close()

			simCfg := source.DefaultSimulatorConfig()
			simCfg.Interval = app.Config.Source.SimulateInterval
			simCfg.AnomalyProbability = app.Config.Source.AnomalyProbability
			simCfg.Seed = seed
			sim := source.NewSimulator(simCfg)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-quit
				cancel()
			}()

			app.Logger.Info().Str("path", out).Msg("Simulator started")

			err = sim.Run(ctx, func(line []byte) error {
				_, werr := f.Write(append(line, '\n'))
				return werr
			})
			if err == context.Canceled {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "output JSONL file (default: configured source path)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 = time-based)")

	return cmd
}
