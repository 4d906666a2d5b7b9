package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"budget-auditor/internal/engine"
	"budget-auditor/internal/sink"
	"budget-auditor/internal/source"

	apperrors "budget-auditor/internal/errors"
)

func newRunCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the audit pipeline",
		Long: `Start the audit pipeline: read budget events from the configured
source, maintain per-(state, sector) and per-contractor aggregates, and
publish snapshots and alerts to the configured sinks.

Runs until interrupted; SIGINT/SIGTERM triggers a graceful drain.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(app)
		},
	}
}

func runPipeline(app *App) error {
	if err := app.Config.Validate(); err != nil {
		return err
	}

	snk, err := buildSink(app)
	if err != nil {
		return err
	}

	engineCfg := engine.DefaultConfig()
	engineCfg.SpikeMultiplier = app.Config.Engine.SpikeMultiplier
	engineCfg.ContractorCeiling = app.Config.Engine.ContractorCeilingCrores
	engineCfg.SpikeBaseline = engine.SpikeBaseline(app.Config.Engine.SpikeBaseline)
	engineCfg.IntakeBufferSize = app.Config.Stream.IntakeBufferSize
	engineCfg.PublishBufferSize = app.Config.Stream.PublishBufferSize
	engineCfg.PublishRetry.MaxAttempts = app.Config.Stream.PublishMaxAttempts
	engineCfg.PublishRetryInterval = app.Config.Stream.PublishRetryInterval

	pipeline, err := engine.New(engineCfg, snk, app.Logger)
	if err != nil {
		return err
	}

	src, err := buildSource(app)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := pipeline.Start(ctx); err != nil {
		return err
	}

	app.Logger.Info().
		Str("source", src.Name()).
		Str("sink", snk.Name()).
		Float64("spike_multiplier", engineCfg.SpikeMultiplier).
		Float64("contractor_ceiling", engineCfg.ContractorCeiling).
		Msg("Audit pipeline started")

	srcErr := make(chan error, 1)
	go func() {
		srcErr <- src.Run(ctx, pipeline.Submit)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		app.Logger.Info().Str("signal", sig.String()).Msg("Shutting down")
	case err := <-srcErr:
		if err != nil && !apperrors.Is(err, context.Canceled) && !apperrors.Is(err, apperrors.ErrPipelineStopped) {
			app.Logger.Error().Err(err).Msg("Event source failed")
		}
	}

	cancel()
	pipeline.Stop()

	metrics := pipeline.Metrics()
	fmt.Printf("events received:   %d\n", metrics.EventsReceived)
	fmt.Printf("events rejected:   %d\n", metrics.EventsRejected)
	fmt.Printf("events processed:  %d\n", metrics.EventsProcessed)
	fmt.Printf("spike alerts:      %d\n", metrics.SpikeAlerts)
	fmt.Printf("threshold alerts:  %d\n", metrics.ThresholdAlerts)
	fmt.Printf("records published: %d\n", metrics.RecordsPublished)

	return nil
}

func buildSource(app *App) (source.Source, error) {
	switch app.Config.Source.Mode {
	case "simulate":
		simCfg := source.DefaultSimulatorConfig()
		simCfg.Interval = app.Config.Source.SimulateInterval
		simCfg.AnomalyProbability = app.Config.Source.AnomalyProbability
		return source.NewSimulator(simCfg), nil
	default:
		return source.NewFileSource(app.Config.Source.Path, app.Config.Source.PollInterval), nil
	}
}

func buildSink(app *App) (sink.Sink, error) {
	var sinks []sink.Sink

	if app.Config.Sink.JSONL.Enabled {
		s, err := sink.NewJSONLSink(app.Config.Sink.JSONL.Dir)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, s)
	}
	if app.Config.Sink.SQLite.Enabled {
		s, err := sink.NewSQLiteSink(app.Config.Sink.SQLite.Path)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, s)
	}
	if app.Config.Sink.Webhook.Enabled {
		sinks = append(sinks, sink.NewWebhookSink(app.Config.Sink.Webhook.URL))
	}

	switch len(sinks) {
	case 0:
		return sink.NoopSink{}, nil
	case 1:
		return sinks[0], nil
	default:
		return sink.NewMultiSink(sinks...), nil
	}
}
