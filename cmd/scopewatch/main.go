package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/scopewatch/scopewatch/pkg/alerting"
	"github.com/scopewatch/scopewatch/pkg/compliance"
	"github.com/scopewatch/scopewatch/pkg/config"
	"github.com/scopewatch/scopewatch/pkg/monitor"
	"github.com/scopewatch/scopewatch/pkg/render"
	"github.com/scopewatch/scopewatch/pkg/telemetry"
)

func main() {
	root := &cobra.Command{
		Use:   "scopewatch",
		Short: "Score asset risk and compliance posture from collected facts",
	}

	root.AddCommand(newMonitorCmd())
	root.AddCommand(newScoreCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newMonitorCmd() *cobra.Command {
	var (
		configPath string
		factsPath  string
	)

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Run the monitoring loop until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			sink, err := cfg.BuildSink()
			if err != nil {
				return err
			}
			defer sink.Close()

			sched, _, _, err := buildScheduler(cfg, factsPath, sink, alerting.LogNotifier{})
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			if err := sched.Start(); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Monitoring every %s (interrupt to stop)...\n", cfg.Interval())

			<-ctx.Done()

			stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer stopCancel()
			if err := sched.Stop(stopCtx); err != nil {
				return fmt.Errorf("stop scheduler: %w", err)
			}
			fmt.Fprintln(os.Stderr, "Stopped.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "scopewatch.yaml", "config file path")
	cmd.Flags().StringVarP(&factsPath, "facts", "f", "facts.json", "facts snapshot file")

	return cmd
}

func newScoreCmd() *cobra.Command {
	var (
		configPath string
		factsPath  string
		format     string
	)

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Run one scoring pass over a facts snapshot and print the posture",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			sink := &telemetry.CaptureSink{}
			notifier := &alerting.CaptureNotifier{}
			sched, source, store, err := buildScheduler(cfg, factsPath, sink, notifier)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			if err := sched.Tick(ctx); err != nil {
				return err
			}

			report, err := monitor.BuildReport(ctx, source, store, notifier.Alerts())
			if err != nil {
				return err
			}
			return render.New(render.Format(format)).Render(os.Stdout, report)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "scopewatch.yaml", "config file path")
	cmd.Flags().StringVarP(&factsPath, "facts", "f", "facts.json", "facts snapshot file")
	cmd.Flags().StringVarP(&format, "output", "o", "table", "output format: table or json")

	return cmd
}

// buildScheduler wires the engines from one config. The returned store
// is always the in-memory one; deployments with a real asset repository
// swap it behind the AssetStore seam.
func buildScheduler(cfg *config.Config, factsPath string, sink telemetry.Sink, notifier alerting.Notifier) (*monitor.Scheduler, monitor.FactSource, *monitor.MemoryStore, error) {
	registry, err := compliance.LoadRegistry(cfg.FrameworksDir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("frameworks dir %s: %v (continuing with empty registry)", cfg.FrameworksDir, err)
		}
		registry = compliance.NewRegistry()
	}

	buffer := telemetry.NewBuffer(sink, cfg.BufferConfig())
	alerts := alerting.NewEngine(notifier, buffer)
	for _, rule := range cfg.Rules {
		if err := alerts.Register(rule); err != nil {
			return nil, nil, nil, fmt.Errorf("register rule %q: %w", rule.Name, err)
		}
	}

	source := monitor.NewFileSource(factsPath)
	store := monitor.NewMemoryStore()
	sched := monitor.NewScheduler(
		monitor.Config{
			Interval:  cfg.Interval(),
			Framework: cfg.Framework,
			Level:     compliance.Level(cfg.Level),
		},
		source,
		store,
		cfg.Scoring,
		compliance.NewAggregator(registry),
		buffer,
		alerts,
	)
	return sched, source, store, nil
}
