// Package command provides CLI command definitions for docmirror.
package command

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/docmirror/docmirror-go/internal/core/service"
	"github.com/docmirror/docmirror-go/internal/infra/confloader"
	"github.com/docmirror/docmirror-go/internal/infra/shutdown"
	"github.com/docmirror/docmirror-go/internal/server/metricsserver"
	"github.com/docmirror/docmirror-go/internal/storage/snapshot"
	"github.com/docmirror/docmirror-go/internal/telemetry/logger"
	"github.com/docmirror/docmirror-go/internal/telemetry/metric"
)

// AgentCommand returns the agent command.
func AgentCommand() *cli.Command {
	return &cli.Command{
		Name:   "agent",
		Usage:  "Run scheduled dumps with a Prometheus /metrics endpoint",
		Action: agentAction,
	}
}

func agentAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log, err := setupLogger(cfg)
	if err != nil {
		return err
	}

	cipher, err := newCipher(cfg)
	if err != nil {
		return err
	}

	metrics := metric.NewRegistry()

	store, err := openStore(cfg, metrics)
	if err != nil {
		return err
	}

	var wopts []snapshot.WriterOption
	if cipher != nil {
		wopts = append(wopts, snapshot.WithCipher(cipher))
	}
	dumper := service.NewDumper(store, snapshot.NewWriter(wopts...), service.WithDumpMetrics(metrics))

	handler := shutdown.NewHandler(30 * time.Second)
	handler.OnShutdown(func(context.Context) error { return store.Close() })

	// Metrics endpoint.
	srv := metricsserver.New(cfg.Agent.MetricsAddress, metrics)
	go func() {
		log.Info("metrics endpoint listening", "address", cfg.Agent.MetricsAddress)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics endpoint failed", "error", err.Error())
			handler.Trigger()
		}
	}()
	handler.OnShutdown(srv.Shutdown)

	// Hot log-level reload when the config file changes.
	if path := c.String("config"); path != "" {
		watcher, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
		if err != nil {
			return err
		}
		watcher.OnChange(func(string) {
			fresh := confloader.DefaultConfig()
			loader := confloader.NewLoader(confloader.WithConfigFile(path))
			if err := loader.Load(&fresh); err != nil {
				log.Warn("config reload failed", "error", err.Error())
				return
			}
			if fresh.Log.Level != logger.GetLevel() {
				logger.SetLevel(fresh.Log.Level)
				log.Info("log level changed", "level", fresh.Log.Level)
			}
		})
		if err := watcher.Watch(path); err != nil {
			return err
		}
		watcher.StartAsync()
		handler.OnShutdown(func(context.Context) error { return watcher.Stop() })
	}

	// Scheduled dumps. The first one runs immediately so a fresh agent
	// leaves a snapshot behind even with a long interval.
	stopDumps := make(chan struct{})
	go func() {
		ticker := time.NewTicker(cfg.Agent.DumpInterval)
		defer ticker.Stop()
		for {
			runScheduledDump(c.Context, dumper, cfg, log)
			select {
			case <-ticker.C:
			case <-stopDumps:
				return
			}
		}
	}()
	handler.OnShutdown(func(context.Context) error {
		close(stopDumps)
		return nil
	})

	log.Info("agent started",
		"dump_interval", cfg.Agent.DumpInterval.String(),
		"snapshot_root", cfg.Snapshot.Root,
	)
	return handler.Wait()
}

func runScheduledDump(ctx context.Context, dumper *service.Dumper, cfg confloader.Config, log logger.Logger) {
	runCtx := logger.WithRunID(ctx, logger.NewRunID())
	if _, err := dumper.Dump(runCtx, cfg.Snapshot.Root); err != nil {
		log.Error("scheduled dump failed", "error", err.Error())
		return
	}
	if cfg.Agent.PruneOnDump {
		removed, err := snapshot.Prune(cfg.Snapshot.Root, cfg.Snapshot.RetentionCount, cfg.Snapshot.RetentionDays)
		if err != nil {
			log.Error("snapshot prune failed", "error", err.Error())
			return
		}
		if len(removed) > 0 {
			log.Info("snapshots pruned", "removed", len(removed))
		}
	}
}
