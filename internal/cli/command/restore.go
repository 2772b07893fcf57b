// Package command provides CLI command definitions for docmirror.
package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/docmirror/docmirror-go/internal/core/service"
	"github.com/docmirror/docmirror-go/internal/storage/snapshot"
	"github.com/docmirror/docmirror-go/internal/telemetry/logger"
)

// RestoreCommand returns the restore command.
func RestoreCommand() *cli.Command {
	return &cli.Command{
		Name:      "restore",
		Usage:     "Reconcile a snapshot into the live store (latest when no path is given)",
		ArgsUsage: "[SNAPSHOT_PATH]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "Skip the confirmation prompt",
			},
			&cli.BoolFlag{
				Name:  "prompt-passphrase",
				Usage: "Prompt for the snapshot encryption passphrase",
			},
			&cli.Float64Flag{
				Name:  "write-rate",
				Usage: "Limit applied mutations per second (overrides restore.write_rate)",
			},
		},
		Action: restoreAction,
	}
}

func restoreAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if _, err := setupLogger(cfg); err != nil {
		return err
	}

	if c.Bool("prompt-passphrase") {
		pass, err := readPassphrase()
		if err != nil {
			return err
		}
		cfg.Snapshot.Passphrase = pass
		cfg.Snapshot.Key = ""
	}
	if c.IsSet("write-rate") {
		cfg.Restore.WriteRate = c.Float64("write-rate")
	}

	// Deletes and field replacements are destructive on the live data.
	if !c.Bool("yes") && !confirm("Reconcile the live store against the snapshot?") {
		return fmt.Errorf("restore aborted")
	}

	cipher, err := newCipher(cfg)
	if err != nil {
		return err
	}

	store, err := openStore(cfg, nil)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := []service.ReconcilerOption{}
	if limiter := writeLimiter(cfg); limiter != nil {
		opts = append(opts, service.WithWriteLimit(limiter))
	}
	if progress := progressReporter(); progress != nil {
		opts = append(opts, service.WithProgress(progress))
	}
	reconciler := service.NewReconciler(store, snapshot.NewReader(cipher), opts...)

	ctx := logger.WithRunID(c.Context, logger.NewRunID())

	var summary service.Summary
	if path := c.Args().First(); path != "" {
		summary, err = reconciler.Reconcile(ctx, path)
	} else {
		var found bool
		summary, found, err = reconciler.RestoreLatest(ctx, cfg.Snapshot.Root)
		if err == nil && !found {
			fmt.Fprintln(c.App.Writer, "no snapshots found; nothing to restore")
			return nil
		}
	}
	if err != nil {
		return err
	}

	return formatter(c).Format(c.App.Writer, summary)
}
