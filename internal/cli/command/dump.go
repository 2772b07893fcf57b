// Package command provides CLI command definitions for docmirror.
package command

import (
	"github.com/urfave/cli/v2"

	"github.com/docmirror/docmirror-go/internal/core/service"
	"github.com/docmirror/docmirror-go/internal/storage/snapshot"
	"github.com/docmirror/docmirror-go/internal/telemetry/logger"
)

// DumpCommand returns the dump command.
func DumpCommand() *cli.Command {
	return &cli.Command{
		Name:  "dump",
		Usage: "Export every collection into a new snapshot directory",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "prompt-passphrase",
				Usage: "Prompt for the snapshot encryption passphrase",
			},
			&cli.BoolFlag{
				Name:  "prune",
				Usage: "Prune old snapshots after the dump, per retention settings",
			},
		},
		Action: dumpAction,
	}
}

func dumpAction(c *cli.Context) error {
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

	cipher, err := newCipher(cfg)
	if err != nil {
		return err
	}

	store, err := openStore(cfg, nil)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := logger.WithRunID(c.Context, logger.NewRunID())

	var opts []snapshot.WriterOption
	if cipher != nil {
		opts = append(opts, snapshot.WithCipher(cipher))
	}
	dumper := service.NewDumper(store, snapshot.NewWriter(opts...))

	path, err := dumper.Dump(ctx, cfg.Snapshot.Root)
	if err != nil {
		return err
	}

	if c.Bool("prune") {
		removed, err := snapshot.Prune(cfg.Snapshot.Root, cfg.Snapshot.RetentionCount, cfg.Snapshot.RetentionDays)
		if err != nil {
			return err
		}
		logger.L(ctx).Info("snapshots pruned", "removed", len(removed))
	}

	return formatter(c).Format(c.App.Writer, struct {
		Path string `json:"path"`
	}{Path: path})
}
