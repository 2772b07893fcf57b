// Package command provides CLI command definitions for docmirror.
package command

import (
	"time"

	"github.com/urfave/cli/v2"

	"github.com/docmirror/docmirror-go/internal/storage/snapshot"
)

// snapshotRow is the list representation of one snapshot.
type snapshotRow struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	Path      string    `json:"path"`
}

// SnapshotsCommand returns the snapshots subcommand group.
func SnapshotsCommand() *cli.Command {
	return &cli.Command{
		Name:  "snapshots",
		Usage: "Inspect and trim the snapshot directory",
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List snapshots, oldest first",
				Action: snapshotsList,
			},
			{
				Name:  "prune",
				Usage: "Remove snapshots outside the retention settings",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "keep",
						Usage: "Number of newest snapshots to keep (overrides snapshot.retention_count)",
					},
					&cli.IntFlag{
						Name:  "days",
						Usage: "Remove snapshots older than this many days (overrides snapshot.retention_days)",
					},
				},
				Action: snapshotsPrune,
			},
		},
	}
}

func snapshotsList(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if _, err := setupLogger(cfg); err != nil {
		return err
	}

	infos, err := snapshot.List(cfg.Snapshot.Root)
	if err != nil {
		return err
	}

	rows := make([]snapshotRow, len(infos))
	for i, info := range infos {
		rows[i] = snapshotRow{Name: info.Name, CreatedAt: info.CreatedAt, Path: info.Path}
	}

	return formatter(c).Format(c.App.Writer, rows)
}

func snapshotsPrune(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if _, err := setupLogger(cfg); err != nil {
		return err
	}

	keep := cfg.Snapshot.RetentionCount
	if c.IsSet("keep") {
		keep = c.Int("keep")
	}
	days := cfg.Snapshot.RetentionDays
	if c.IsSet("days") {
		days = c.Int("days")
	}

	removed, err := snapshot.Prune(cfg.Snapshot.Root, keep, days)
	if err != nil {
		return err
	}

	rows := make([]snapshotRow, len(removed))
	for i, info := range removed {
		rows[i] = snapshotRow{Name: info.Name, CreatedAt: info.CreatedAt, Path: info.Path}
	}

	return formatter(c).Format(c.App.Writer, rows)
}
