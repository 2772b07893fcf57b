// Package command provides CLI command definitions for docmirror.
//
// It uses urfave/cli/v2 for command parsing. Commands:
//
//   - dump: export every collection into a new snapshot directory
//   - restore: reconcile a snapshot (latest by default) into the store
//   - snapshots list / prune: inspect and trim the snapshot directory
//   - agent: long-running mode with scheduled dumps and /metrics
//   - version: build information
package command
