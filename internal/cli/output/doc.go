// Package output provides output formatting for the docmirror CLI.
//
// This package renders command results for humans and scripts:
//
//   - table.go: tabwriter-based ASCII tables with reflection support
//   - json.go: indented JSON for scripting
//   - progress.go: per-collection progress bars for restore runs
package output
