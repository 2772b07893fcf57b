package command

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/docmirror/docmirror-go/internal/storage/snapshot"
)

// runApp executes the CLI with a memory store and a temp snapshot root,
// returning captured stdout.
func runApp(t *testing.T, root string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DOCMIRROR_STORE_ENGINE", "memory")
	t.Setenv("DOCMIRROR_SNAPSHOT_ROOT", root)

	app := App()
	var buf bytes.Buffer
	app.Writer = &buf

	err := app.RunContext(context.Background(), append([]string{"docmirror"}, args...))
	return buf.String(), err
}

func TestApp_CommandsRegistered(t *testing.T) {
	app := App()
	want := []string{"dump", "restore", "snapshots", "agent", "version"}
	for _, name := range want {
		if app.Command(name) == nil {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestDumpCommand_CreatesSnapshot(t *testing.T) {
	root := t.TempDir()

	out, err := runApp(t, root, "--output", "json", "dump")
	if err != nil {
		t.Fatalf("dump failed: %v", err)
	}

	var result struct {
		Path string `json:"path"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("dump output is not JSON: %v\n%s", err, out)
	}
	if !snapshot.IsSnapshotName(filepath.Base(result.Path)) {
		t.Errorf("dump path %q does not match the snapshot pattern", result.Path)
	}
	if _, err := os.Stat(result.Path); err != nil {
		t.Errorf("snapshot directory missing: %v", err)
	}
}

func TestSnapshotsListCommand(t *testing.T) {
	root := t.TempDir()

	if _, err := runApp(t, root, "dump"); err != nil {
		t.Fatalf("dump failed: %v", err)
	}

	out, err := runApp(t, root, "--output", "json", "snapshots", "list")
	if err != nil {
		t.Fatalf("snapshots list failed: %v", err)
	}

	var rows []snapshotRow
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("list output is not JSON: %v\n%s", err, out)
	}
	if len(rows) != 1 {
		t.Fatalf("listed %d snapshots, want 1", len(rows))
	}
	if !snapshot.IsSnapshotName(rows[0].Name) {
		t.Errorf("listed name %q does not match the snapshot pattern", rows[0].Name)
	}
}

func TestRestoreCommand_NoSnapshots(t *testing.T) {
	out, err := runApp(t, t.TempDir(), "restore", "--yes")
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if !strings.Contains(out, "no snapshots found") {
		t.Errorf("output = %q, want informational no-snapshots message", out)
	}
}

func TestRestoreCommand_AppliesSnapshot(t *testing.T) {
	root := t.TempDir()

	if _, err := runApp(t, root, "dump"); err != nil {
		t.Fatalf("dump failed: %v", err)
	}

	out, err := runApp(t, root, "--output", "json", "restore", "--yes")
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}

	var summary struct {
		Snapshot string `json:"Snapshot"`
	}
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("restore output is not JSON: %v\n%s", err, out)
	}
	if summary.Snapshot == "" {
		t.Errorf("summary missing snapshot path:\n%s", out)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := runApp(t, t.TempDir(), "--output", "json", "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(out, `"version"`) {
		t.Errorf("version output = %q", out)
	}
}

func TestLoadConfig_InvalidEngine(t *testing.T) {
	t.Setenv("DOCMIRROR_STORE_ENGINE", "sqlite")

	app := App()
	app.Writer = &bytes.Buffer{}
	err := app.RunContext(context.Background(), []string{"docmirror", "snapshots", "list"})
	if err == nil {
		t.Fatal("expected validation error for unknown engine")
	}
	if !strings.Contains(err.Error(), "store.engine") {
		t.Errorf("error = %v, want store.engine validation failure", err)
	}
}

func TestLoadConfig_FileAndFlagOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "store:\n  engine: memory\nsnapshot:\n  root: " + dir + "\nlog:\n  level: debug\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	app := App()
	var buf bytes.Buffer
	app.Writer = &buf
	err := app.RunContext(context.Background(), []string{
		"docmirror", "--config", path, "--output", "json", "snapshots", "list",
	})
	if err != nil {
		t.Fatalf("snapshots list with config file failed: %v", err)
	}
}

func TestLoadConfig_BackupRootFlagWins(t *testing.T) {
	configuredRoot := t.TempDir()
	flagRoot := t.TempDir()

	if _, err := runApp(t, configuredRoot, "--backup-root", flagRoot, "dump"); err != nil {
		t.Fatalf("dump failed: %v", err)
	}

	flagEntries, err := os.ReadDir(flagRoot)
	if err != nil {
		t.Fatalf("ReadDir(%s): %v", flagRoot, err)
	}
	if len(flagEntries) != 1 {
		t.Fatalf("flag root has %d entries, want the snapshot directory", len(flagEntries))
	}
	if !snapshot.IsSnapshotName(flagEntries[0].Name()) {
		t.Errorf("flag root entry %q does not match the snapshot pattern", flagEntries[0].Name())
	}

	configuredEntries, err := os.ReadDir(configuredRoot)
	if err != nil {
		t.Fatalf("ReadDir(%s): %v", configuredRoot, err)
	}
	if len(configuredEntries) != 0 {
		t.Errorf("configured root has %d entries, want 0 when the flag overrides it", len(configuredEntries))
	}
}
