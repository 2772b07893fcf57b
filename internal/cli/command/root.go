// Package command provides CLI command definitions for docmirror.
package command

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"
	"golang.org/x/term"
	"golang.org/x/time/rate"

	"github.com/docmirror/docmirror-go/internal/cli/output"
	"github.com/docmirror/docmirror-go/internal/core/service"
	"github.com/docmirror/docmirror-go/internal/infra/buildinfo"
	"github.com/docmirror/docmirror-go/internal/infra/confloader"
	"github.com/docmirror/docmirror-go/internal/storage"
	"github.com/docmirror/docmirror-go/internal/storage/badgerdoc"
	"github.com/docmirror/docmirror-go/internal/storage/memory"
	"github.com/docmirror/docmirror-go/internal/storage/snapshot"
	"github.com/docmirror/docmirror-go/internal/telemetry/logger"
	"github.com/docmirror/docmirror-go/internal/telemetry/metric"
	"github.com/docmirror/docmirror-go/pkg/crypto/adaptive"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "docmirror",
		Usage:   "Point-in-time export and incremental restore for document collections",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			DumpCommand(),
			RestoreCommand(),
			SnapshotsCommand(),
			AgentCommand(),
			VersionCommand(),
		},
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to the YAML configuration file",
			EnvVars: []string{"DOCMIRROR_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level: debug, info, warn, error",
			EnvVars: []string{"DOCMIRROR_LOG_LEVEL"},
		},
		&cli.StringFlag{
			Name:  "log-format",
			Usage: "Log format: json, text",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json",
			Value:   "table",
		},
		&cli.StringFlag{
			Name:    "backup-root",
			Aliases: []string{"b"},
			Usage:   "Snapshot directory root (overrides snapshot.root)",
		},
		&cli.StringFlag{
			Name:  "store-path",
			Usage: "Document store data directory (overrides store.path)",
		},
	}
}

// loadConfig assembles the effective configuration: defaults, then the
// config file, then environment, then flag overrides.
func loadConfig(c *cli.Context) (confloader.Config, error) {
	cfg := confloader.DefaultConfig()

	loader := confloader.NewLoader(confloader.WithConfigFile(c.String("config")))
	if err := loader.Load(&cfg); err != nil {
		return cfg, err
	}

	overrides := map[string]any{}
	if v := c.String("log-level"); v != "" {
		overrides["log.level"] = v
	}
	if v := c.String("log-format"); v != "" {
		overrides["log.format"] = v
	}
	if v := c.String("backup-root"); v != "" {
		overrides["snapshot.root"] = v
	}
	if v := c.String("store-path"); v != "" {
		overrides["store.path"] = v
	}
	if len(overrides) > 0 {
		if err := loader.LoadMap(overrides); err != nil {
			return cfg, err
		}
		if err := loader.Unmarshal(&cfg); err != nil {
			return cfg, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// setupLogger configures the process logger from the loaded config.
func setupLogger(cfg confloader.Config) (logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return nil, err
	}
	logger.SetDefault(log)
	return log, nil
}

// openStore opens the configured document store engine. When metrics
// is non-nil the badger engine registers its size gauges with it.
func openStore(cfg confloader.Config, metrics *metric.Registry) (storage.Store, error) {
	switch cfg.Store.Engine {
	case "memory":
		return memory.New(), nil
	default:
		bcfg := badgerdoc.DefaultConfig(cfg.Store.Path)
		if cfg.Store.GCInterval > 0 {
			bcfg.GCInterval = cfg.Store.GCInterval
		}
		store, err := badgerdoc.New(bcfg, slog.Default())
		if err != nil {
			return nil, err
		}
		if metrics != nil {
			store.RegisterMetrics(metrics.Prometheus())
		}
		return store, nil
	}
}

// newCipher builds the snapshot cipher from the configuration. A nil
// cipher means snapshots are written and read in plaintext.
func newCipher(cfg confloader.Config) (adaptive.Cipher, error) {
	enc := snapshot.EncryptionConfig{
		Key:        []byte(cfg.Snapshot.Key),
		Passphrase: cfg.Snapshot.Passphrase,
	}
	if !enc.Enabled() {
		return nil, nil
	}
	return snapshot.NewCipher(cfg.Snapshot.Root, enc)
}

// writeLimiter builds the restore rate limiter, nil when unlimited.
func writeLimiter(cfg confloader.Config) *rate.Limiter {
	if cfg.Restore.WriteRate <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(cfg.Restore.WriteRate), cfg.Restore.WriteBurst)
}

// formatter returns the output formatter selected by the global flag.
func formatter(c *cli.Context) output.Formatter {
	return output.NewFormatter(output.Format(c.String("output")))
}

// confirm prompts on the terminal and returns whether the user agreed.
// Non-interactive runs refuse instead of hanging.
func confirm(prompt string) bool {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprintln(os.Stderr, "refusing to proceed: stdin is not a terminal (use --yes)")
		return false
	}
	fmt.Printf("%s [y/N]: ", prompt)
	var answer string
	fmt.Scanln(&answer)
	return answer == "y" || answer == "Y"
}

// readPassphrase prompts for the snapshot passphrase without echo.
func readPassphrase() (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", fmt.Errorf("cannot prompt for passphrase: stdin is not a terminal")
	}
	fmt.Fprint(os.Stderr, "snapshot passphrase: ")
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// progressReporter renders per-collection progress bars when stderr is
// a terminal; otherwise it stays silent and the structured log carries
// the progress.
func progressReporter() service.ProgressFunc {
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		return nil
	}

	bars := map[string]*output.ProgressBar{}
	return func(collection string, applied, total int) {
		bar, ok := bars[collection]
		if !ok {
			bar = output.NewProgressBar(os.Stderr, collection)
			bars[collection] = bar
		}
		bar.Update(int64(applied), int64(total))
		if applied >= total {
			bar.Finish()
		}
	}
}
