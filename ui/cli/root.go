// Copyright (c) 2026 Keymaster Team
// Keymaster - SSH key management system
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/toeirei/keymaster-knownhosts/internal/config"
	"github.com/toeirei/keymaster-knownhosts/internal/core"
	"github.com/toeirei/keymaster-knownhosts/internal/db"
	"github.com/toeirei/keymaster-knownhosts/internal/i18n"
	"github.com/toeirei/keymaster-knownhosts/internal/logging"
	"github.com/toeirei/keymaster-knownhosts/internal/scan"
)

// configBindings maps configuration keys to the flags that override them.
var configBindings = map[string]string{
	"file":                    "file",
	"language":                "language",
	"scan.command":            "command",
	"scan.opts":               "opts",
	"scan.file":               "scanfile",
	"scan.timeout":            "timeout",
	"reconcile.stop_on_match": "stop-on-match",
	"backup.dir":              "backup-dir",
	"audit.type":              "audit-db-type",
	"audit.dsn":               "audit-dsn",
}

// runFlags holds the flags that only steer this invocation and are never
// persisted to the config file.
type runFlags struct {
	remove     bool
	dryRun     bool
	history    int
	saveConfig bool
	cfgFile    string
	verbose    bool
}

// Execute runs the CLI entrypoint. The main package should call this function
// and handle process exit.
func Execute() error {
	// Interrupting cancels a running scan instead of leaving it behind.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}

// NewRootCmd creates and configures a new root cobra command.
// This function is used to create the main application command as well as
// fresh instances for isolated testing.
func NewRootCmd() *cobra.Command {
	rf := &runFlags{}

	cmd := &cobra.Command{
		Use:           "knownhosts [flags] <host> [aliases...]",
		Short:         i18n.T("root.short"),
		Long:          i18n.T("root.long"),
		Example:       i18n.T("root.example"),
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       compositeVersion(nil),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, rf, args)
		},
	}
	cmd.SetVersionTemplate("{{.Version}}\n")

	// Help is rendered after flag parsing but before RunE, so the language
	// has to be resolved here for the help text to follow --language.
	defaultHelp := cmd.HelpFunc()
	cmd.SetHelpFunc(func(c *cobra.Command, args []string) {
		if cfg, err := loadConfig(c, rf); err == nil {
			i18n.Init(cfg.Language)
		}
		localizeHelp(c)
		defaultHelp(c, args)
	})

	f := cmd.Flags()
	f.StringP("file", "f", config.DefaultKnownHostsFile, "known_hosts file to maintain")
	f.StringP("scanfile", "S", "", "read scanned key lines from this file instead of scanning")
	f.StringP("opts", "o", "", "extra options passed to the scan command before the host")
	f.StringP("command", "c", scan.DefaultCommand, `scan command, or "builtin" for the native SSH scanner`)
	f.Duration("timeout", 0, "abort a scan after this long (0 = no limit)")
	f.Bool("stop-on-match", false, "stop at the first scanned key that is already present unchanged")
	f.String("backup-dir", "", "write a compressed copy of the file here before each rewrite")
	f.String("audit-db-type", "sqlite", "audit database type (sqlite, postgres, mysql)")
	f.String("audit-dsn", "", "audit database DSN; empty disables auditing")
	f.String("language", "en", `output language ("en", "de")`)
	f.BoolVarP(&rf.remove, "remove", "r", false, "remove every entry naming the host instead of scanning")
	f.BoolVarP(&rf.dryRun, "dry-run", "n", false, "show what would change without writing anything")
	f.IntVar(&rf.history, "history", 0, "print the last N audit entries and exit")
	f.BoolVar(&rf.saveConfig, "save-config", false, "write the resolved settings to the user config file and exit")
	f.StringVar(&rf.cfgFile, "config", "", "config file")
	f.BoolVarP(&rf.verbose, "verbose", "v", false, "enable debug logging")
	// cobra reads this flag itself because Version is set.
	f.BoolP("version", "V", false, "print version and exit")

	return cmd
}

// localizeHelp sets the help texts in the current language.
func localizeHelp(cmd *cobra.Command) {
	cmd.Short = i18n.T("root.short")
	cmd.Long = i18n.T("root.long")
	cmd.Example = i18n.T("root.example")
}

func run(cmd *cobra.Command, rf *runFlags, args []string) error {
	logging.SetOutput(cmd.ErrOrStderr())
	logging.SetDebug(rf.verbose)

	cfg, err := loadConfig(cmd, rf)
	if err != nil {
		return errors.New(i18n.T("errors.config", err))
	}
	i18n.Init(cfg.Language)
	logging.Debugf("cli: file=%s scan.command=%s scan.file=%s", cfg.File, cfg.Scan.Command, cfg.Scan.File)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	if rf.saveConfig {
		path, err := config.WriteConfigFile(&cfg, false)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(out, path)
		return nil
	}

	if rf.history > 0 {
		if cfg.Audit.Dsn == "" {
			return errors.New(i18n.T("errors.history_needs_audit"))
		}
		return showHistory(ctx, cmd, cfg, rf.history)
	}

	if len(args) == 0 {
		return errors.New(i18n.T("errors.missing_host"))
	}
	if rf.remove && len(args) > 1 {
		return errors.New(i18n.T("errors.remove_with_aliases"))
	}

	opts := core.Options{
		Path:        cfg.File,
		Host:        args[0],
		Aliases:     args[1:],
		StopOnMatch: cfg.Reconcile.StopOnMatch,
		DryRun:      rf.dryRun,
		BackupDir:   cfg.Backup.Dir,
	}

	var aw core.AuditWriter
	if cfg.Audit.Dsn != "" && !rf.dryRun {
		store, err := db.Open(ctx, cfg.Audit.Type, cfg.Audit.Dsn)
		if err != nil {
			return errors.New(i18n.T("errors.audit_open", err))
		}
		defer func() { _ = store.Close() }()
		aw = store
	}

	rep := newReporter(out)
	if rf.remove {
		res, err := core.Remove(ctx, opts, aw)
		if err != nil {
			return err
		}
		rep.remove(res, rf.dryRun)
		return nil
	}

	scanner, err := scan.New(scan.Options{
		File:    cfg.Scan.File,
		Command: cfg.Scan.Command,
		Opts:    cfg.Scan.Opts,
		Timeout: cfg.Scan.Timeout,
	})
	if err != nil {
		return err
	}
	res, err := core.Reconcile(ctx, opts, scanner, aw)
	if err != nil {
		return err
	}
	rep.reconcile(res, rf.dryRun)
	return nil
}

func loadConfig(cmd *cobra.Command, rf *runFlags) (config.Config, error) {
	var cfgPath *string
	if rf.cfgFile != "" {
		// Make sure the user-provided file exists to avoid silently running
		// on defaults.
		if _, err := os.Stat(rf.cfgFile); err != nil {
			return config.Config{}, fmt.Errorf("config file specified via --config flag not found or is not accessible: %w", err)
		}
		cfgPath = &rf.cfgFile
	}

	cfg, err := config.LoadConfig[config.Config](cmd, config.Defaults(), configBindings, cfgPath)
	if err != nil {
		return cfg, err
	}
	// An empty value in a config file means "use the default".
	if cfg.File == "" {
		cfg.File = config.DefaultKnownHostsFile
	}
	if cfg.Scan.Command == "" {
		cfg.Scan.Command = scan.DefaultCommand
	}
	if cfg.Audit.Type == "" {
		cfg.Audit.Type = "sqlite"
	}
	return cfg, nil
}

func showHistory(ctx context.Context, cmd *cobra.Command, cfg config.Config, limit int) error {
	store, err := db.Open(ctx, cfg.Audit.Type, cfg.Audit.Dsn)
	if err != nil {
		return errors.New(i18n.T("errors.audit_open", err))
	}
	defer func() { _ = store.Close() }()

	entries, err := store.Recent(ctx, limit)
	if err != nil {
		return err
	}
	newReporter(cmd.OutOrStdout()).history(entries)
	return nil
}
