// Copyright (c) 2026 Keymaster Team
// Keymaster - SSH key management system
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/toeirei/keymaster-knownhosts/internal/db"
	"github.com/toeirei/keymaster-knownhosts/internal/hostkeys"
	"github.com/toeirei/keymaster-knownhosts/internal/logging"
	"github.com/toeirei/keymaster-knownhosts/internal/store"
)

// ErrNoHost is returned when an operation is started without a host name.
var ErrNoHost = errors.New("no host given")

// Operation names the action an Outcome describes.
type Operation string

const (
	OpReconcile Operation = "reconcile"
	OpRemove    Operation = "remove"
)

// Options carries everything one invocation needs. It is built once by the
// caller and passed down; nothing here reads global state.
type Options struct {
	// Path is the trust-store file.
	Path string
	// Host is the canonical host label, or the name to remove.
	Host string
	// Aliases are written after Host on every reconciled line.
	Aliases []string
	// StopOnMatch ends a reconcile pass at the first unchanged key.
	StopOnMatch bool
	// DryRun computes the outcome without creating or writing anything.
	DryRun bool
	// BackupDir, when set, receives a compressed snapshot before each rewrite.
	BackupDir string
}

// Outcome reports what an operation did.
type Outcome struct {
	Op      Operation
	Path    string
	Host    string
	Created bool   // the trust store did not exist and was created empty
	Written bool   // the trust store was rewritten
	Backup  string // snapshot path when one was taken
	Result  hostkeys.Result
}

// Reconcile scans opts.Host and merges its keys into the trust store.
func Reconcile(ctx context.Context, opts Options, sc Scanner, aw AuditWriter) (Outcome, error) {
	out := Outcome{Op: OpReconcile, Path: opts.Path, Host: opts.Host}
	if opts.Host == "" {
		return out, ErrNoHost
	}

	created, err := bootstrap(opts)
	if err != nil {
		return out, err
	}
	out.Created = created

	scanned, err := sc.Scan(ctx, opts.Host)
	if err != nil {
		return out, err
	}
	logging.Debugf("core: %d key line(s) scanned for %s", len(scanned), opts.Host)

	lines, err := load(opts)
	if err != nil {
		return out, err
	}

	res, err := hostkeys.Reconcile(opts.Host, opts.Aliases, lines, scanned, hostkeys.WithStopOnMatch(opts.StopOnMatch))
	if err != nil {
		return out, err
	}
	out.Result = res
	if res.Skipped > 0 {
		logging.Debugf("core: stopped at unchanged key, %d scanned key(s) not examined", res.Skipped)
	}

	details := fmt.Sprintf("%s (%s): added %d, replaced %d, unchanged %d",
		opts.Host, opts.Path, len(res.Added), len(res.Replaced), len(res.Unchanged))
	return commit(ctx, opts, out, aw, db.ActionReconcile, details)
}

// Remove deletes every trust-store entry naming opts.Host as host or alias.
func Remove(ctx context.Context, opts Options, aw AuditWriter) (Outcome, error) {
	out := Outcome{Op: OpRemove, Path: opts.Path, Host: opts.Host}
	if opts.Host == "" {
		return out, ErrNoHost
	}

	created, err := bootstrap(opts)
	if err != nil {
		return out, err
	}
	out.Created = created

	lines, err := load(opts)
	if err != nil {
		return out, err
	}

	res, err := hostkeys.RemoveHost(opts.Host, lines)
	if err != nil {
		return out, err
	}
	out.Result = res

	types := make([]string, 0, len(res.Removed))
	for _, r := range res.Removed {
		types = append(types, r.KeyType)
	}
	details := fmt.Sprintf("%s (%s): removed %d [%s]", opts.Host, opts.Path, len(res.Removed), strings.Join(types, ","))
	return commit(ctx, opts, out, aw, db.ActionRemove, details)
}

// bootstrap creates a missing trust store. Dry runs never create files.
func bootstrap(opts Options) (bool, error) {
	if opts.DryRun {
		return false, nil
	}
	created, err := store.Ensure(opts.Path)
	if err != nil {
		return false, err
	}
	if created {
		logging.Debugf("core: created empty trust store %s", opts.Path)
	}
	return created, nil
}

// load reads the trust store. In a dry run a missing file reads as empty.
func load(opts Options) ([]string, error) {
	lines, err := store.Load(opts.Path)
	if err != nil && opts.DryRun && errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	return lines, err
}

// commit writes the computed store when it changed, taking a backup first
// and recording an audit entry afterwards.
func commit(ctx context.Context, opts Options, out Outcome, aw AuditWriter, action, details string) (Outcome, error) {
	if !out.Result.Changed || opts.DryRun {
		return out, nil
	}

	if opts.BackupDir != "" {
		name, err := store.Backup(opts.Path, opts.BackupDir)
		if err != nil {
			return out, fmt.Errorf("backup before rewrite: %w", err)
		}
		out.Backup = name
		logging.Debugf("core: backup written to %s", name)
	}

	if err := store.Write(opts.Path, out.Result.Lines); err != nil {
		return out, err
	}
	out.Written = true

	if aw != nil {
		// The file is already written; a failed audit entry is reported but
		// does not turn the operation into a failure.
		if err := aw.LogAction(ctx, action, details); err != nil {
			logging.Warnf("could not record audit entry: %v", err)
		}
	}
	return out, nil
}
