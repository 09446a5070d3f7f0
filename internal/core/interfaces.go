// Copyright (c) 2026 Keymaster Team
// Keymaster - SSH key management system
// This source code is licensed under the MIT license found in the LICENSE file.

// Package core runs the two trust-store operations, reconcile and remove,
// end to end: bootstrap the file, load it, compute the new content with
// package hostkeys, and write it back (with optional backup and audit entry)
// only when something changed. Side effects beyond the trust-store file sit
// behind the small interfaces below so the CLI and tests can swap them.
package core

import (
	"context"

	"github.com/toeirei/keymaster-knownhosts/internal/scan"
)

// Scanner fetches the current key lines of a host.
type Scanner = scan.Scanner

// AuditWriter is the minimal contract for emitting audit events.
type AuditWriter interface {
	LogAction(ctx context.Context, action, details string) error
}
