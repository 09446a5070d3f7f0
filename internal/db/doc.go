// Copyright (c) 2026 Keymaster Team
// Keymaster - SSH key management system
// This source code is licensed under the MIT license found in the LICENSE file.

// Package db keeps the audit trail of trust-store changes. Every rewrite of
// a known_hosts file can be recorded in an audit_log table on SQLite,
// PostgreSQL or MySQL, accessed through a Bun DB so the same queries serve
// all three backends.
package db
