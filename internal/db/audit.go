// Copyright (c) 2026 Keymaster Team
// Keymaster - SSH key management system
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"fmt"
	"os/user"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// Audit actions.
const (
	ActionReconcile = "RECONCILE_HOST"
	ActionRemove    = "REMOVE_HOST"
)

// AuditLogModel maps the audit_log table.
type AuditLogModel struct {
	bun.BaseModel `bun:"table:audit_log"`
	ID            int64     `bun:"id,pk,autoincrement"`
	Timestamp     time.Time `bun:"timestamp,notnull"`
	Username      string    `bun:"username,notnull"`
	Action        string    `bun:"action,notnull"`
	Details       string    `bun:"details,type:text"`
}

// AuditLogEntry is one recorded change.
type AuditLogEntry struct {
	ID        int64
	Timestamp time.Time
	Username  string
	Action    string
	Details   string
}

// now and currentUser are swapped in tests.
var (
	now         = time.Now
	currentUser = user.Current
)

// osUsername returns the invoking user, without a Windows domain prefix.
func osUsername() string {
	u, err := currentUser()
	if err != nil {
		return "unknown"
	}
	if parts := strings.Split(u.Username, `\`); len(parts) > 1 {
		return parts[1]
	}
	return u.Username
}

// LogAction records an audit trail event for the current OS user.
func (s *Store) LogAction(ctx context.Context, action, details string) error {
	entry := &AuditLogModel{
		Timestamp: now().UTC(),
		Username:  osUsername(),
		Action:    action,
		Details:   details,
	}
	if _, err := s.bun.NewInsert().Model(entry).Exec(ctx); err != nil {
		return fmt.Errorf("failed to write audit entry: %w", err)
	}
	dbLogf("db: audit %s %s", action, details)
	return nil
}

// Recent returns up to limit entries, newest first. A limit of zero or less
// returns everything.
func (s *Store) Recent(ctx context.Context, limit int) ([]AuditLogEntry, error) {
	var rows []AuditLogModel
	q := s.bun.NewSelect().Model(&rows).OrderExpr("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to read audit log: %w", err)
	}

	out := make([]AuditLogEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, AuditLogEntry{
			ID:        r.ID,
			Timestamp: r.Timestamp,
			Username:  r.Username,
			Action:    r.Action,
			Details:   r.Details,
		})
	}
	return out, nil
}
