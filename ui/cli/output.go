// Copyright (c) 2026 Keymaster Team
// Keymaster - SSH key management system
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/toeirei/keymaster-knownhosts/internal/core"
	"github.com/toeirei/keymaster-knownhosts/internal/db"
	"github.com/toeirei/keymaster-knownhosts/internal/hostkeys"
	"github.com/toeirei/keymaster-knownhosts/internal/i18n"
	"github.com/toeirei/keymaster-knownhosts/internal/sshkey"
)

// reporter prints operation outcomes. Colors are only used when w is a
// terminal, so piped output and tests see plain text.
type reporter struct {
	w io.Writer

	header    lipgloss.Style
	added     lipgloss.Style
	replaced  lipgloss.Style
	removed   lipgloss.Style
	unchanged lipgloss.Style
}

func newReporter(w io.Writer) *reporter {
	r := lipgloss.NewRenderer(w)
	if !isTerminal(w) {
		r.SetColorProfile(termenv.Ascii)
	}
	return &reporter{
		w:         w,
		header:    r.NewStyle().Bold(true),
		added:     r.NewStyle().Foreground(lipgloss.Color("2")),
		replaced:  r.NewStyle().Foreground(lipgloss.Color("3")),
		removed:   r.NewStyle().Foreground(lipgloss.Color("1")),
		unchanged: r.NewStyle().Faint(true),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (p *reporter) println(s string) {
	_, _ = fmt.Fprintln(p.w, s)
}

func (p *reporter) reconcile(out core.Outcome, dryRun bool) {
	if out.Created {
		p.println(i18n.T("reconcile.created_store", out.Path))
	}

	res := out.Result
	switch {
	case !res.Changed:
		p.println(p.header.Render(i18n.T("reconcile.unchanged", out.Host, out.Path)))
	case dryRun:
		p.println(p.header.Render(i18n.T("reconcile.dry_run", out.Host, out.Path)))
	default:
		p.println(p.header.Render(i18n.T("reconcile.updated", out.Host, out.Path)))
	}

	p.records("+", i18n.T("summary.added"), p.added, res.Added)
	p.records("~", i18n.T("summary.replaced"), p.replaced, res.Replaced)
	p.records("=", i18n.T("summary.unchanged"), p.unchanged, res.Unchanged)

	if res.Skipped > 0 {
		p.println(i18n.T("reconcile.stopped_early", res.Skipped))
	}
	if out.Backup != "" {
		p.println(i18n.T("summary.backup", out.Backup))
	}
}

func (p *reporter) remove(out core.Outcome, dryRun bool) {
	if out.Created {
		p.println(i18n.T("reconcile.created_store", out.Path))
	}

	n := len(out.Result.Removed)
	switch {
	case n == 0:
		p.println(p.header.Render(i18n.T("remove.none", out.Host, out.Path)))
		return
	case dryRun:
		p.println(p.header.Render(i18n.T("remove.dry_run", out.Host, n, out.Path)))
	default:
		p.println(p.header.Render(i18n.T("remove.removed", out.Host, n, out.Path)))
	}

	p.records("-", i18n.T("summary.removed"), p.removed, out.Result.Removed)
	if out.Backup != "" {
		p.println(i18n.T("summary.backup", out.Backup))
	}
}

// records prints one line per record: marker, label, key type, fingerprint
// and the names on the line.
func (p *reporter) records(marker, label string, style lipgloss.Style, recs []hostkeys.Record) {
	for _, r := range recs {
		p.println(style.Render(fmt.Sprintf("  %s %-10s %-20s %s  %s",
			marker, label, r.KeyType, displayKey(r.Key), strings.Join(r.Names(), ","))))
	}
}

// displayKey prefers the SHA256 fingerprint and falls back to an abbreviated
// key when the material is not a decodable public key.
func displayKey(key string) string {
	if fp := sshkey.Fingerprint(key); fp != "" {
		return fp
	}
	return sshkey.Short(key)
}

func (p *reporter) history(entries []db.AuditLogEntry) {
	if len(entries) == 0 {
		p.println(i18n.T("history.empty"))
		return
	}
	p.println(p.header.Render(i18n.T("history.header")))
	for _, e := range entries {
		p.println(fmt.Sprintf("  %s  %-10s %-15s %s",
			e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.Username, e.Action, e.Details))
	}
}
