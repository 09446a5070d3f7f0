// Copyright (c) 2026 Keymaster Team
// Keymaster - SSH key management system
// This source code is licensed under the MIT license found in the LICENSE file.

package scan

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/toeirei/keymaster-knownhosts/internal/logging"
	"github.com/toeirei/keymaster-knownhosts/internal/store"
)

// CommandScanner runs an external ssh-keyscan compatible program.
// Its stderr is discarded; stdout must carry one key line per line.
type CommandScanner struct {
	Command string
	Opts    string
	Timeout time.Duration
}

// Args returns the argument vector passed to the program for host.
func (s *CommandScanner) Args(host string) []string {
	args := strings.Fields(s.Opts)
	return append(args, host)
}

func (s *CommandScanner) Scan(ctx context.Context, host string) ([]string, error) {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	args := s.Args(host)
	logging.Debugf("scan: running %s %s", s.Command, strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, s.Command, args...)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	// nil Stderr and Stdin are connected to the null device.
	if err := cmd.Run(); err != nil {
		return nil, &InvocationError{Scanner: s.Command, Host: host, Err: err}
	}
	return splitOutput(stdout.String()), nil
}

// splitOutput turns program output into lines, dropping the empty artifact
// that follows the final newline.
func splitOutput(out string) []string {
	lines := strings.Split(out, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}

// FileScanner returns pre-recorded scan lines, for offline use and testing.
type FileScanner struct {
	Path string
}

func (s *FileScanner) Scan(_ context.Context, host string) ([]string, error) {
	lines, err := store.Load(s.Path)
	if err != nil {
		return nil, &InvocationError{Scanner: "scanfile", Host: host, Err: err}
	}
	logging.Debugf("scan: read %d lines from %s", len(lines), s.Path)
	return lines, nil
}
