// Copyright (c) 2026 Keymaster Team
// Keymaster - SSH key management system
// This source code is licensed under the MIT license found in the LICENSE file.

// Package scan obtains a host's public keys as known_hosts-style lines.
// Keys come from an external ssh-keyscan compatible program, from a
// pre-recorded file, or from the built-in scanner that performs the SSH
// handshake itself.
package scan

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrScanInvocation is matched by every InvocationError.
var ErrScanInvocation = errors.New("key scan failed")

// InvocationError reports a scan that could not produce output.
type InvocationError struct {
	Scanner string
	Host    string
	Err     error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("%s scan of %s: %v", e.Scanner, e.Host, e.Err)
}

func (e *InvocationError) Unwrap() []error { return []error{ErrScanInvocation, e.Err} }

// Scanner returns the key lines for host, one `name key-type key` per entry.
type Scanner interface {
	Scan(ctx context.Context, host string) ([]string, error)
}

// BuiltinCommand selects the native scanner instead of an external program.
const BuiltinCommand = "builtin"

// DefaultCommand is the external scanner used when none is configured.
const DefaultCommand = "ssh-keyscan"

// Options selects and configures a Scanner.
type Options struct {
	// File, when set, replaces scanning with the lines of this file.
	File string
	// Command is the scanning program, or BuiltinCommand.
	Command string
	// Opts are extra whitespace-separated arguments placed before the host.
	Opts string
	// Timeout bounds a single scan. Zero leaves timing to the scanner.
	Timeout time.Duration
}

// New builds the Scanner described by o.
func New(o Options) (Scanner, error) {
	switch {
	case o.File != "":
		return &FileScanner{Path: o.File}, nil
	case o.Command == BuiltinCommand:
		ns, err := ParseNativeOpts(o.Opts)
		if err != nil {
			return nil, err
		}
		if o.Timeout > 0 && ns.Timeout == 0 {
			ns.Timeout = o.Timeout
		}
		return ns, nil
	default:
		cmd := o.Command
		if cmd == "" {
			cmd = DefaultCommand
		}
		return &CommandScanner{Command: cmd, Opts: o.Opts, Timeout: o.Timeout}, nil
	}
}
