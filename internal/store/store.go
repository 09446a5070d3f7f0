// Copyright (c) 2026 Keymaster Team
// Keymaster - SSH key management system
// This source code is licensed under the MIT license found in the LICENSE file.

// Package store reads and writes the known_hosts trust-store file. The file
// is always handled as a whole: loaded fully into memory and, when changed,
// replaced through a temporary file and a rename so readers never observe a
// half-written store.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrFileAccess is matched by every FileAccessError.
var ErrFileAccess = errors.New("trust store access failed")

// FileAccessError wraps a filesystem failure on the trust store.
type FileAccessError struct {
	Op   string
	Path string
	Err  error
}

func (e *FileAccessError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *FileAccessError) Unwrap() []error { return []error{ErrFileAccess, e.Err} }

const defaultMode fs.FileMode = 0o644

// Ensure creates an empty trust store at path if nothing exists there yet.
// Missing parent directories are created. An existing file is left untouched.
func Ensure(path string) (created bool, err error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, &FileAccessError{Op: "stat", Path: path, Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, &FileAccessError{Op: "mkdir", Path: filepath.Dir(path), Err: err}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, defaultMode)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return false, nil
		}
		return false, &FileAccessError{Op: "create", Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return false, &FileAccessError{Op: "create", Path: path, Err: err}
	}
	return true, nil
}

// Load returns the lines of the trust store without their terminators.
func Load(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &FileAccessError{Op: "read", Path: path, Err: err}
	}
	return SplitLines(string(data)), nil
}

// SplitLines splits text on newlines, normalizing CRLF. A single trailing
// newline does not produce an empty final line.
func SplitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return []string{}
	}
	return strings.Split(text, "\n")
}

// Write replaces the trust store with lines, each newline-terminated. The
// existing file mode is kept. A symlinked store is written through the link:
// the link stays in place and its target receives the new content.
func Write(path string, lines []string) error {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}
	mode := defaultMode
	if fi, err := os.Stat(path); err == nil {
		mode = fi.Mode().Perm()
	}

	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	return writeAtomic(path, []byte(b.String()), mode)
}

func writeAtomic(path string, data []byte, mode fs.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return &FileAccessError{Op: "write", Path: path, Err: err}
	}
	tmpName := tmp.Name()
	// Remove the temp file on every failure path; after a successful rename
	// this is a no-op.
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return &FileAccessError{Op: "write", Path: path, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return &FileAccessError{Op: "sync", Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &FileAccessError{Op: "write", Path: path, Err: err}
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		return &FileAccessError{Op: "chmod", Path: path, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		return &FileAccessError{Op: "rename", Path: path, Err: err}
	}
	return nil
}
