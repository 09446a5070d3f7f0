// Copyright (c) 2026 Keymaster Team
// Keymaster - SSH key management system
// This source code is licensed under the MIT license found in the LICENSE file.

package store

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
)

// now is swapped in tests.
var now = time.Now

// Backup writes a zstd-compressed copy of the trust store at path into dir
// and returns the snapshot's file name. Snapshots are named
// <base>-YYYYMMDDTHHMMSS.zst; a second snapshot within the same second gets
// a -1, -2, ... suffix instead of replacing the first.
func Backup(path, dir string) (string, error) {
	src, err := os.Open(path)
	if err != nil {
		return "", &FileAccessError{Op: "backup", Path: path, Err: err}
	}
	defer func() { _ = src.Close() }()

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", &FileAccessError{Op: "mkdir", Path: dir, Err: err}
	}
	out, name, err := createSnapshot(dir, filepath.Base(path))
	if err != nil {
		return "", err
	}
	defer func() { _ = out.Close() }()

	enc, err := zstd.NewWriter(out)
	if err != nil {
		return "", fmt.Errorf("could not create zstd writer: %w", err)
	}
	if _, err := io.Copy(enc, src); err != nil {
		_ = enc.Close()
		return "", &FileAccessError{Op: "backup", Path: name, Err: err}
	}
	if err := enc.Close(); err != nil {
		return "", &FileAccessError{Op: "backup", Path: name, Err: err}
	}
	if err := out.Close(); err != nil {
		return "", &FileAccessError{Op: "backup", Path: name, Err: err}
	}
	return name, nil
}

// createSnapshot exclusively creates the next free snapshot name in dir.
func createSnapshot(dir, base string) (*os.File, string, error) {
	stamp := now().Format("20060102T150405")
	for n := 0; ; n++ {
		name := filepath.Join(dir, fmt.Sprintf("%s-%s.zst", base, stamp))
		if n > 0 {
			name = filepath.Join(dir, fmt.Sprintf("%s-%s-%d.zst", base, stamp, n))
		}
		out, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o600)
		if err == nil {
			return out, name, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", &FileAccessError{Op: "backup", Path: name, Err: err}
		}
	}
}

// ReadBackup decodes a snapshot written by Backup into trust-store lines.
func ReadBackup(name string) ([]string, error) {
	file, err := os.Open(name)
	if err != nil {
		return nil, &FileAccessError{Op: "read", Path: name, Err: err}
	}
	defer func() { _ = file.Close() }()

	dec, err := zstd.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("could not create zstd reader: %w", err)
	}
	defer dec.Close()

	data, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("could not decode backup %s: %w", name, err)
	}
	return SplitLines(string(data)), nil
}
