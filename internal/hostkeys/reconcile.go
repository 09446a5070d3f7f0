// Copyright (c) 2026 Keymaster Team
// Keymaster - SSH key management system
// This source code is licensed under the MIT license found in the LICENSE file.

package hostkeys

import "slices"

// Result is the outcome of Reconcile or RemoveHost.
type Result struct {
	// Lines is the full store after the operation. When Changed is false it
	// holds the input lines unmodified.
	Lines   []string
	Changed bool

	Added     []Record
	Replaced  []Record // the store records that were superseded
	Unchanged []Record
	Removed   []Record

	// Skipped counts scanned records never looked at because StopOnMatch
	// ended the pass early.
	Skipped int
}

type options struct {
	stopOnMatch bool
}

// Option tunes Reconcile.
type Option func(*options)

// WithStopOnMatch makes Reconcile stop processing the remaining scanned
// records as soon as one of them is already present unchanged. The default
// skips only that record and carries on.
func WithStopOnMatch(stop bool) Option {
	return func(o *options) { o.stopOnMatch = stop }
}

// Reconcile merges scanned key lines for host into the store lines.
//
// Each scan line contributes its key-type and key material; the host label
// written to the store is always host followed by aliases, whatever name the
// scanner printed. A scanned record with a counterpart carrying the same key
// and aliases is left alone. Otherwise the counterpart (if any) is removed
// and a freshly formatted line is appended at the end.
//
// Every line of both inputs is parsed before anything is computed, so a
// malformed line anywhere returns a *MalformedLineError and no result.
func Reconcile(host string, aliases []string, storeLines, scanLines []string, opts ...Option) (Result, error) {
	var o options
	for _, fn := range opts {
		fn(&o)
	}

	records, err := parseAll("store", storeLines)
	if err != nil {
		return Result{}, err
	}
	scanned, err := parseAll("scan", scanLines)
	if err != nil {
		return Result{}, err
	}

	aliases = slices.Clone(aliases)
	if aliases == nil {
		aliases = []string{}
	}
	lines := slices.Clone(storeLines)
	res := Result{}

	for n, s := range scanned {
		want := Record{Host: host, Aliases: aliases, KeyType: s.KeyType, Key: s.Key}

		idx := FindMatch(want, records)
		if idx != NotFound {
			existing := records[idx]
			if existing.Same(want) {
				res.Unchanged = append(res.Unchanged, existing)
				if o.stopOnMatch {
					res.Skipped = len(scanned) - n - 1
					break
				}
				continue
			}
			res.Replaced = append(res.Replaced, existing)
			lines = slices.Delete(lines, idx, idx+1)
			records = slices.Delete(records, idx, idx+1)
		}

		lines = append(lines, want.String())
		records = append(records, want)
		res.Added = append(res.Added, want)
		res.Changed = true
	}

	if !res.Changed {
		res.Lines = storeLines
		return res, nil
	}
	res.Lines = lines
	return res, nil
}
