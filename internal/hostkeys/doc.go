// Copyright (c) 2026 Keymaster Team
// Keymaster - SSH key management system
// This source code is licensed under the MIT license found in the LICENSE file.

// Package hostkeys holds the known_hosts reconciliation logic. It parses
// trust-store and scan-result lines into Records, matches scanned records
// against the store by (host, key-type), and computes the rewritten store
// for an update or a host removal. Nothing in this package touches the
// filesystem; callers load lines, call Reconcile or RemoveHost, and write the
// result back only when Result.Changed is true.
package hostkeys
