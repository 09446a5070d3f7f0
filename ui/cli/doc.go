// Copyright (c) 2026 Keymaster Team
// Keymaster - SSH key management system
// This source code is licensed under the MIT license found in the LICENSE file.
//
// Package cli implements the knownhosts command line using Cobra. It resolves
// configuration, builds the scanner and optional audit store, and delegates
// the actual work to the `core` operations. CLI code stays thin: it parses,
// wires and reports.
package cli
