// Copyright (c) 2026 Keymaster Team
// Keymaster - SSH key management system
// This source code is licensed under the MIT license found in the LICENSE file.

package hostkeys

// NotFound is returned by FindMatch when no record matches.
const NotFound = -1

// FindMatch returns the index of the first store record whose host field and
// key-type equal the scanned record's, or NotFound. Aliases are not consulted.
func FindMatch(scanned Record, store []Record) int {
	for i, r := range store {
		if r.Host == scanned.Host && r.KeyType == scanned.KeyType {
			return i
		}
	}
	return NotFound
}
