// Copyright (c) 2026 Keymaster Team
// Keymaster - SSH key management system
// This source code is licensed under the MIT license found in the LICENSE file.

package hostkeys

// RemoveHost drops every line, of any key-type, whose host field or alias
// list names host. Remaining lines keep their order and raw text.
func RemoveHost(host string, storeLines []string) (Result, error) {
	records, err := parseAll("store", storeLines)
	if err != nil {
		return Result{}, err
	}

	kept := make([]string, 0, len(storeLines))
	res := Result{}
	for i, r := range records {
		if r.HasName(host) {
			res.Removed = append(res.Removed, r)
			continue
		}
		kept = append(kept, storeLines[i])
	}

	if len(kept) == len(storeLines) {
		res.Lines = storeLines
		return res, nil
	}
	res.Lines = kept
	res.Changed = true
	return res, nil
}
