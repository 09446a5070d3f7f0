// Copyright (c) 2026 Keymaster Team
// Keymaster - SSH key management system
// This source code is licensed under the MIT license found in the LICENSE file.

// Package sshkey contains small helpers for presenting public key material.
package sshkey

import (
	"encoding/base64"

	"golang.org/x/crypto/ssh"
)

// Fingerprint returns the SHA256 fingerprint of a base64 encoded public key
// as printed by ssh-keygen -l. It returns "" when the material does not
// decode to a public key; callers display the key without a fingerprint then.
func Fingerprint(key string) string {
	raw, err := base64.StdEncoding.DecodeString(key)
	if err != nil {
		return ""
	}
	pub, err := ssh.ParsePublicKey(raw)
	if err != nil {
		return ""
	}
	return ssh.FingerprintSHA256(pub)
}

// Short abbreviates key material for display, keeping both ends.
func Short(key string) string {
	const keep = 12
	if len(key) <= 2*keep+3 {
		return key
	}
	return key[:keep] + "..." + key[len(key)-keep:]
}
