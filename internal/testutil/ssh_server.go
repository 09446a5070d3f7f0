// Copyright (c) 2026 Keymaster Team
// Keymaster - SSH key management system
// This source code is licensed under the MIT license found in the LICENSE file.

// Package testutil holds test doubles shared across packages.
package testutil

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"net"
	"strings"
	"sync"
	"testing"

	"golang.org/x/crypto/ssh"
)

// FakeSSHServer is an in-process SSH server that only completes key
// exchange. It lets scanners read real host keys without network access.
type FakeSSHServer struct {
	Addr    string
	Signers []ssh.Signer

	ln net.Listener
	wg sync.WaitGroup
}

// NewEd25519Signer returns a fresh ed25519 host key.
func NewEd25519Signer(t *testing.T) ssh.Signer {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate ed25519 key: %v", err)
	}
	s, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		t.Fatalf("ed25519 signer: %v", err)
	}
	return s
}

// NewECDSASigner returns a fresh nistp256 host key.
func NewECDSASigner(t *testing.T) ssh.Signer {
	t.Helper()
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate ecdsa key: %v", err)
	}
	s, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		t.Fatalf("ecdsa signer: %v", err)
	}
	return s
}

// StartSSHServer listens on a loopback port with the given host keys. The
// server is shut down when the test finishes.
func StartSSHServer(t *testing.T, signers ...ssh.Signer) *FakeSSHServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	cfg := &ssh.ServerConfig{NoClientAuth: true}
	for _, s := range signers {
		cfg.AddHostKey(s)
	}

	srv := &FakeSSHServer{Addr: ln.Addr().String(), Signers: signers, ln: ln}
	srv.wg.Add(1)
	go func() {
		defer srv.wg.Done()
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			srv.wg.Add(1)
			go func() {
				defer srv.wg.Done()
				defer func() { _ = conn.Close() }()
				// Clients hang up during key exchange, so this always fails.
				_, _, _, _ = ssh.NewServerConn(conn, cfg)
			}()
		}
	}()

	t.Cleanup(func() {
		_ = ln.Close()
		srv.wg.Wait()
	})
	return srv
}

// KnownHostsLine renders the line a scanner should report for signer under
// the given host label.
func KnownHostsLine(label string, signer ssh.Signer) string {
	return label + " " + strings.TrimSpace(string(ssh.MarshalAuthorizedKey(signer.PublicKey())))
}
