// Copyright (c) 2026 Keymaster Team
// Keymaster - SSH key management system
// This source code is licensed under the MIT license found in the LICENSE file.

package scan

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/toeirei/keymaster-knownhosts/internal/logging"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// DefaultNativeTimeout matches ssh-keyscan's default of five seconds.
const DefaultNativeTimeout = 5 * time.Second

// keyTypeAliases maps ssh-keyscan -t names to host key algorithms.
var keyTypeAliases = map[string][]string{
	"rsa":     {ssh.KeyAlgoRSASHA512},
	"ecdsa":   {ssh.KeyAlgoECDSA256, ssh.KeyAlgoECDSA384, ssh.KeyAlgoECDSA521},
	"ed25519": {ssh.KeyAlgoED25519},
}

var defaultKeyTypes = []string{"rsa", "ecdsa", "ed25519"}

// errKeyCaptured aborts the handshake once the host key has been seen.
var errKeyCaptured = errors.New("host key captured")

// NativeScanner fetches host keys by running one SSH key exchange per host
// key algorithm and stopping as soon as the server has presented its key.
// It never authenticates.
type NativeScanner struct {
	Port    int
	Types   []string
	Timeout time.Duration
	// Dial opens the TCP connection. Nil uses a net.Dialer.
	Dial func(ctx context.Context, network, addr string) (net.Conn, error)
}

// ParseNativeOpts reads the ssh-keyscan options the native scanner
// understands: -p port, -t type[,type...] and -T timeout-seconds.
func ParseNativeOpts(opts string) (*NativeScanner, error) {
	fs := pflag.NewFlagSet(BuiltinCommand, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	port := fs.IntP("port", "p", 22, "port to connect to")
	types := fs.StringP("type", "t", "", "key types to fetch")
	timeout := fs.IntP("timeout", "T", 0, "timeout in seconds")

	if err := fs.Parse(strings.Fields(opts)); err != nil {
		return nil, fmt.Errorf("builtin scanner options %q: %w", opts, err)
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("builtin scanner options %q: unexpected arguments %v", opts, fs.Args())
	}

	s := &NativeScanner{Port: *port, Timeout: time.Duration(*timeout) * time.Second}
	if *types != "" {
		s.Types = strings.Split(*types, ",")
	}
	return s, nil
}

// algorithms expands the configured key types into host key algorithms.
func (s *NativeScanner) algorithms() []string {
	types := s.Types
	if len(types) == 0 {
		types = defaultKeyTypes
	}
	var out []string
	for _, t := range types {
		if algos, ok := keyTypeAliases[t]; ok {
			out = append(out, algos...)
			continue
		}
		out = append(out, t)
	}
	return out
}

func (s *NativeScanner) address(host string) string {
	if _, _, err := net.SplitHostPort(host); err == nil {
		return host
	}
	port := s.Port
	if port == 0 {
		port = 22
	}
	return net.JoinHostPort(strings.Trim(host, "[]"), strconv.Itoa(port))
}

func (s *NativeScanner) Scan(ctx context.Context, host string) ([]string, error) {
	addr := s.address(host)
	label := knownhosts.Normalize(addr)

	var lines []string
	seen := map[string]bool{}
	for _, algo := range s.algorithms() {
		key, err := s.fetch(ctx, addr, algo)
		if err != nil {
			var de *dialError
			if errors.As(err, &de) {
				return nil, &InvocationError{Scanner: BuiltinCommand, Host: host, Err: de.err}
			}
			logging.Debugf("scan: %s does not offer %s: %v", addr, algo, err)
			continue
		}
		line := fmt.Sprintf("%s %s %s", label, key.Type(), base64.StdEncoding.EncodeToString(key.Marshal()))
		if seen[line] {
			continue
		}
		seen[line] = true
		lines = append(lines, line)
	}

	if len(lines) == 0 {
		return nil, &InvocationError{Scanner: BuiltinCommand, Host: host, Err: errors.New("no host keys received")}
	}
	return lines, nil
}

type dialError struct{ err error }

func (e *dialError) Error() string { return e.err.Error() }

// fetch performs a single handshake offering only algo.
func (s *NativeScanner) fetch(ctx context.Context, addr, algo string) (ssh.PublicKey, error) {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultNativeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	dial := s.Dial
	if dial == nil {
		var d net.Dialer
		dial = d.DialContext
	}
	conn, err := dial(ctx, "tcp", addr)
	if err != nil {
		return nil, &dialError{err: err}
	}
	defer func() { _ = conn.Close() }()
	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}

	var captured ssh.PublicKey
	config := &ssh.ClientConfig{
		User:              "knownhosts-probe",
		HostKeyAlgorithms: []string{algo},
		HostKeyCallback: func(_ string, _ net.Addr, key ssh.PublicKey) error {
			captured = key
			return errKeyCaptured
		},
		Timeout: timeout,
	}

	c, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err == nil {
		_ = ssh.NewClient(c, chans, reqs).Close()
	}
	if captured != nil {
		return captured, nil
	}
	if err == nil {
		err = errors.New("handshake finished without a host key")
	}
	return nil, err
}
