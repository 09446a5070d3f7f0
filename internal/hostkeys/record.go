// Copyright (c) 2026 Keymaster Team
// Keymaster - SSH key management system
// This source code is licensed under the MIT license found in the LICENSE file.

package hostkeys

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrMalformedLine is matched by every MalformedLineError.
var ErrMalformedLine = errors.New("malformed known_hosts line")

// MalformedLineError reports a line that does not split into the
// `host[,alias...] key-type key-material` shape.
type MalformedLineError struct {
	// Source names where the line came from ("store" or "scan"). May be empty.
	Source string
	// Num is the 1-based line number, or 0 when unknown.
	Num    int
	Line   string
	Fields int
}

func (e *MalformedLineError) Error() string {
	where := "line"
	if e.Source != "" {
		where = e.Source + " line"
	}
	if e.Num > 0 {
		where = fmt.Sprintf("%s %d", where, e.Num)
	}
	return fmt.Sprintf("%s: expected 3 fields, got %d: %q", where, e.Fields, e.Line)
}

func (e *MalformedLineError) Unwrap() error { return ErrMalformedLine }

// Record is one parsed known_hosts entry.
type Record struct {
	Host    string
	Aliases []string
	KeyType string
	Key     string
}

// Parse splits a known_hosts or ssh-keyscan line into a Record. Fields after
// the key material (comments) are ignored.
func Parse(line string) (Record, error) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return Record{}, &MalformedLineError{Line: line, Fields: len(fields)}
	}
	names := strings.Split(fields[0], ",")
	return Record{
		Host:    names[0],
		Aliases: names[1:],
		KeyType: fields[1],
		Key:     fields[2],
	}, nil
}

// Format renders a canonical known_hosts line.
func Format(host string, aliases []string, keyType, key string) string {
	var b strings.Builder
	b.WriteString(host)
	for _, a := range aliases {
		b.WriteByte(',')
		b.WriteString(a)
	}
	b.WriteByte(' ')
	b.WriteString(keyType)
	b.WriteByte(' ')
	b.WriteString(key)
	return b.String()
}

// String returns the record in known_hosts line format.
func (r Record) String() string {
	return Format(r.Host, r.Aliases, r.KeyType, r.Key)
}

// Names returns the host followed by its aliases.
func (r Record) Names() []string {
	return append([]string{r.Host}, r.Aliases...)
}

// HasName reports whether name is the record's host or one of its aliases.
func (r Record) HasName(name string) bool {
	return r.Host == name || slices.Contains(r.Aliases, name)
}

// Same reports whether the key material and the alias list are identical.
// Alias order is significant.
func (r Record) Same(other Record) bool {
	return r.Key == other.Key && slices.Equal(r.Aliases, other.Aliases)
}

// parseAll parses every line, annotating failures with source and line number.
func parseAll(source string, lines []string) ([]Record, error) {
	out := make([]Record, 0, len(lines))
	for i, line := range lines {
		rec, err := Parse(line)
		if err != nil {
			var mle *MalformedLineError
			if errors.As(err, &mle) {
				mle.Source = source
				mle.Num = i + 1
			}
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
