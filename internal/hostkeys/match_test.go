package hostkeys

import "testing"

func mustParseAll(t *testing.T, lines ...string) []Record {
	t.Helper()
	recs, err := parseAll("test", lines)
	if err != nil {
		t.Fatalf("parseAll: %v", err)
	}
	return recs
}

func TestFindMatch(t *testing.T) {
	store := mustParseAll(t,
		"other ssh-rsa X",
		"host1,alt1 ssh-rsa AAA",
		"host1 ssh-ed25519 CCC",
		"host1 ssh-rsa DUP",
	)

	tests := []struct {
		name    string
		scanned Record
		want    int
	}{
		{"first occurrence wins", Record{Host: "host1", KeyType: "ssh-rsa"}, 1},
		{"other key type", Record{Host: "host1", KeyType: "ssh-ed25519"}, 2},
		{"absent type", Record{Host: "host1", KeyType: "ecdsa-sha2-nistp256"}, NotFound},
		{"absent host", Record{Host: "nobody", KeyType: "ssh-rsa"}, NotFound},
		{"alias is not a host", Record{Host: "alt1", KeyType: "ssh-rsa"}, NotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := FindMatch(tc.scanned, store); got != tc.want {
				t.Fatalf("FindMatch = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestFindMatch_EmptyStore(t *testing.T) {
	if got := FindMatch(Record{Host: "h", KeyType: "t"}, nil); got != NotFound {
		t.Fatalf("expected NotFound, got %d", got)
	}
}
