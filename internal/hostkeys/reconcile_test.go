package hostkeys_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/toeirei/keymaster-knownhosts/internal/hostkeys"
)

func TestReconcile_NewHost(t *testing.T) {
	res, err := hostkeys.Reconcile("host1", []string{"alt1"}, nil, []string{"host1 ssh-rsa AAA"})
	if err != nil {
		t.Fatalf("Reconcile error: %v", err)
	}
	if !res.Changed {
		t.Fatalf("expected Changed")
	}
	if !slices.Equal(res.Lines, []string{"host1,alt1 ssh-rsa AAA"}) {
		t.Fatalf("unexpected lines: %q", res.Lines)
	}
	if len(res.Added) != 1 || len(res.Replaced) != 0 {
		t.Fatalf("unexpected bookkeeping: %+v", res)
	}
}

func TestReconcile_UnchangedKey(t *testing.T) {
	store := []string{"host1,alt1 ssh-rsa AAA"}
	res, err := hostkeys.Reconcile("host1", []string{"alt1"}, store, []string{"host1 ssh-rsa AAA"})
	if err != nil {
		t.Fatalf("Reconcile error: %v", err)
	}
	if res.Changed {
		t.Fatalf("expected no change, got %q", res.Lines)
	}
	if !slices.Equal(res.Lines, store) {
		t.Fatalf("store should be untouched: %q", res.Lines)
	}
	if len(res.Unchanged) != 1 {
		t.Fatalf("expected one unchanged record, got %d", len(res.Unchanged))
	}
}

func TestReconcile_KeyRotation(t *testing.T) {
	res, err := hostkeys.Reconcile("host1", nil, []string{"host1 ssh-rsa AAA"}, []string{"host1 ssh-rsa BBB"})
	if err != nil {
		t.Fatalf("Reconcile error: %v", err)
	}
	if !res.Changed || !slices.Equal(res.Lines, []string{"host1 ssh-rsa BBB"}) {
		t.Fatalf("unexpected result: changed=%v lines=%q", res.Changed, res.Lines)
	}
	if len(res.Replaced) != 1 || res.Replaced[0].Key != "AAA" {
		t.Fatalf("expected AAA to be replaced, got %+v", res.Replaced)
	}
}

func TestReconcile_AliasChangeRewritesLine(t *testing.T) {
	store := []string{"host1 ssh-rsa AAA", "other ssh-rsa DDD"}
	res, err := hostkeys.Reconcile("host1", []string{"alt1"}, store, []string{"host1 ssh-rsa AAA"})
	if err != nil {
		t.Fatalf("Reconcile error: %v", err)
	}
	want := []string{"other ssh-rsa DDD", "host1,alt1 ssh-rsa AAA"}
	if !res.Changed || !slices.Equal(res.Lines, want) {
		t.Fatalf("got %q, want %q", res.Lines, want)
	}
}

func TestReconcile_UsesCallerHostNotScannedName(t *testing.T) {
	store := []string{"host1 ssh-ed25519 CCC"}
	res, err := hostkeys.Reconcile("host1", nil, store, []string{"[host1]:2222 ssh-ed25519 CCC"})
	if err != nil {
		t.Fatalf("Reconcile error: %v", err)
	}
	if res.Changed {
		t.Fatalf("scanned name should be replaced by caller host; got %q", res.Lines)
	}
}

func TestReconcile_PreservesUnrelatedLinesVerbatim(t *testing.T) {
	store := []string{"a   ssh-rsa  X   comment here", "host1 ssh-rsa AAA", "b ssh-rsa Y"}
	res, err := hostkeys.Reconcile("host1", nil, store, []string{"host1 ssh-rsa BBB"})
	if err != nil {
		t.Fatalf("Reconcile error: %v", err)
	}
	want := []string{"a   ssh-rsa  X   comment here", "b ssh-rsa Y", "host1 ssh-rsa BBB"}
	if !slices.Equal(res.Lines, want) {
		t.Fatalf("got %q, want %q", res.Lines, want)
	}
}

func TestReconcile_OnlyFirstDuplicateIsTouched(t *testing.T) {
	store := []string{"host1 ssh-rsa OLD1", "host1 ssh-rsa OLD2"}
	res, err := hostkeys.Reconcile("host1", nil, store, []string{"host1 ssh-rsa NEW"})
	if err != nil {
		t.Fatalf("Reconcile error: %v", err)
	}
	want := []string{"host1 ssh-rsa OLD2", "host1 ssh-rsa NEW"}
	if !slices.Equal(res.Lines, want) {
		t.Fatalf("got %q, want %q", res.Lines, want)
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	scan := []string{"host1 ssh-rsa AAA", "host1 ssh-ed25519 CCC", "host1 ecdsa-sha2-nistp256 EEE"}
	store := []string{"other ssh-rsa DDD", "host1 ssh-rsa OLD"}

	first, err := hostkeys.Reconcile("host1", []string{"alt1", "10.0.0.1"}, store, scan)
	if err != nil || !first.Changed {
		t.Fatalf("first run: changed=%v err=%v", first.Changed, err)
	}
	second, err := hostkeys.Reconcile("host1", []string{"alt1", "10.0.0.1"}, first.Lines, scan)
	if err != nil {
		t.Fatalf("second run error: %v", err)
	}
	if second.Changed {
		t.Fatalf("second run should be a no-op, got %q", second.Lines)
	}
	if !slices.Equal(second.Lines, first.Lines) {
		t.Fatalf("store differs after second run")
	}
}

func TestReconcile_ContinuesPastUnchangedRecordByDefault(t *testing.T) {
	store := []string{"host1 ssh-rsa AAA", "host1 ssh-ed25519 OLD"}
	scan := []string{"host1 ssh-rsa AAA", "host1 ssh-ed25519 NEW"}
	res, err := hostkeys.Reconcile("host1", nil, store, scan)
	if err != nil {
		t.Fatalf("Reconcile error: %v", err)
	}
	want := []string{"host1 ssh-rsa AAA", "host1 ssh-ed25519 NEW"}
	if !res.Changed || !slices.Equal(res.Lines, want) {
		t.Fatalf("got %q, want %q", res.Lines, want)
	}
	if res.Skipped != 0 {
		t.Fatalf("expected nothing skipped, got %d", res.Skipped)
	}
}

func TestReconcile_StopOnMatchEndsPass(t *testing.T) {
	store := []string{"host1 ssh-rsa AAA", "host1 ssh-ed25519 OLD"}
	scan := []string{"host1 ssh-rsa AAA", "host1 ssh-ed25519 NEW"}
	res, err := hostkeys.Reconcile("host1", nil, store, scan, hostkeys.WithStopOnMatch(true))
	if err != nil {
		t.Fatalf("Reconcile error: %v", err)
	}
	if res.Changed {
		t.Fatalf("expected pass to stop before the ed25519 record, got %q", res.Lines)
	}
	if res.Skipped != 1 {
		t.Fatalf("expected 1 skipped record, got %d", res.Skipped)
	}
}

func TestReconcile_StopOnMatchKeepsEarlierChanges(t *testing.T) {
	store := []string{"host1 ssh-rsa AAA"}
	scan := []string{"host1 ssh-ed25519 NEW", "host1 ssh-rsa AAA", "host1 ecdsa-sha2-nistp256 E"}
	res, err := hostkeys.Reconcile("host1", nil, store, scan, hostkeys.WithStopOnMatch(true))
	if err != nil {
		t.Fatalf("Reconcile error: %v", err)
	}
	want := []string{"host1 ssh-rsa AAA", "host1 ssh-ed25519 NEW"}
	if !res.Changed || !slices.Equal(res.Lines, want) {
		t.Fatalf("got %q, want %q", res.Lines, want)
	}
}

func TestReconcile_MalformedStoreLine(t *testing.T) {
	store := []string{"host1 ssh-rsa AAA", "host2 ssh-rsa"}
	res, err := hostkeys.Reconcile("host1", nil, store, []string{"host1 ssh-rsa BBB"})
	if !errors.Is(err, hostkeys.ErrMalformedLine) {
		t.Fatalf("expected ErrMalformedLine, got %v", err)
	}
	if res.Changed || res.Lines != nil {
		t.Fatalf("no result expected on error, got %+v", res)
	}
}

func TestReconcile_MalformedScanLine(t *testing.T) {
	_, err := hostkeys.Reconcile("host1", nil, nil, []string{"host1 ssh-rsa AAA", "garbage"})
	var mle *hostkeys.MalformedLineError
	if !errors.As(err, &mle) || mle.Source != "scan" || mle.Num != 2 {
		t.Fatalf("expected scan line 2 MalformedLineError, got %v", err)
	}
}

func TestReconcile_DoesNotMutateInput(t *testing.T) {
	store := []string{"host1 ssh-rsa AAA", "other ssh-rsa DDD"}
	orig := slices.Clone(store)
	if _, err := hostkeys.Reconcile("host1", nil, store, []string{"host1 ssh-rsa BBB"}); err != nil {
		t.Fatalf("Reconcile error: %v", err)
	}
	if !slices.Equal(store, orig) {
		t.Fatalf("input slice mutated: %q", store)
	}
}
