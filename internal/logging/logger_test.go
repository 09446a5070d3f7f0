package logging

import (
	"bytes"
	"strings"
	"testing"
)

// TestLoggingHelpers_WriteToBuffer verifies the helpers write formatted
// messages to the package-level logger.
func TestLoggingHelpers_WriteToBuffer(t *testing.T) {
	var buf bytes.Buffer
	prev := L
	SetOutput(&buf)
	SetDebug(true)
	defer func() { L = prev }()

	Debugf("hello %s", "dbg")
	Infof("info %d", 1)
	Warnf("warn")
	Errorf("err %v", "E")

	out := buf.String()
	for _, want := range []string{"hello dbg", "info 1", "warn", "err E"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in output: %s", want, out)
		}
	}
}

func TestSetDebug_FalseSuppressesDebug(t *testing.T) {
	var buf bytes.Buffer
	prev := L
	SetOutput(&buf)
	SetDebug(false)
	defer func() { L = prev }()

	Debugf("hidden")
	Infof("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug output leaked: %s", out)
	}
	if !strings.Contains(out, "shown") {
		t.Fatalf("info output missing: %s", out)
	}
}
