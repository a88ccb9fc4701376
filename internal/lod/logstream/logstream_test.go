package logstream

import (
	"bytes"
	"strings"
	"testing"
)

func TestStreams_Routing(t *testing.T) {
	var ops, diag bytes.Buffer
	s := New("[test] ", &ops, &diag, nil)

	s.Opsf("dropped %d", 2)
	s.Diagf("built %s", "lod0")
	s.Tracef("not written")

	// The prefix leads the line; the timestamp sits between it and the
	// message.
	if got := ops.String(); !strings.HasPrefix(got, "[test] ") || !strings.Contains(got, "dropped 2") {
		t.Errorf("ops = %q", got)
	}
	if got := diag.String(); !strings.HasPrefix(got, "[test] ") || !strings.Contains(got, "built lod0") {
		t.Errorf("diag = %q", got)
	}
	if strings.Contains(ops.String()+diag.String(), "not written") {
		t.Error("trace line leaked into another stream")
	}
}

func TestStreams_ZeroValueDiscards(t *testing.T) {
	var s Streams
	s.Opsf("x")
	s.Diagf("x")
	s.Tracef("x")
}
