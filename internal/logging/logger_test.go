package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestLogger_FiltersBelowMinimum(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, SeverityWarn)
	l.Infof("hidden %d", 1)
	l.Warnf("shown %d", 2)
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info message should be filtered, got %q", out)
	}
	if !strings.Contains(out, "[warn] shown 2") {
		t.Fatalf("expected warn line, got %q", out)
	}
}

func TestLogger_WithNestsComponents(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, SeverityDebug).With("coordinator").With("drag")
	l.Debugf("blocker=%s", "t1")
	if !strings.Contains(buf.String(), "coordinator.drag: blocker=t1") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestLogger_NilIsSafe(t *testing.T) {
	var l *Logger
	l.Errorf("no panic")
	if l.With("x") != nil {
		t.Fatal("With on nil logger should stay nil")
	}
}

func TestParseSeverity(t *testing.T) {
	cases := map[string]Severity{
		"debug":   SeverityDebug,
		"":        SeverityInfo,
		"WARNING": SeverityWarn,
		"error":   SeverityError,
	}
	for in, want := range cases {
		got, err := ParseSeverity(in)
		if err != nil || got != want {
			t.Errorf("ParseSeverity(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseSeverity("loud"); err == nil {
		t.Error("expected error for unknown severity")
	}
}
