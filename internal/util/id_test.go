package util

import (
	"strings"
	"testing"
)

func TestRandomHexLength(t *testing.T) {
	if got := RandomHex(4); len(got) != 8 {
		t.Fatalf("RandomHex(4) = %q, want 8 chars", got)
	}
}

func TestNewID(t *testing.T) {
	a, b := NewID("rt"), NewID("rt")
	if a == b {
		t.Fatal("NewID() returned duplicate ids")
	}
	if !strings.HasPrefix(a, "rt_") || len(a) != len("rt_")+32 {
		t.Fatalf("NewID(rt) = %q", a)
	}
	if got := NewID(""); len(got) != 32 {
		t.Fatalf("NewID(\"\") = %q", got)
	}
}
