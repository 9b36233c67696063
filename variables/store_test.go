package variables

import "testing"

func TestExpandUnknownIsEmpty(t *testing.T) {
	s := New(nil)
	if got := s.Expand("x${nope}y"); got != "xy" {
		t.Fatalf("Expand with unknown var = %q, want %q", got, "xy")
	}
}

func TestExpandIdempotent(t *testing.T) {
	s := New(map[string]string{"A": "hello"})
	once := s.Expand("${A} world")
	twice := s.Expand(once)
	if once != twice {
		t.Fatalf("expand not idempotent: %q != %q", once, twice)
	}
}

func TestSetExpandsAtWriteTime(t *testing.T) {
	s := New(map[string]string{"A": "1"})
	s.Set("B", "${A}2")
	if got := s.Get("B"); got != "12" {
		t.Fatalf("Get(B) = %q, want %q", got, "12")
	}
	// mutating A afterward must not retroactively change B
	s.Set("A", "9")
	if got := s.Get("B"); got != "12" {
		t.Fatalf("B changed after A was mutated: got %q", got)
	}
}

func TestGetNeverExpands(t *testing.T) {
	s := New(nil)
	s.SetRaw("RAW", "${A}")
	if got := s.Get("RAW"); got != "${A}" {
		t.Fatalf("Get must not expand: got %q", got)
	}
}
