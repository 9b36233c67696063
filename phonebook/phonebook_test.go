package phonebook

import "testing"

func TestWriteReadRoundTrip(t *testing.T) {
	pb := New("SM", 10)
	e := &Entry{Number: "5551234", Name: "Alice", Hidden: HiddenUnset}
	if !pb.Set(3, e) {
		t.Fatalf("Set(3) failed")
	}
	got, ok := pb.Entry(3)
	if !ok || got.Number != "5551234" || got.Name != "Alice" {
		t.Fatalf("Entry(3) = %+v, ok=%v", got, ok)
	}
}

func TestSetOutOfRange(t *testing.T) {
	pb := New("SM", 5)
	if pb.Set(0, &Entry{Number: "1"}) {
		t.Fatalf("Set(0) should fail")
	}
	if pb.Set(6, &Entry{Number: "1"}) {
		t.Fatalf("Set(6) should fail on a size-5 book")
	}
}

func TestValidateLengths(t *testing.T) {
	ok := Entry{Number: "123", Name: "0123456789abcdef"} // 16 chars, at cap
	if err := ValidateLengths(ok); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bad := Entry{Number: "123", Name: "0123456789abcdefg"} // 17 chars
	if err := ValidateLengths(bad); err == nil {
		t.Fatalf("expected name-too-long error")
	}
}

func TestRangeSkipsEmptyAndOutOfBounds(t *testing.T) {
	pb := New("SM", 5)
	pb.Set(1, &Entry{Number: "1"})
	pb.Set(3, &Entry{Number: "3"})
	var seen []int
	pb.Range(1, 10, func(idx int, e Entry) {
		seen = append(seen, idx)
	})
	if len(seen) != 2 || seen[0] != 1 || seen[1] != 3 {
		t.Fatalf("Range returned %v, want [1 3]", seen)
	}
}

func TestSetCurrent(t *testing.T) {
	s := NewSet()
	if s.CurrentName() != "SM" {
		t.Fatalf("default current = %q, want SM", s.CurrentName())
	}
	if s.SetCurrent("FD") {
		t.Fatalf("SetCurrent should fail before FD exists")
	}
	s.Ensure("FD", 10)
	if !s.SetCurrent("FD") {
		t.Fatalf("SetCurrent(FD) should succeed once ensured")
	}
}
