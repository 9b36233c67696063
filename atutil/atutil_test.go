package atutil

import "testing"

func TestSwizzleRoundTrip(t *testing.T) {
	cases := []string{"5551234", "123", "12345678"}
	for _, num := range cases {
		got := Unswizzle(Swizzle(num))
		if got != num {
			t.Fatalf("swizzle round trip: got %q, want %q", got, num)
		}
	}
}

func TestExpandEscapesCRLF(t *testing.T) {
	got := string(ExpandEscapes("OK\\n"))
	want := "OK\r\n"
	if got != want {
		t.Fatalf("ExpandEscapes(%q) = %q, want %q", "OK\\n", got, want)
	}
}

func TestExpandEscapesDropsBareCR(t *testing.T) {
	got := string(ExpandEscapes("a\\rb"))
	if got != "ab" {
		t.Fatalf("ExpandEscapes with bare \\r = %q, want %q", got, "ab")
	}
}

func TestCRCDeterministic(t *testing.T) {
	a := CRC(0x03, 0x3F, 0x01)
	b := CRC(0x03, 0x3F, 0x01)
	if a != b {
		t.Fatalf("CRC not deterministic: %x != %x", a, b)
	}
}

func TestFromHexOddLength(t *testing.T) {
	b, err := FromHex("abc")
	if err != nil {
		t.Fatalf("FromHex: %v", err)
	}
	if len(b) != 2 {
		t.Fatalf("FromHex(%q) len = %d, want 2", "abc", len(b))
	}
}
