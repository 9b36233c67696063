package simtoolkit

import (
	"strings"
	"testing"

	"github.com/sandia-minimega/phonesim/variables"
)

func TestHandleCSIMNoCommaUnhandled(t *testing.T) {
	h := NewHandler()
	_, ok := h.HandleCSIM("bogus", variables.New(nil))
	if ok {
		t.Fatalf("expected unhandled without a comma")
	}
}

func TestHandleCSIMWrongLength(t *testing.T) {
	h := NewHandler()
	resp, ok := h.HandleCSIM("2,A000", variables.New(nil))
	if !ok {
		t.Fatalf("expected handled")
	}
	if !strings.Contains(resp, "6700") {
		t.Fatalf("resp = %q, want 6700 (wrong length)", resp)
	}
}

func TestHandleCSIMWrongClass(t *testing.T) {
	h := NewHandler()
	resp, _ := h.HandleCSIM("4,A1000000", variables.New(nil))
	if !strings.Contains(resp, "6800") {
		t.Fatalf("resp = %q, want 6800 (wrong class)", resp)
	}
}

func TestHandleCSIMStatus(t *testing.T) {
	h := NewHandler()
	resp, _ := h.HandleCSIM("4,A0F20000", variables.New(nil))
	if !strings.Contains(resp, "9000") {
		t.Fatalf("resp = %q, want 9000", resp)
	}
}

func TestTerminalResponseSuccessEmitsNoReply(t *testing.T) {
	h := NewHandler()
	// A0 14 00 00 01 <1 byte response payload>
	resp, ok := h.HandleCSIM("6,A014000001"+"90", variables.New(nil))
	if !ok {
		t.Fatalf("expected handled")
	}
	if resp != "" {
		t.Fatalf("resp = %q, want empty: app owns its own reply on success", resp)
	}
}

func TestTerminalResponseRejectionEmits6F00(t *testing.T) {
	h := NewHandler()
	h.SetApplication(ConformanceApp{})
	// Empty response payload: ConformanceApp.Response rejects it.
	resp, ok := h.HandleCSIM("5,A01400000"+"0", variables.New(nil))
	if !ok {
		t.Fatalf("expected handled")
	}
	if !strings.Contains(resp, "6F00") {
		t.Fatalf("resp = %q, want 6F00 (no proactive command)", resp)
	}
}

func TestUnblockCHVWrongPUK(t *testing.T) {
	h := NewHandler()
	vars := variables.New(map[string]string{"PUKVALUE": "12345678", "PINVALUE": "0000"})
	// A0 2C 00 01 10 <8 byte puk, wrong><8 byte new pin, 0xFF padded>
	apdu := "A02C000110" + "3030303030303030" + "31313131FFFFFFFF"
	resp, _ := h.HandleCSIM("21,"+apdu, vars)
	if !strings.Contains(resp, "9804") {
		t.Fatalf("resp = %q, want 9804 (unblock wrong puk)", resp)
	}
	if vars.Get("PINVALUE") != "0000" {
		t.Fatalf("PINVALUE must not change on a failed unblock")
	}
}

func TestUnblockCHVCorrectPUK(t *testing.T) {
	h := NewHandler()
	vars := variables.New(map[string]string{"PUKVALUE": "12345678", "PINVALUE": "0000"})
	pukHex := "3132333435363738"  // "12345678"
	pinHex := "31313131FFFFFFFF" // "1111" padded
	apdu := "A02C000110" + pukHex + pinHex
	resp, _ := h.HandleCSIM("21,"+apdu, vars)
	if !strings.Contains(resp, "9000") {
		t.Fatalf("resp = %q, want 9000", resp)
	}
	if vars.Get("PINVALUE") != "1111" {
		t.Fatalf("PINVALUE = %q, want 1111", vars.Get("PINVALUE"))
	}
}
