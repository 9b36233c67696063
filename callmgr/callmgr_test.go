package callmgr

import "testing"

type allowAllChecker struct{}

func (allowAllChecker) DialAllowed(string) bool { return true }

type denyChecker struct{ denied string }

func (d denyChecker) DialAllowed(number string) bool { return number != d.denied }

func TestDialAllocatesCallAndReportsCEND(t *testing.T) {
	m := New(allowAllChecker{})
	reply, unsolicited, handled := m.Command("ATD5551234567;")
	if !handled {
		t.Fatal("expected ATD to be handled")
	}
	if reply != "OK" {
		t.Fatalf("reply = %q, want OK", reply)
	}
	if len(unsolicited) != 1 {
		t.Fatalf("unsolicited = %v, want one ^CEND line", unsolicited)
	}
}

func TestDialDeniedByCheckerReturnsError(t *testing.T) {
	m := New(denyChecker{denied: "5551234567"})
	reply, _, handled := m.Command("ATD5551234567;")
	if !handled || reply != "ERROR" {
		t.Fatalf("reply = %q, handled = %v, want ERROR/true", reply, handled)
	}
}

func TestHangupAllReleasesCallIds(t *testing.T) {
	m := New(allowAllChecker{})
	m.Command("ATD111;")
	m.Command("ATD222;")
	reply, _, handled := m.Command("ATH")
	if !handled || reply != "OK" {
		t.Fatalf("reply = %q, handled = %v", reply, handled)
	}
	if got := m.listCalls(); got != "OK" {
		t.Fatalf("listCalls() = %q, want OK after hangup", got)
	}
}

func TestAnswerActivatesIncomingCall(t *testing.T) {
	m := New(allowAllChecker{})
	unsolicited := m.IncomingCall("5559876543")
	if len(unsolicited) != 2 || unsolicited[0] != "RING" {
		t.Fatalf("IncomingCall unsolicited = %v", unsolicited)
	}
	reply, _, handled := m.Command("ATA")
	if !handled || reply != "OK" {
		t.Fatalf("ATA reply = %q, handled = %v", reply, handled)
	}
}

func TestNotifyFiresOnAnswerAndHangup(t *testing.T) {
	var events []byte
	m := New(allowAllChecker{})
	m.Notify = func(evt []byte) { events = append(events, evt[0]) }

	m.IncomingCall("222")
	m.Command("ATA")
	m.Command("ATH")

	if len(events) != 2 {
		t.Fatalf("events = %v, want 2 (A, H)", events)
	}
	if events[0] != 'A' || events[1] != 'H' {
		t.Fatalf("events = %v, want A,H", string(events))
	}
}

func TestParseCLCCIndex(t *testing.T) {
	id, err := ParseCLCCIndex("+CLCC: 2,0,0,0,0,\"5551234567\",129")
	if err != nil {
		t.Fatalf("ParseCLCCIndex: %v", err)
	}
	if id != 2 {
		t.Fatalf("id = %d, want 2", id)
	}
}
