package session

import (
	"bufio"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/sandia-minimega/phonesim/profile"
)

func testProfile() *profile.Profile {
	p := &profile.Profile{
		States: map[string]*profile.State{},
		Variables: map[string]string{
			"PINVALUE": "1234",
			"PINNAME":  "READY",
		},
	}
	p.States["default"] = &profile.State{
		Name: "default",
		Items: []*profile.Item{
			{Chat: &profile.ChatItem{Command: "ATI", Response: "phonesim", EOL: true}},
		},
	}
	p.StartStateName = "default"
	return p
}

func newTestSessionPipe(t *testing.T) (*Session, net.Conn) {
	t.Helper()
	serverConn, clientConn := net.Pipe()
	s := New(serverConn, testProfile())
	go s.Run()
	t.Cleanup(func() {
		clientConn.Close()
	})
	return s, clientConn
}

func readLine(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	line, err := r.ReadString('\n')
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return strings.TrimRight(line, "\r\n")
}

func TestRuleEngineRoundTrip(t *testing.T) {
	_, client := newTestSessionPipe(t)
	client.SetDeadline(time.Now().Add(2 * time.Second))
	r := bufio.NewReader(client)

	if _, err := client.Write([]byte("ATI\r")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := readLine(t, r); got != "" {
		t.Fatalf("expected leading blank line, got %q", got)
	}
	if got := readLine(t, r); got != "phonesim" {
		t.Fatalf("got %q, want phonesim", got)
	}
}

func TestUnknownCommandIsError(t *testing.T) {
	_, client := newTestSessionPipe(t)
	client.SetDeadline(time.Now().Add(2 * time.Second))
	r := bufio.NewReader(client)

	client.Write([]byte("AT+BOGUS\r"))
	readLine(t, r) // leading blank
	if got := readLine(t, r); got != "ERROR" {
		t.Fatalf("got %q, want ERROR", got)
	}
}

func TestCPWDChangesPIN(t *testing.T) {
	s, client := newTestSessionPipe(t)
	client.SetDeadline(time.Now().Add(2 * time.Second))
	r := bufio.NewReader(client)

	client.Write([]byte(`AT+CPWD="SC","1234","5678"` + "\r"))
	readLine(t, r)
	if got := readLine(t, r); got != "OK" {
		t.Fatalf("got %q, want OK", got)
	}
	if s.vars.Get("PINVALUE") != "5678" {
		t.Fatalf("PINVALUE = %q, want 5678", s.vars.Get("PINVALUE"))
	}
}

func TestCPBSGatedOnPINReadiness(t *testing.T) {
	p := testProfile()
	p.Variables["PINNAME"] = "SIM PIN"
	serverConn, clientConn := net.Pipe()
	s := New(serverConn, p)
	go s.Run()
	t.Cleanup(func() { clientConn.Close() })

	client := clientConn
	client.SetDeadline(time.Now().Add(2 * time.Second))
	r := bufio.NewReader(client)

	client.Write([]byte("AT+CPBS?\r"))
	readLine(t, r)
	if got := readLine(t, r); got != "ERROR" {
		t.Fatalf("got %q, want ERROR before PINNAME is READY", got)
	}

	s.vars.SetRaw("PINNAME", "READY")
	client.Write([]byte("AT+CPBS?\r"))
	readLine(t, r)
	if got := readLine(t, r); got != `+CPBS: "SM",0,150` {
		t.Fatalf("got %q", got)
	}
	if got := readLine(t, r); got != "OK" {
		t.Fatalf("got %q, want OK", got)
	}
}

func TestCPBSDefaultsToSM(t *testing.T) {
	_, client := newTestSessionPipe(t)
	client.SetDeadline(time.Now().Add(2 * time.Second))
	r := bufio.NewReader(client)

	client.Write([]byte("AT+CPBS?\r"))
	readLine(t, r)
	if got := readLine(t, r); got != `+CPBS: "SM",0,150` {
		t.Fatalf("got %q", got)
	}
	if got := readLine(t, r); got != "OK" {
		t.Fatalf("got %q, want OK", got)
	}
}
