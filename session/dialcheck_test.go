package session

import (
	"testing"

	"github.com/sandia-minimega/phonesim/phonebook"
	"github.com/sandia-minimega/phonesim/variables"
)

func TestDialAllowedWhenFixedDiallingOff(t *testing.T) {
	g := &dialGuard{pb: phonebook.NewSet(), vars: variables.New(nil)}
	if !g.DialAllowed("4000") {
		t.Fatal("expected dial allowed with FD unset")
	}
}

func TestDialDeniedWhenNotInFDPhonebook(t *testing.T) {
	pb := phonebook.NewSet()
	pb.Ensure("FD", 5)
	g := &dialGuard{pb: pb, vars: variables.New(map[string]string{"FD": "1"})}
	if g.DialAllowed("4000") {
		t.Fatal("expected dial denied, number not in FD phonebook")
	}
}

func TestDialAllowedByFDPrefix(t *testing.T) {
	pb := phonebook.NewSet()
	fd := pb.Ensure("FD", 5)
	fd.Set(1, &phonebook.Entry{Number: "555"})
	g := &dialGuard{pb: pb, vars: variables.New(map[string]string{"FD": "1"})}
	if !g.DialAllowed("5551234") {
		t.Fatal("expected dial allowed, 5551234 starts with FD entry 555")
	}
}

func TestDialAllowedForEmergencyNumberRegardlessOfFD(t *testing.T) {
	pb := phonebook.NewSet()
	pb.Ensure("FD", 5)
	g := &dialGuard{pb: pb, vars: variables.New(map[string]string{"FD": "1"})}
	if !g.DialAllowed("112") {
		t.Fatal("expected emergency number 112 always allowed")
	}
}
