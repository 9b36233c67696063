package session

import (
	"strings"

	"github.com/sandia-minimega/phonesim/phonebook"
	"github.com/sandia-minimega/phonesim/variables"
)

// emergencyNumbers is always dialable regardless of the Fixed-Dialling
// guard (§4.9).
var emergencyNumbers = map[string]bool{
	"112": true,
	"911": true,
	"08":  true,
	"000": true,
}

// dialGuard implements callmgr.DialChecker on top of the phonebook set:
// the fixed-dialling guard (§4.9) only restricts dialling once the
// profile/peer has set FD=1, and then only numbers prefixed by an entry
// in the "FD" phonebook (or an emergency number) are permitted.
type dialGuard struct {
	pb   *phonebook.Set
	vars *variables.Store
}

func (g *dialGuard) DialAllowed(number string) bool {
	if emergencyNumbers[number] {
		return true
	}
	if g.vars.Get("FD") != "1" {
		return true
	}
	fd, ok := g.pb.Get("FD")
	if !ok {
		return false
	}
	allowed := false
	fd.Range(1, fd.Size, func(_ int, e phonebook.Entry) {
		if strings.HasPrefix(number, e.Number) {
			allowed = true
		}
	})
	return allowed
}
