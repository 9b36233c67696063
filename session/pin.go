package session

import "strings"

// handlePIN implements AT+CPWD (§4.5): the facility code must be "SC"
// (the router's precedence names only this facility), the current PIN
// must match PINVALUE, and the new PIN must be 4 to 8 characters long
// before it is written.
func (s *Session) handlePIN(line string) (reply string, handled bool) {
	if !strings.HasPrefix(line, "AT+CPWD=") {
		return "", false
	}
	fields := splitQuotedCSV(strings.TrimPrefix(line, "AT+CPWD="))
	if len(fields) != 3 {
		return "ERROR", true
	}
	facility := unquote(fields[0])
	oldPIN := unquote(fields[1])
	newPIN := unquote(fields[2])

	if facility != "SC" {
		return "ERROR", true
	}
	if s.vars.Get("PINVALUE") != oldPIN {
		return "ERROR", true
	}
	if len(newPIN) < 4 || len(newPIN) > 8 {
		return "ERROR", true
	}
	s.vars.SetRaw("PINVALUE", newPIN)
	return "OK", true
}
