package session

import "strings"

// dispatch implements the command router's fixed precedence: call
// manager first (so an in-progress dial/hangup always wins over a rule
// that happens to shadow ATD), then the AID application wrapper (if one
// is installed), then the SIM toolkit sub-protocol, then the rule engine
// against the active state (falling back to the default state once),
// and finally the structural AT commands the rule profile does not
// express (phonebook, PIN change, CMUX) before giving up with a bare
// ERROR.
func (s *Session) dispatch(line string, channel int) {
	if reply, unsolicited, handled := s.callMgr.Command(line); handled {
		s.respondRaw(reply, channel)
		for _, u := range unsolicited {
			s.respondRaw(u, channel)
		}
		return
	}

	if s.aid != nil {
		if reply, handled := s.aid.Command(line); handled {
			if reply != "" {
				s.respondRaw(reply, channel)
			}
			return
		}
	}

	if reply, handled := s.dispatchSimToolkit(line); handled {
		s.notifyModemHandled(line)
		if reply != "" {
			s.respondRaw(reply, channel)
		}
		return
	}

	if s.eng.Dispatch(line, channel) {
		return
	}

	if reply, handled := s.handlePhonebook(line); handled {
		s.respondRaw(reply, channel)
		return
	}

	if reply, handled := s.handlePIN(line); handled {
		s.respondRaw(reply, channel)
		return
	}

	if reply, handled := s.handleCMUX(line); handled {
		s.respondRaw(reply, channel)
		// AT+CMUX= is acknowledged in raw mode; framing starts afterwards.
		if strings.HasPrefix(line, "AT+CMUX=") {
			s.codec.Enabled = true
		}
		return
	}

	s.respondRaw("ERROR", channel)
}

func (s *Session) dispatchSimToolkit(line string) (reply string, handled bool) {
	switch {
	case strings.HasPrefix(line, "AT+CSIM="):
		return s.toolkit.HandleCSIM(strings.TrimPrefix(line, "AT+CSIM="), s.vars)
	case strings.HasPrefix(line, "AT+CUSATT="):
		hexArg := unquote(strings.TrimPrefix(line, "AT+CUSATT="))
		if s.toolkit.HandleCUSATT(hexArg) {
			return "OK", true
		}
		return "ERROR", true
	case strings.HasPrefix(line, "AT+CUSATE="):
		hexArg := unquote(strings.TrimPrefix(line, "AT+CUSATE="))
		if s.toolkit.HandleCUSATE(hexArg) {
			return "OK", true
		}
		return "ERROR", true
	}
	return "", false
}

func (s *Session) handleCMUX(line string) (reply string, handled bool) {
	switch {
	case strings.HasPrefix(line, "AT+CMUX="):
		return "OK", true
	case line == "AT+CMUX?":
		state := 0
		if s.codec.Enabled {
			state = 1
		}
		return "+CMUX: " + itoa(state) + "\nOK", true
	}
	return "", false
}
