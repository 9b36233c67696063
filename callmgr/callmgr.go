// Package callmgr provides the default call-manager collaborator: ATD,
// ATH, ATA, AT+CLCC, AT+CHUP, backed by its own call id bitset (separate
// from the one the rule engine allocates from) and a pluggable dial-check
// guard.
package callmgr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sandia-minimega/phonesim/callid"
)

// Call states, named the way AT+CLCC reports them (3GPP 27.007 7.18).
const (
	StateActive  = 0
	StateHeld    = 1
	StateDialing = 2
	StateAlerting = 3
	StateIncoming = 4
	StateWaiting  = 5
)

// Call is one tracked call leg.
type Call struct {
	ID     int
	Number string
	State  int
	MO     bool // mobile-originated
}

// DialChecker is consulted before ATD places a call, implementing the
// fixed-dialling guard (a session wires its phonebook-backed checker in).
type DialChecker interface {
	DialAllowed(number string) bool
}

// Manager is the default CallManager collaborator.
type Manager struct {
	ids     *callid.Bitset
	calls   map[int]*Call
	checker DialChecker

	// Notify, if set, is invoked with a small call-control event payload
	// on dial/answer/hangup, the hook the session uses for the *TCC:
	// debug notification (callControlEventNotify in the original).
	Notify func(evt []byte)
}

// New returns an empty call manager. checker may be nil, in which case
// every dial is permitted.
func New(checker DialChecker) *Manager {
	return &Manager{
		ids:     callid.New(),
		calls:   map[int]*Call{},
		checker: checker,
	}
}

func (m *Manager) notify(kind byte, id int) {
	if m.Notify != nil {
		m.Notify([]byte{kind, byte(id)})
	}
}

// Command attempts to handle one AT command line as a call-control
// command. handled is false if the line is not one of ATD/ATH/ATA/
// AT+CLCC/AT+CHUP, in which case the router tries the next collaborator.
func (m *Manager) Command(line string) (reply string, unsolicited []string, handled bool) {
	switch {
	case strings.HasPrefix(line, "ATD"):
		return m.dial(line)
	case line == "ATH" || strings.HasPrefix(line, "AT+CHUP"):
		m.hangupAll()
		return "OK", nil, true
	case line == "ATA":
		return m.answer()
	case line == "AT+CLCC" || strings.HasPrefix(line, "AT+CLCC"):
		return m.listCalls(), nil, true
	default:
		return "", nil, false
	}
}

func (m *Manager) dial(line string) (reply string, unsolicited []string, handled bool) {
	number := strings.TrimSuffix(strings.TrimPrefix(line, "ATD"), ";")
	number = strings.TrimSpace(number)
	if m.checker != nil && !m.checker.DialAllowed(number) {
		return "ERROR", nil, true
	}
	id, ok := m.ids.NewCall()
	if !ok {
		return "ERROR", nil, true
	}
	m.calls[id] = &Call{ID: id, Number: number, State: StateDialing, MO: true}
	m.notify('D', id)
	return "OK", []string{fmt.Sprintf("^CEND: %d,0,0,0", id)}, true
}

func (m *Manager) answer() (reply string, unsolicited []string, handled bool) {
	for _, c := range m.calls {
		if !c.MO {
			c.State = StateActive
			m.notify('A', c.ID)
		}
	}
	return "OK", nil, true
}

func (m *Manager) hangupAll() {
	for id := range m.calls {
		m.ids.Forget(id)
		delete(m.calls, id)
		m.notify('H', id)
	}
	m.ids.ForgetAll()
}

func (m *Manager) listCalls() string {
	if len(m.calls) == 0 {
		return "OK"
	}
	var b strings.Builder
	for _, c := range m.calls {
		dir := 0
		if !c.MO {
			dir = 1
		}
		b.WriteString(fmt.Sprintf("+CLCC: %d,%d,%d,0,0,\"%s\",129\n", c.ID, dir, c.State, c.Number))
	}
	b.WriteString("OK")
	return b.String()
}

// IncomingCall registers a mobile-terminated call and returns the RING/
// +CLIP unsolicited lines the response pipeline should emit.
func (m *Manager) IncomingCall(number string) []string {
	id, ok := m.ids.NewCall()
	if !ok {
		return nil
	}
	m.calls[id] = &Call{ID: id, Number: number, State: StateIncoming, MO: false}
	return []string{"RING", fmt.Sprintf(`+CLIP: "%s",129`, number)}
}

// ParseCLCCIndex is a small helper for tests/tools that need to pull a call
// id back out of a CLCC line.
func ParseCLCCIndex(clccLine string) (int, error) {
	fields := strings.Split(strings.TrimPrefix(clccLine, "+CLCC: "), ",")
	if len(fields) == 0 {
		return 0, fmt.Errorf("callmgr: malformed CLCC line %q", clccLine)
	}
	return strconv.Atoi(fields[0])
}
