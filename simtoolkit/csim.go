package simtoolkit

import (
	"strings"

	"github.com/sandia-minimega/phonesim/atutil"
	"github.com/sandia-minimega/phonesim/variables"
)

// APDU instruction bytes this handler recognizes.
const (
	insTerminalProfile   = 0x10
	insFetch             = 0x12
	insTerminalResponse  = 0x14
	insUnblockCHV        = 0x2C
	insEnvelope          = 0xC2
	insStatus            = 0xF2
)

// Status words, as hex pairs, per the CSIM dispatch table.
const (
	swWrongLength    = "6700"
	swWrongClass     = "6800"
	swOK             = "9000"
	swUnblockWrong   = "9804"
	swNoProactiveCmd = "6F00"
	swUnknownIns     = "6D00"
)

// Handler dispatches AT+CSIM / AT+CUSATT / AT+CUSATE to the installed
// Application.
type Handler struct {
	current    Application
	simPresent bool
}

// NewHandler returns a handler with the SIM present and a DefaultApp
// installed.
func NewHandler() *Handler {
	return &Handler{current: DefaultApp{}, simPresent: true}
}

// SetApplication aborts the outgoing application before installing app as
// current, matching the original's setSimApplication.
func (h *Handler) SetApplication(app Application) {
	if h.current != nil {
		h.current.Abort()
	}
	h.current = app
}

// SetSimPresent controls whether CSIM commands are answered at all.
func (h *Handler) SetSimPresent(present bool) {
	h.simPresent = present
}

// HandleCUSATE decodes hexArg as an ENVELOPE PDU and forwards it; ok is
// false if there is no application installed or it rejects the envelope.
func (h *Handler) HandleCUSATE(hexArg string) (ok bool) {
	if h.current == nil {
		return false
	}
	pdu, err := atutil.FromHex(hexArg)
	if err != nil {
		return false
	}
	return h.current.Envelope(pdu)
}

// HandleCUSATT decodes hexArg as a TERMINAL RESPONSE PDU and forwards it;
// ok is false if there is no application installed or it rejects.
func (h *Handler) HandleCUSATT(hexArg string) (ok bool) {
	if h.current == nil {
		return false
	}
	pdu, err := atutil.FromHex(hexArg)
	if err != nil {
		return false
	}
	return h.current.Response(pdu)
}

// HandleCSIM dispatches AT+CSIM="<len>,<hex>" argument text (everything
// after the "="). It returns ok=false only when the command is not a CSIM
// command at all (no comma) so the router can try the next handler; every
// other outcome, including SIM-not-present and malformed APDUs, is
// "handled" and resp carries the full two-line reply text (or empty when
// nothing should be written, per the SIM-not-present silent case).
func (h *Handler) HandleCSIM(args string, vars *variables.Store) (resp string, ok bool) {
	comma := strings.IndexByte(args, ',')
	if comma < 0 {
		return "", false
	}
	hexArg := strings.Trim(args[comma+1:], `"`)
	p, err := atutil.FromHex(hexArg)
	if err != nil {
		return h.reply(swWrongLength), true
	}

	if !h.simPresent {
		return "", true
	}

	if len(p) < 4 {
		return h.reply(swWrongLength), true
	}
	if p[0] != 0xA0 {
		return h.reply(swWrongClass), true
	}

	var sw []byte
	switch p[1] {
	case insTerminalProfile:
		if h.current != nil {
			h.current.Abort()
		}
		sw = hexSW(swOK)
	case insFetch:
		if cmd := h.peekFetch(false); cmd != nil {
			sw = append(append([]byte(nil), cmd...), hexSW(swOK)...)
		} else {
			sw = hexSW(swNoProactiveCmd)
		}
	case insTerminalResponse:
		if len(p) < 5 {
			sw = hexSW(swWrongLength)
			break
		}
		if h.current != nil && h.current.Response(p[5:]) {
			// The app owns its own reply on success; the handler emits
			// no status word of its own here.
			return "", true
		}
		sw = hexSW(swNoProactiveCmd)
	case insUnblockCHV:
		sw = h.unblockCHV(p, vars)
	case insEnvelope:
		if len(p) < 5 {
			sw = hexSW(swWrongLength)
			break
		}
		ok := h.current != nil && h.current.Envelope(p[5:])
		if ok {
			sw = hexSW(swOK)
		} else {
			sw = hexSW(swNoProactiveCmd)
		}
	case insStatus:
		sw = hexSW(swOK)
	default:
		sw = hexSW(swUnknownIns)
	}

	sw = h.signalFetchReadiness(sw)
	return h.reply(atutil.ToHex(sw)), true
}

// unblockCHV implements the UNBLOCK CHV case: P[3] selects CHV1 (0x01) or
// CHV2 (0x02); PUK occupies P[5:13], new PIN P[13:21], each stripped of
// trailing 0xFF padding.
func (h *Handler) unblockCHV(p []byte, vars *variables.Store) []byte {
	if len(p) < 21 || p[4] != 0x10 || (p[3] != 0x01 && p[3] != 0x02) {
		return hexSW(swUnknownIns)
	}
	puk := stripFF(p[5:13])
	newPin := stripFF(p[13:21])

	pukVar, pinVar := "PUKVALUE", "PINVALUE"
	if p[3] == 0x02 {
		pukVar, pinVar = "PUK2VALUE", "PIN2VALUE"
	}
	if string(puk) != vars.Get(pukVar) {
		return hexSW(swUnblockWrong)
	}
	vars.SetRaw(pinVar, string(newPin))
	return hexSW(swOK)
}

// peekFetch looks for a pending proactive command without caring which
// reply triggered the peek; it is the hook used both by the FETCH
// instruction and by signalFetchReadiness.
func (h *Handler) peekFetch(peek bool) []byte {
	if h.current == nil {
		return nil
	}
	return h.current.Fetch(peek)
}

// signalFetchReadiness rewrites the trailing two-byte status word to
// "91 <len>" when a success response leaves a fresh proactive command
// queued, so the terminal knows to FETCH.
func (h *Handler) signalFetchReadiness(sw []byte) []byte {
	if len(sw) < 2 {
		return sw
	}
	last := sw[len(sw)-2:]
	if string(last) != string(hexSW(swOK)) && string(last) != string(hexSW("9004")) {
		return sw
	}
	cmd := h.peekFetch(true)
	if len(cmd) == 0 {
		return sw
	}
	out := append([]byte(nil), sw[:len(sw)-2]...)
	out = append(out, 0x91, byte(len(cmd)))
	return out
}

func (h *Handler) reply(respHex string) string {
	return "+CSIM: " + itoa(len(respHex)) + "," + strings.ToUpper(respHex) + "\nOK"
}

func hexSW(sw string) []byte {
	b, _ := atutil.FromHex(sw)
	return b
}

func stripFF(b []byte) []byte {
	end := len(b)
	for end > 0 && b[end-1] == 0xFF {
		end--
	}
	return b[:end]
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}
