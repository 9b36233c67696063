package session

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sandia-minimega/phonesim/atutil"
	"github.com/sandia-minimega/phonesim/phonebook"
)

// handlePhonebook implements the AT+CPBS/AT+CPBR/AT+CPBW family (§4.3),
// the only phonebook surface the rule profile cannot express directly
// since it depends on the mutable phonebook.Set rather than a canned
// response. Every one of these commands is gated on the PIN-readiness
// precondition: until a profile sets PINNAME to "READY", they all reply
// ERROR without touching the phonebook set.
func (s *Session) handlePhonebook(line string) (reply string, handled bool) {
	isPhonebookCmd := strings.HasPrefix(line, "AT+CPBS") ||
		strings.HasPrefix(line, "AT+CPBR") ||
		strings.HasPrefix(line, "AT+CPBW")
	if isPhonebookCmd && s.vars.Get("PINNAME") != "READY" {
		return "ERROR", true
	}

	switch {
	case line == "AT+CPBS?":
		return s.handleCPBSQuery(), true
	case line == "AT+CPBS=?":
		return fmt.Sprintf("+CPBS: (%s)\nOK", atutil.QuoteList(s.pbSet.Names())), true
	case strings.HasPrefix(line, "AT+CPBS="):
		return s.handleCPBSSet(strings.TrimPrefix(line, "AT+CPBS=")), true
	case strings.HasPrefix(line, "AT+CPBR="):
		return s.handleCPBR(strings.TrimPrefix(line, "AT+CPBR=")), true
	case strings.HasPrefix(line, "AT+CPBW="):
		return s.handleCPBW(strings.TrimPrefix(line, "AT+CPBW=")), true
	}
	return "", false
}

func (s *Session) handleCPBSQuery() string {
	used, size := 0, 0
	if pb := s.pbSet.Current(); pb != nil {
		used, size = pb.Used(), pb.Size
	}
	return fmt.Sprintf(`+CPBS: "%s",%d,%d`+"\nOK", s.pbSet.CurrentName(), used, size)
}

func (s *Session) handleCPBSSet(args string) string {
	fields := splitQuotedCSV(args)
	if len(fields) == 0 {
		return "ERROR"
	}
	name := unquote(fields[0])
	if len(fields) > 1 {
		if unquote(fields[1]) != s.vars.Get("PIN2VALUE") {
			return "ERROR"
		}
	}
	if s.pbSet.SetCurrent(name) {
		return "OK"
	}
	return "ERROR"
}

func (s *Session) handleCPBR(args string) string {
	pb := s.pbSet.Current()
	if pb == nil {
		return "ERROR"
	}
	if args == "?" {
		return fmt.Sprintf("+CPBR: (1-%d),%d,%d,%d,%d,%d,%d,%d\nOK",
			pb.Size, phonebook.MaxNumber, phonebook.MaxName, phonebook.MaxGroup,
			phonebook.MaxSecondText, phonebook.MaxEmail, phonebook.MaxSipURI, phonebook.MaxTelURI)
	}
	parts := strings.SplitN(args, ",", 2)
	from, err := strconv.Atoi(parts[0])
	if err != nil {
		return "ERROR"
	}
	to := from
	if len(parts) == 2 {
		if v, err2 := strconv.Atoi(parts[1]); err2 == nil {
			to = v
		}
	}
	ucs2 := s.vars.Get("SCS") == "UCS2"
	var lines []string
	pb.Range(from, to, func(index int, e phonebook.Entry) {
		lines = append(lines, formatCPBRLine(index, e, ucs2))
	})
	lines = append(lines, "OK")
	return strings.Join(lines, "\n")
}

// formatCPBRLine renders one +CPBR: line with the trailing optional fields
// (hidden, group, adNumber, secondText, email, sipUri, telUri) emitted in
// that order, stopping at the first absent one (§4.3).
func formatCPBRLine(index int, e phonebook.Entry, ucs2 bool) string {
	text := func(v string) string {
		if ucs2 {
			return phonebook.EncodeUCS2(v)
		}
		return v
	}

	var b strings.Builder
	fmt.Fprintf(&b, `+CPBR: %d,"%s",129,"%s"`, index, e.Number, text(e.Name))

	if e.Hidden == phonebook.HiddenUnset {
		return b.String()
	}
	fmt.Fprintf(&b, ",%d", e.Hidden)

	if e.Group == "" {
		return b.String()
	}
	fmt.Fprintf(&b, `,"%s"`, text(e.Group))

	if e.AdNumber == "" {
		return b.String()
	}
	fmt.Fprintf(&b, `,"%s"`, e.AdNumber)

	if e.SecondText == "" {
		return b.String()
	}
	fmt.Fprintf(&b, `,"%s"`, text(e.SecondText))

	if e.Email == "" {
		return b.String()
	}
	fmt.Fprintf(&b, `,"%s"`, text(e.Email))

	if e.SipURI == "" {
		return b.String()
	}
	fmt.Fprintf(&b, `,"%s"`, text(e.SipURI))

	if e.TelURI == "" {
		return b.String()
	}
	fmt.Fprintf(&b, `,"%s"`, text(e.TelURI))

	return b.String()
}

func (s *Session) handleCPBW(args string) string {
	pb := s.pbSet.Current()
	if pb == nil {
		return "ERROR"
	}
	fields := splitQuotedCSV(args)
	if len(fields) == 0 {
		return "ERROR"
	}
	index, err := strconv.Atoi(fields[0])
	if err != nil || index < 1 || index > pb.Size {
		return "ERROR"
	}
	if len(fields) == 1 {
		pb.Set(index, nil)
		return "OK"
	}

	field := func(i int) string {
		if i < len(fields) {
			return unquote(fields[i])
		}
		return ""
	}
	fieldInt := func(i, def int) int {
		v := field(i)
		if v == "" {
			return def
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return def
		}
		return n
	}

	e := phonebook.Entry{
		Number:     phonebook.DecodeNumberType(field(1), fieldInt(2, 129)),
		Name:       field(3),
		Group:      field(4),
		AdNumber:   phonebook.DecodeNumberType(field(5), fieldInt(6, 129)),
		SecondText: field(7),
		Email:      field(8),
		SipURI:     field(9),
		TelURI:     field(10),
		Hidden:     fieldInt(11, phonebook.HiddenUnset),
	}
	if err := phonebook.ValidateLengths(e); err != nil {
		return "ERROR"
	}
	if !pb.Set(index, &e) {
		return "ERROR"
	}
	return "OK"
}
