// Package atutil collects the small stateless conversion helpers shared by
// every layer of the simulator: hex/byte conversions, BCD number swizzling,
// and the escape-sequence table used by the response pipeline.
package atutil

import (
	"encoding/hex"
	"strings"
)

// ToHex renders b as a lowercase hex string with no separators.
func ToHex(b []byte) string {
	return hex.EncodeToString(b)
}

// FromHex decodes a hex string, ignoring a trailing odd nibble by padding
// with a zero rather than failing, since several CSIM/CUSAT payloads in the
// wild are odd-length after `0xFF` stripping.
func FromHex(s string) ([]byte, error) {
	if len(s)%2 == 1 {
		s = s + "0"
	}
	return hex.DecodeString(s)
}

// Swizzle BCD-encodes a decimal phone number into nibble-swapped bytes, the
// representation GSM uses for SMSC/sender addresses. An odd-length number is
// padded with an 0xF filler nibble.
func Swizzle(number string) []byte {
	if len(number)%2 == 1 {
		number = number + "F"
	}
	swapped := make([]byte, len(number))
	for i := 0; i < len(number); i += 2 {
		swapped[i] = number[i+1]
		swapped[i+1] = number[i]
	}
	b, _ := hex.DecodeString(string(swapped))
	return b
}

// Unswizzle reverses Swizzle, stripping a trailing 'f' filler nibble.
func Unswizzle(b []byte) string {
	h := hex.EncodeToString(b)
	swapped := make([]byte, len(h))
	for i := 0; i < len(h); i += 2 {
		swapped[i] = h[i+1]
		swapped[i+1] = h[i]
	}
	s := string(swapped)
	if len(s) > 0 && (s[len(s)-1] == 'f' || s[len(s)-1] == 'F') {
		s = s[:len(s)-1]
	}
	return s
}

// escapeTable maps the letter following a backslash to the control byte it
// stands for, mirroring the table the original simulator keeps inline in its
// response-expansion routine ("\a\bcde\fghijklm\nopq\rs\tu\vwxyz").
var escapeTable = map[byte]byte{
	'a': '\a',
	'b': '\b',
	'f': '\f',
	'n': '\n',
	'r': '\r',
	't': '\t',
	'v': '\v',
}

// ExpandEscapes interprets backslash escapes in s (as used in profile
// response bodies) and returns the literal byte sequence to send on the
// wire. A resulting (or literal) LF is always preceded by a CR; a bare CR
// is dropped, since a following LF (added by this same pass) already
// supplies it. Unrecognized backslash letters pass through unchanged.
func ExpandEscapes(s string) []byte {
	out := make([]byte, 0, len(s)+2)
	emit := func(b byte) {
		switch b {
		case '\n':
			out = append(out, '\r', '\n')
		case '\r':
			// dropped: a following '\n' supplies the CR
		default:
			out = append(out, b)
		}
	}
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			if ctrl, ok := escapeTable[s[i+1]]; ok {
				emit(ctrl)
				i++
				continue
			}
		}
		emit(s[i])
	}
	return out
}

// QuoteList renders items as a comma-separated list of double-quoted
// strings, e.g. for AT+CPBS=? phonebook-name enumeration.
func QuoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, it := range items {
		quoted[i] = `"` + it + `"`
	}
	return strings.Join(quoted, ",")
}

// StripTrailingSub removes a single trailing 0x1A (SUB) byte, the SMS PDU
// terminator character clients sometimes leave on a wildcard capture.
func StripTrailingSub(s string) string {
	if len(s) > 0 && s[len(s)-1] == 0x1A {
		return s[:len(s)-1]
	}
	return s
}

// FormatResponse implements the response-pipeline's escape-expansion step:
// prepend a CRLF, expand backslash escapes and normalize literal LF/CR,
// then append a trailing CRLF when eol is set and the text doesn't already
// end in one.
func FormatResponse(text string, eol bool) []byte {
	body := ExpandEscapes("\r\n" + text)
	if eol && (len(body) == 0 || body[len(body)-1] != '\n') {
		body = append(body, '\r', '\n')
	}
	return body
}
