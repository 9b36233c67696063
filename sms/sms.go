// Package sms builds the outbound SMS PDUs and +CMGL/+CMGR listing text
// the rule engine's list_sms/read_sms/delete_sms actions need, on top of
// github.com/xlab/at's 7-bit/UCS2 codec.
package sms

import (
	"fmt"
	"strings"

	"github.com/xlab/at/pdu"
	"github.com/xlab/at/sms"
)

// Entry is one slot in the simulated SMS store the hardware manipulator
// exposes; List/Read/Delete act on indices into a List's Entries.
type Entry struct {
	Index   int
	Status  string // "REC UNREAD", "REC READ", ...
	Deleted bool
	PDU     string // hex-encoded SMS-DELIVER PDU
}

// List is the external hardware manipulator's SMS store collaborator
// (spec §6 getSMSList()); a nil List means "no hardware manipulator
// attached", which every list/read/delete action treats as a no-op.
type List interface {
	Entries() []Entry
	MarkDeleted(index int) bool
}

// BuildDeliverPDU renders text from sender as a hex SMS-DELIVER PDU using
// the 7-bit default alphabet unless text contains non-ASCII, in which case
// UCS2 is used.
func BuildDeliverPDU(sender, text string) (string, error) {
	msg := sms.Message{
		Text:                 text,
		Type:                 sms.MessageTypes.Deliver,
		Encoding:             sms.Encodings.Gsm7Bit,
		Address:              sms.PhoneNumber(sender),
		ServiceCenterAddress: sms.PhoneNumber(""),
	}
	if !isASCII(text) {
		msg.Encoding = sms.Encodings.UCS2
	}
	_, octets, err := msg.PDU()
	if err != nil {
		return "", fmt.Errorf("sms: encode pdu: %w", err)
	}
	return pdu.Encode(octets), nil
}

// DecodeSubmitPDU decodes a hex SMS-SUBMIT PDU (as sent by AT+CMGS) back
// into its destination number and text.
func DecodeSubmitPDU(hexPDU string) (dest, text string, err error) {
	octets, err := pdu.Decode(hexPDU)
	if err != nil {
		return "", "", fmt.Errorf("sms: decode pdu: %w", err)
	}
	var msg sms.Message
	if _, err := msg.ReadFrom(octets); err != nil {
		return "", "", fmt.Errorf("sms: parse pdu: %w", err)
	}
	return string(msg.Address), msg.Text, nil
}

// FormatCMGL renders every non-deleted entry as the "+CMGL:" block
// list_sms emits, or the "+CMS ERROR: 321" the spec requires for an empty
// list.
func FormatCMGL(entries []Entry) string {
	var lines []string
	for _, e := range entries {
		if e.Deleted {
			continue
		}
		lines = append(lines, fmt.Sprintf("+CMGL: %d,%s,,%d\n%s\n", e.Index, e.Status, len(e.PDU)/2, e.PDU))
	}
	if len(lines) == 0 {
		return "+CMS ERROR: 321"
	}
	return strings.Join(lines, "") + "\nOK"
}

// FormatCMGR renders one entry as the "+CMGR:" text read_sms emits.
func FormatCMGR(e Entry) string {
	return fmt.Sprintf("+CMGR: %s,,%d\n%s\n\nOK", e.Status, len(e.PDU)/2, e.PDU)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 127 {
			return false
		}
	}
	return true
}
