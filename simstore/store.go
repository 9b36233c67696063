// Package simstore is the default hardware-manipulator SMS store: an
// in-memory inbox that implements sms.List for the rule engine's
// list_sms/read_sms/delete_sms actions, and that splits an incoming
// message longer than a single SMS-DELIVER PDU can carry into the
// concatenated parts a real tower would send.
package simstore

import (
	"github.com/sandia-minimega/phonesim/sms"
)

// singlePartMax is the longest message text one SMS-DELIVER PDU carries
// in the 7-bit default alphabet (160 septets); longer text is split into
// partChunkSize-character chunks, each encoded with no concatenation
// header.
const (
	singlePartMax = 160
	partChunkSize = 152
)

// Store is an in-memory, per-session SMS inbox.
type Store struct {
	entries []sms.Entry
	nextIdx int
}

// New returns an empty inbox.
func New() *Store {
	return &Store{nextIdx: 1}
}

// Entries implements sms.List.
func (s *Store) Entries() []sms.Entry {
	return append([]sms.Entry(nil), s.entries...)
}

// MarkDeleted implements sms.List.
func (s *Store) MarkDeleted(index int) bool {
	for i := range s.entries {
		if s.entries[i].Index == index && !s.entries[i].Deleted {
			s.entries[i].Deleted = true
			return true
		}
	}
	return false
}

// Push encodes text as one or more SMS-DELIVER PDUs from sender and adds
// them to the inbox as unread entries, splitting into concatenated parts
// when text exceeds a single PDU's capacity. It returns the new entries.
//
// Each part is encoded as an independent SMS-DELIVER PDU with no user-data
// header (see DESIGN.md); no reference number or part index is recorded,
// so each part is simply the next inbox entry.
func (s *Store) Push(sender, text string) ([]sms.Entry, error) {
	chunks := splitConcatenated(text)
	added := make([]sms.Entry, 0, len(chunks))
	for _, chunk := range chunks {
		pdu, err := sms.BuildDeliverPDU(sender, chunk)
		if err != nil {
			return nil, err
		}
		e := sms.Entry{Index: s.nextIdx, Status: "REC UNREAD", PDU: pdu}
		s.nextIdx++
		s.entries = append(s.entries, e)
		added = append(added, e)
	}
	return added, nil
}

// splitConcatenated mirrors the original simulator's message splitter:
// text of at most singlePartMax characters is sent whole; longer text is
// cut into partChunkSize-character pieces.
func splitConcatenated(text string) []string {
	if len(text) <= singlePartMax {
		return []string{text}
	}
	var parts []string
	for len(text) > 0 {
		n := partChunkSize
		if n > len(text) {
			n = len(text)
		}
		parts = append(parts, text[:n])
		text = text[n:]
	}
	return parts
}
