// Package phonebook implements the fixed-size, 1-indexed phonebook store
// with its per-field length caps and the named-phonebook set (SM, FD, ...)
// a session selects among.
package phonebook

import (
	"encoding/hex"
	"fmt"
	"unicode/utf16"
)

// Field length caps, fixed by the spec: N=32, T=16, G=255, S=16, E=255,
// SIP=255, TEL=255.
const (
	MaxNumber     = 32
	MaxName       = 16
	MaxGroup      = 255
	MaxSecondText = 16
	MaxEmail      = 255
	MaxSipURI     = 255
	MaxTelURI     = 255
)

// HiddenUnset is the sentinel value of an unset Hidden field.
const HiddenUnset = -1

// Entry is one phonebook slot. Empty is defined as Number == "".
type Entry struct {
	Number     string
	Name       string
	Hidden     int
	Group      string
	AdNumber   string
	SecondText string
	Email      string
	SipURI     string
	TelURI     string
}

// Empty reports whether the slot holds no entry.
func (e *Entry) Empty() bool { return e.Number == "" }

// Phonebook is a fixed-size table indexed 1..Size.
type Phonebook struct {
	Name    string
	Size    int
	entries map[int]*Entry
}

// New creates an empty phonebook with the given name and size.
func New(name string, size int) *Phonebook {
	return &Phonebook{Name: name, Size: size, entries: map[int]*Entry{}}
}

// Entry returns the slot at index (1-based), or a zero Entry if unset.
// ok is false when index is out of [1, Size].
func (pb *Phonebook) Entry(index int) (Entry, bool) {
	if index < 1 || index > pb.Size {
		return Entry{}, false
	}
	if e, found := pb.entries[index]; found {
		return *e, true
	}
	return Entry{}, true
}

// Set writes (or clears, if e is nil) the slot at index. ok is false when
// index is out of range.
func (pb *Phonebook) Set(index int, e *Entry) bool {
	if index < 1 || index > pb.Size {
		return false
	}
	if e == nil {
		delete(pb.entries, index)
		return true
	}
	cp := *e
	pb.entries[index] = &cp
	return true
}

// Used counts the occupied (non-empty) slots in the book.
func (pb *Phonebook) Used() int {
	n := 0
	for _, e := range pb.entries {
		if !e.Empty() {
			n++
		}
	}
	return n
}

// Range calls fn for every occupied slot with index in [a, b] inclusive,
// in ascending index order.
func (pb *Phonebook) Range(a, b int, fn func(index int, e Entry)) {
	if a < 1 {
		a = 1
	}
	if b > pb.Size {
		b = pb.Size
	}
	for i := a; i <= b; i++ {
		if e, found := pb.entries[i]; found && !e.Empty() {
			fn(i, *e)
		}
	}
}

// ValidateLengths returns an error naming the first field that exceeds its
// cap, or nil if e satisfies every cap.
func ValidateLengths(e Entry) error {
	switch {
	case len(e.Number) > MaxNumber:
		return fmt.Errorf("phonebook: number exceeds %d characters", MaxNumber)
	case len(e.Name) > MaxName:
		return fmt.Errorf("phonebook: name exceeds %d characters", MaxName)
	case len(e.Group) > MaxGroup:
		return fmt.Errorf("phonebook: group exceeds %d characters", MaxGroup)
	case len(e.SecondText) > MaxSecondText:
		return fmt.Errorf("phonebook: secondtext exceeds %d characters", MaxSecondText)
	case len(e.Email) > MaxEmail:
		return fmt.Errorf("phonebook: email exceeds %d characters", MaxEmail)
	case len(e.SipURI) > MaxSipURI:
		return fmt.Errorf("phonebook: sip_uri exceeds %d characters", MaxSipURI)
	case len(e.TelURI) > MaxTelURI:
		return fmt.Errorf("phonebook: tel_uri exceeds %d characters", MaxTelURI)
	}
	return nil
}

// DecodeNumberType expands number per its 27.007 type-of-address byte: 145
// marks an international number, stored with a leading '+'; any other type
// (129, the common case) is stored verbatim.
func DecodeNumberType(number string, typ int) string {
	if typ == 145 && number != "" && number[0] != '+' {
		return "+" + number
	}
	return number
}

// EncodeUCS2 hex-encodes s as big-endian UTF-16, the representation used
// for textual +CPBR fields when the active character set is "UCS2".
func EncodeUCS2(s string) string {
	units := utf16.Encode([]rune(s))
	b := make([]byte, 0, len(units)*2)
	for _, u := range units {
		b = append(b, byte(u>>8), byte(u))
	}
	return hex.EncodeToString(b)
}
