package phonebook

// Set is the collection of named phonebooks (SM, FD, ...) a session
// switches among via AT+CPBS. "SM" with size 150 is always present.
type Set struct {
	books   map[string]*Phonebook
	current string
}

// DefaultSMSize is the always-initialized size of the "SM" phonebook.
const DefaultSMSize = 150

// NewSet returns a Set with the mandatory "SM" phonebook already created.
func NewSet() *Set {
	s := &Set{books: map[string]*Phonebook{}, current: "SM"}
	s.books["SM"] = New("SM", DefaultSMSize)
	return s
}

// Ensure returns the named phonebook, creating it with the given size if
// it does not exist yet (used while seeding from a profile).
func (s *Set) Ensure(name string, size int) *Phonebook {
	if pb, ok := s.books[name]; ok {
		return pb
	}
	pb := New(name, size)
	s.books[name] = pb
	return pb
}

// Get returns the named phonebook and whether it exists.
func (s *Set) Get(name string) (*Phonebook, bool) {
	pb, ok := s.books[name]
	return pb, ok
}

// Names returns every known phonebook name.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.books))
	for name := range s.books {
		names = append(names, name)
	}
	return names
}

// Current returns the currently selected phonebook.
func (s *Set) Current() *Phonebook {
	return s.books[s.current]
}

// SetCurrent selects name as current; ok is false if name is unknown.
func (s *Set) SetCurrent(name string) bool {
	if _, ok := s.books[name]; !ok {
		return false
	}
	s.current = name
	return true
}

// CurrentName returns the name of the currently selected phonebook.
func (s *Set) CurrentName() string {
	return s.current
}
