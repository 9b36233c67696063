package profile

import (
	"encoding/xml"
	"fmt"
	"os"
	"strconv"
)

// Load reads and parses a profile XML file. The element/attribute surface
// is fixed: <simulator> at the root, <state>/<start>/<set>/<phonebook>/
// <filesystem>/<simauth>/<application> as children. Nothing beyond parsing
// and structural validation happens here; XML transport (where the file
// comes from) is the caller's concern.
func Load(path string) (*Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("profile: open %s: %w", path, err)
	}
	defer f.Close()

	var root xmlSimulator
	dec := xml.NewDecoder(f)
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("profile: parse %s: %w", path, err)
	}

	return root.build()
}

// --- raw XML shape -------------------------------------------------------

type xmlSimulator struct {
	XMLName      xml.Name        `xml:"simulator"`
	Start        *xmlStart       `xml:"start"`
	Sets         []xmlSet        `xml:"set"`
	States       []xmlState      `xml:"state"`
	Phonebooks   []xmlPhonebook  `xml:"phonebook"`
	Filesystem   *xmlRawBlock    `xml:"filesystem"`
	SimAuth      *xmlRawBlock    `xml:"simauth"`
	Applications []xmlRawBlock   `xml:"application"`
}

type xmlStart struct {
	Name string `xml:"name,attr"`
}

type xmlSet struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type xmlState struct {
	Name        string            `xml:"name,attr"`
	Chats       []xmlChat         `xml:"chat"`
	Unsolicited []xmlUnsolicited  `xml:"unsolicited"`
}

type xmlChat struct {
	Command    xmlCommand    `xml:"command"`
	Response   *xmlResponse  `xml:"response"`
	Switch     *xmlSwitch    `xml:"switch"`
	Sets       []xmlSetDelay `xml:"set"`
	NewCall    *xmlNewCall   `xml:"newcall"`
	ForgetCall *xmlForget    `xml:"forgetcall"`
	ListSMS    *struct{}     `xml:"listSMS"`
	ReadSMS    *struct{}     `xml:"readSMS"`
	DeleteSMS  *struct{}     `xml:"deleteSMS"`
}

type xmlCommand struct {
	Wildcard string `xml:"wildcard,attr"`
	Text     string `xml:",chardata"`
}

type xmlResponse struct {
	Delay string `xml:"delay,attr"`
	EOL   string `xml:"eol,attr"`
	Text  string `xml:",chardata"`
}

type xmlSwitch struct {
	Name string `xml:"name,attr"`
}

type xmlSetDelay struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
	Delay string `xml:"delay,attr"`
}

type xmlNewCall struct {
	Name string `xml:"name,attr"`
}

type xmlForget struct {
	ID string `xml:"id,attr"`
}

type xmlUnsolicited struct {
	Delay  string `xml:"delay,attr"`
	Switch string `xml:"switch,attr"`
	Once   string `xml:"once,attr"`
	Text   string `xml:",chardata"`
}

type xmlPhonebook struct {
	Name    string      `xml:"name,attr"`
	Size    string      `xml:"size,attr"`
	Entries []xmlEntry  `xml:"entry"`
}

type xmlEntry struct {
	Index      string `xml:"index,attr"`
	Number     string `xml:"number,attr"`
	Name       string `xml:"name,attr"`
	Hidden     string `xml:"hidden,attr"`
	Group      string `xml:"group,attr"`
	AdNumber   string `xml:"adnumber,attr"`
	SecondText string `xml:"secondtext,attr"`
	Email      string `xml:"email,attr"`
	SipURI     string `xml:"sip_uri,attr"`
	TelURI     string `xml:"tel_uri,attr"`
}

// xmlRawBlock captures an element this package does not interpret, keeping
// its attributes and raw inner XML for the owning collaborator.
type xmlRawBlock struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Inner   string     `xml:",innerxml"`
}

func (r *xmlRawBlock) toRawBlock() *RawBlock {
	if r == nil {
		return nil
	}
	attrs := make(map[string]string, len(r.Attrs))
	for _, a := range r.Attrs {
		attrs[a.Name.Local] = a.Value
	}
	return &RawBlock{Name: r.XMLName.Local, Attrs: attrs, InnerXML: r.Inner}
}

// --- conversion to domain types -------------------------------------------

func (root *xmlSimulator) build() (*Profile, error) {
	p := &Profile{
		States:    map[string]*State{},
		Variables: map[string]string{},
	}
	if root.Start != nil {
		p.StartStateName = root.Start.Name
	}
	for _, s := range root.Sets {
		p.Variables[s.Name] = s.Value
	}
	for _, xs := range root.States {
		state, err := buildState(xs)
		if err != nil {
			return nil, err
		}
		p.States[state.Name] = state
	}
	p.Default() // ensure default state always exists

	for _, xp := range root.Phonebooks {
		pb, err := buildPhonebookSeed(xp)
		if err != nil {
			return nil, err
		}
		p.Phonebooks = append(p.Phonebooks, pb)
	}

	p.Filesystem = root.Filesystem.toRawBlock()
	p.SimAuth = root.SimAuth.toRawBlock()
	for i := range root.Applications {
		p.Applications = append(p.Applications, root.Applications[i].toRawBlock())
	}

	return p, nil
}

func buildState(xs xmlState) (*State, error) {
	s := &State{Name: xs.Name}
	for _, xc := range xs.Chats {
		ci, err := buildChatItem(xc)
		if err != nil {
			return nil, fmt.Errorf("state %q: %w", xs.Name, err)
		}
		s.Items = append(s.Items, &Item{Chat: ci})
	}
	for _, xu := range xs.Unsolicited {
		ui, err := buildUnsolicitedItem(xu)
		if err != nil {
			return nil, fmt.Errorf("state %q: %w", xs.Name, err)
		}
		s.Items = append(s.Items, &Item{Unsolicited: ui})
	}
	return s, nil
}

func buildChatItem(xc xmlChat) (*ChatItem, error) {
	ci := &ChatItem{
		Command:  xc.Command.Text,
		Wildcard: parseBool(xc.Command.Wildcard, autoWildcard(xc.Command.Text)),
	}
	if xc.Response != nil {
		ci.Response = xc.Response.Text
		ci.ResponseDelayMS = parseInt(xc.Response.Delay, 0)
		ci.EOL = parseBool(xc.Response.EOL, true)
	} else {
		ci.EOL = true
	}
	if xc.Switch != nil {
		ci.SwitchTo = xc.Switch.Name
	}
	for _, xs := range xc.Sets {
		ci.Assignments = append(ci.Assignments, Assignment{
			Variable: xs.Name,
			Value:    xs.Value,
			DelayMS:  parseInt(xs.Delay, 0),
		})
	}
	if xc.NewCall != nil {
		ci.NewCallVar = xc.NewCall.Name
	}
	if xc.ForgetCall != nil {
		ci.ForgetCallID = xc.ForgetCall.ID
	}
	ci.ListSMS = xc.ListSMS != nil
	ci.ReadSMS = xc.ReadSMS != nil
	ci.DeleteSMS = xc.DeleteSMS != nil
	return ci, nil
}

// autoWildcard implements the "a '*' appearing at position >2 triggers
// wildcard matching unless explicitly set otherwise" rule.
func autoWildcard(pattern string) bool {
	idx := -1
	for i, r := range pattern {
		if r == '*' {
			idx = i
			break
		}
	}
	return idx > 2
}

func buildUnsolicitedItem(xu xmlUnsolicited) (*UnsolicitedItem, error) {
	return &UnsolicitedItem{
		Response: xu.Text,
		DelayMS:  parseInt(xu.Delay, 0),
		SwitchTo: xu.Switch,
		Once:     parseBool(xu.Once, false),
	}, nil
}

func buildPhonebookSeed(xp xmlPhonebook) (PhonebookSeed, error) {
	pb := PhonebookSeed{
		Name: xp.Name,
		Size: parseInt(xp.Size, 0),
	}
	for _, xe := range xp.Entries {
		pb.Entries = append(pb.Entries, PhonebookEntrySeed{
			Index:      parseInt(xe.Index, 0),
			Number:     xe.Number,
			Name:       xe.Name,
			Hidden:     parseInt(xe.Hidden, -1),
			Group:      xe.Group,
			AdNumber:   xe.AdNumber,
			SecondText: xe.SecondText,
			Email:      xe.Email,
			SipURI:     xe.SipURI,
			TelURI:     xe.TelURI,
		})
	}
	return pb, nil
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func parseBool(s string, def bool) bool {
	if s == "" {
		return def
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return def
	}
	return b
}
