package profile

import (
	"os"
	"path/filepath"
	"testing"
)

func writeProfile(t *testing.T, xml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profile.xml")
	if err := os.WriteFile(path, []byte(xml), 0o644); err != nil {
		t.Fatalf("write temp profile: %v", err)
	}
	return path
}

func TestLoadParsesStatesAndStart(t *testing.T) {
	path := writeProfile(t, `<simulator>
  <start name="idle"/>
  <set name="imsi" value="001010000000001"/>
  <state name="idle">
    <chat>
      <command>AT+CIMI</command>
      <response>${imsi}</response>
    </chat>
  </state>
</simulator>`)

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.StartStateName != "idle" {
		t.Fatalf("StartStateName = %q, want idle", p.StartStateName)
	}
	if p.Variables["imsi"] != "001010000000001" {
		t.Fatalf("Variables[imsi] = %q", p.Variables["imsi"])
	}
	s := p.State("idle")
	if s == nil || len(s.Items) != 1 || s.Items[0].Chat == nil {
		t.Fatalf("idle state missing its chat item: %+v", s)
	}
	if s.Items[0].Chat.Command != "AT+CIMI" {
		t.Fatalf("Command = %q", s.Items[0].Chat.Command)
	}
}

func TestLoadSynthesizesMissingDefaultState(t *testing.T) {
	path := writeProfile(t, `<simulator><start name="idle"/></simulator>`)
	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	def := p.State("default")
	if def == nil {
		t.Fatal("expected a synthesized default state")
	}
}

func TestAutoWildcardFiresPastPositionTwo(t *testing.T) {
	path := writeProfile(t, `<simulator>
  <state name="default">
    <chat><command>ATD*</command><response>OK</response></chat>
    <chat><command wildcard="false">A*</command><response>OK</response></chat>
  </state>
</simulator>`)
	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	items := p.State("default").Items
	if !items[0].Chat.Wildcard {
		t.Fatalf("ATD* should auto-wildcard, got %+v", items[0].Chat)
	}
	if items[1].Chat.Wildcard {
		t.Fatalf("explicit wildcard=false should be honored, got %+v", items[1].Chat)
	}
}

func TestLoadCapturesApplicationRawBlockAttrs(t *testing.T) {
	path := writeProfile(t, `<simulator>
  <application type="conformance"/>
</simulator>`)
	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(p.Applications) != 1 {
		t.Fatalf("Applications = %+v, want one block", p.Applications)
	}
	if p.Applications[0].Attrs["type"] != "conformance" {
		t.Fatalf("Attrs[type] = %q, want conformance", p.Applications[0].Attrs["type"])
	}
}

func TestLoadParsesPhonebookSeed(t *testing.T) {
	path := writeProfile(t, `<simulator>
  <phonebook name="SM" size="10">
    <entry index="1" number="5551234567" name="Alice"/>
  </phonebook>
</simulator>`)
	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(p.Phonebooks) != 1 || p.Phonebooks[0].Name != "SM" {
		t.Fatalf("Phonebooks = %+v", p.Phonebooks)
	}
	if len(p.Phonebooks[0].Entries) != 1 || p.Phonebooks[0].Entries[0].Name != "Alice" {
		t.Fatalf("Entries = %+v", p.Phonebooks[0].Entries)
	}
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.xml")); err == nil {
		t.Fatal("expected an error for a missing profile file")
	}
}
