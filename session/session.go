// Package session wires every collaborator package into one per-connection
// Session: the command router (§4.2 of the design notes this module was
// built from), the rule engine, phonebook/PIN/CMUX handling, and the
// single-goroutine event loop that keeps wire reads and fired timers
// serialized against the same mutable state.
package session

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/sandia-minimega/phonesim/atutil"
	"github.com/sandia-minimega/phonesim/callid"
	"github.com/sandia-minimega/phonesim/callmgr"
	"github.com/sandia-minimega/phonesim/engine"
	"github.com/sandia-minimega/phonesim/framer"
	"github.com/sandia-minimega/phonesim/internal/logging"
	"github.com/sandia-minimega/phonesim/phonebook"
	"github.com/sandia-minimega/phonesim/profile"
	"github.com/sandia-minimega/phonesim/scheduler"
	"github.com/sandia-minimega/phonesim/simstore"
	"github.com/sandia-minimega/phonesim/simtoolkit"
	"github.com/sandia-minimega/phonesim/sms"
	"github.com/sandia-minimega/phonesim/variables"
)

var nextConnID int64

// Session owns every collaborator for one accepted connection and drives
// them from its own goroutine; nothing here is safe to call from another
// goroutine.
type Session struct {
	conn   net.Conn
	out    *bufio.Writer
	codec  *framer.Codec
	log    *logrus.Entry

	prof  *profile.Profile
	vars  *variables.Store
	calls *callid.Bitset
	sched *scheduler.Scheduler
	eng   *engine.Engine

	pbSet   *phonebook.Set
	toolkit *simtoolkit.Handler
	callMgr *callmgr.Manager
	smsList sms.List
	aid     AIDWrapper

	done chan struct{}
}

// AIDWrapper is the optional AID application wrapper named by the router
// precedence (§4.2 step 3): a caller-installed collaborator gets first
// look at every command the call manager didn't consume, ahead of the
// SIM toolkit and the rule engine. handled reports whether the wrapper
// consumed the command; a wrapper may consume a command silently by
// returning ("", true).
type AIDWrapper interface {
	Command(line string) (reply string, handled bool)
}

// SetAIDWrapper installs the AID application wrapper (nil by default,
// meaning the router precedence skips straight to the SIM toolkit).
func (s *Session) SetAIDWrapper(w AIDWrapper) {
	s.aid = w
}

// SetSMSList replaces the SMS store after construction (a simstore inbox
// by default); passing nil makes list_sms/read_sms/delete_sms no-ops.
func (s *Session) SetSMSList(list sms.List) {
	s.smsList = list
	s.eng.SetList(list)
}

// New builds a Session around an accepted connection and a parsed
// profile. Each Session gets its own copy of every mutable collaborator;
// prof itself is shared read-only state.
func New(conn net.Conn, prof *profile.Profile) *Session {
	id := fmt.Sprintf("c%d", atomic.AddInt64(&nextConnID, 1))

	s := &Session{
		conn:  conn,
		out:   bufio.NewWriter(conn),
		codec: framer.NewCodec(),
		log:   logging.WithConn(id),
		prof:  prof,
		vars:  variables.New(prof.Variables),
		calls: callid.New(),
		sched: scheduler.New(),
		pbSet:   phonebook.NewSet(),
		smsList: simstore.New(),
		done:    make(chan struct{}),
	}
	seedPhonebooks(s.pbSet, prof.Phonebooks)

	s.toolkit = simtoolkit.NewHandler()
	applyApplication(s.toolkit, prof.Applications)
	s.callMgr = callmgr.New(&dialGuard{pb: s.pbSet, vars: s.vars})
	s.callMgr.Notify = s.notifyCallControl
	s.eng = engine.New(prof, s.vars, s.calls, s.sched, s, s.smsList)
	return s
}

// notifyCallControl emits the "*TCC:" debug passthrough (§4.10): an
// opaque hex event with no bearing on dispatch, fired on the session's
// own goroutine whenever the call manager changes a call's state.
func (s *Session) notifyCallControl(evt []byte) {
	s.respondRaw("*TCC: "+atutil.ToHex(evt), engine.CurrentChannel)
}

// notifyModemHandled emits the "*HCMD:" debug echo (§4.10) of a command
// the SIM toolkit handler consumed, for the external hardware manipulator
// to log.
func (s *Session) notifyModemHandled(line string) {
	s.respondRaw("*HCMD: "+atutil.ToHex([]byte(line)), engine.CurrentChannel)
}

// applyApplication installs the SIM toolkit application a profile's
// <application type="..."> block names, if any. A profile with no
// application block (or an unrecognized type) keeps the handler's
// built-in DefaultApp.
func applyApplication(h *simtoolkit.Handler, blocks []*profile.RawBlock) {
	for _, b := range blocks {
		switch b.Attrs["type"] {
		case "conformance":
			h.SetApplication(simtoolkit.ConformanceApp{})
			return
		case "default":
			h.SetApplication(simtoolkit.DefaultApp{})
			return
		}
	}
}

func seedPhonebooks(set *phonebook.Set, seeds []profile.PhonebookSeed) {
	for _, seed := range seeds {
		pb := set.Ensure(seed.Name, seed.Size)
		for _, es := range seed.Entries {
			e := phonebook.Entry{
				Number:     es.Number,
				Name:       es.Name,
				Hidden:     es.Hidden,
				Group:      es.Group,
				AdNumber:   es.AdNumber,
				SecondText: es.SecondText,
				Email:      es.Email,
				SipURI:     es.SipURI,
				TelURI:     es.TelURI,
			}
			pb.Set(es.Index, &e)
		}
	}
}

// Write implements engine.Output: text is already fully formatted
// (escape-expanded, CRLF-terminated); it only needs 07.10 framing and a
// flush onto the wire.
func (s *Session) Write(channel int, text []byte) {
	ch := channel
	if ch == engine.CurrentChannel {
		ch = s.codec.CurrentChannel
	}
	out, err := s.codec.EncodeOutbound(ch, text)
	if err != nil {
		s.log.WithError(err).Warn("encode outbound frame")
		return
	}
	if _, err := s.out.Write(out); err != nil {
		s.log.WithError(err).Debug("write to peer")
		return
	}
	s.out.Flush()
}

// respondRaw runs text through the same escape/CRLF formatting the rule
// engine uses, for replies produced outside a matched chat item (call
// manager, phonebook, PIN change, SIM toolkit).
func (s *Session) respondRaw(text string, channel int) {
	s.Write(channel, atutil.FormatResponse(text, true))
}

// Run is the session's single event-loop goroutine: it serializes wire
// reads (pumped in by a dedicated reader goroutine) against fired
// scheduler tasks, so nothing here needs its own locking.
func (s *Session) Run() {
	defer s.sched.Close()
	defer s.conn.Close()

	reads := make(chan []byte, 16)
	readErr := make(chan error, 1)
	go s.readLoop(reads, readErr)

	for {
		select {
		case data, ok := <-reads:
			if !ok {
				return
			}
			for _, cmd := range s.codec.Feed(data) {
				s.handleLine(cmd)
			}
		case task := <-s.sched.Fired():
			s.eng.Drain(task)
		case err := <-readErr:
			if err != nil {
				s.log.WithError(err).Debug("connection closed")
			}
			return
		case <-s.done:
			return
		}
	}
}

// Close requests the event loop stop and releases the connection.
func (s *Session) Close() {
	close(s.done)
}

// Variable is a debug query hook reporting a variable's current value.
func (s *Session) Variable(name string) string { return s.eng.Variable(name) }

// StateName is a debug query hook reporting the active rule-engine state.
func (s *Session) StateName() string { return s.eng.StateName() }

func (s *Session) readLoop(reads chan<- []byte, errs chan<- error) {
	buf := make([]byte, 4096)
	for {
		n, err := s.conn.Read(buf)
		if n > 0 {
			chunk := append([]byte(nil), buf[:n]...)
			reads <- chunk
		}
		if err != nil {
			close(reads)
			errs <- err
			return
		}
	}
}

func (s *Session) handleLine(cmd framer.Command) {
	line := strings.TrimSpace(cmd.Text)
	if line == "" {
		return
	}
	s.log.WithField("channel", cmd.Channel).Debugf("< %s", line)
	s.dispatch(line, cmd.Channel)
}
