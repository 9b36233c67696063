// Package engine implements the rule tree's matching and dispatch
// algorithm: given an AT command line and the active state, find the
// first matching chat item, run its actions in the fixed order the rule
// profile documents, and arm the unsolicited timers for whatever state
// comes out the other side.
package engine

import (
	"strconv"
	"strings"
	"time"

	"github.com/sandia-minimega/phonesim/atutil"
	"github.com/sandia-minimega/phonesim/callid"
	"github.com/sandia-minimega/phonesim/profile"
	"github.com/sandia-minimega/phonesim/scheduler"
	"github.com/sandia-minimega/phonesim/sms"
	"github.com/sandia-minimega/phonesim/variables"
)

// CurrentChannel is the sentinel passed to Output.Write for unsolicited
// emissions, which always target whatever channel is current on the GSM
// 07.10 mux. Delayed chat responses do not use it: they keep the channel
// the triggering command arrived on.
const CurrentChannel = -1

// Output is the byte sink the engine writes formatted response text to;
// the owning session implements it on top of its framer.Codec.
type Output interface {
	Write(channel int, text []byte)
}

type responseTask struct {
	channel int
	text    []byte
}

type variableSetTask struct {
	set variables.ScheduledSet
}

type unsolicitedTask struct {
	item  *profile.UnsolicitedItem
	state *profile.State
}

// Engine owns the rule profile, the variable store, and the call id
// bitset, and drives them from matched commands and fired timers.
type Engine struct {
	prof  *profile.Profile
	vars  *variables.Store
	calls *callid.Bitset
	sched *scheduler.Scheduler
	out   Output
	list  sms.List

	current *profile.State
	timers  map[*profile.UnsolicitedItem]scheduler.Handle
}

// New builds an Engine positioned at the profile's start state (or its
// default state if StartStateName is unset or unknown), arming that
// state's unsolicited timers. list may be nil, meaning no hardware
// manipulator SMS store is attached.
func New(prof *profile.Profile, vars *variables.Store, calls *callid.Bitset, sched *scheduler.Scheduler, out Output, list sms.List) *Engine {
	e := &Engine{
		prof:   prof,
		vars:   vars,
		calls:  calls,
		sched:  sched,
		out:    out,
		list:   list,
		timers: map[*profile.UnsolicitedItem]scheduler.Handle{},
	}
	start := prof.State(prof.StartStateName)
	if start == nil {
		start = prof.Default()
	}
	e.current = start
	e.enterState(e.current)
	return e
}

// StateName reports the currently active state's name (a debug query
// hook; see SPEC_FULL.md §4.11).
func (e *Engine) StateName() string { return e.current.Name }

// Variable reads a variable verbatim (another debug query hook).
func (e *Engine) Variable(name string) string { return e.vars.Get(name) }

// SetList attaches (or detaches, with nil) the hardware manipulator's SMS
// store after construction.
func (e *Engine) SetList(list sms.List) { e.list = list }

// Dispatch tries to match cmdLine against the active state, then against
// the default state if the active state is not itself the default and
// found no match there. It reports whether any item matched.
func (e *Engine) Dispatch(cmdLine string, channel int) bool {
	if e.dispatchState(e.current, cmdLine, channel) {
		return true
	}
	if e.current != e.prof.Default() {
		return e.dispatchState(e.prof.Default(), cmdLine, channel)
	}
	return false
}

func (e *Engine) dispatchState(state *profile.State, cmdLine string, channel int) bool {
	for _, item := range state.Items {
		ci := item.Chat
		if ci == nil {
			continue
		}
		pattern := e.vars.Expand(ci.Command)
		wild, ok := match(pattern, cmdLine, ci.Wildcard)
		if !ok {
			continue
		}
		e.execute(ci, wild, channel)
		return true
	}
	return false
}

// match reports whether input satisfies pattern. A non-wildcard pattern
// requires exact equality. A wildcard pattern splits at its first '*'
// into a required prefix and suffix and returns the substring the '*'
// captured.
func match(pattern, input string, wildcard bool) (wild string, ok bool) {
	if !wildcard {
		return "", input == pattern
	}
	star := strings.IndexByte(pattern, '*')
	if star < 0 {
		return "", input == pattern
	}
	prefix, suffix := pattern[:star], pattern[star+1:]
	if len(input) < len(prefix)+len(suffix) {
		return "", false
	}
	if !strings.HasPrefix(input, prefix) || !strings.HasSuffix(input, suffix) {
		return "", false
	}
	return input[star : len(input)-len(suffix)], true
}

// execute runs a matched chat item's actions in the fixed order: response
// emission (unless this item is one of the SMS list/read/delete actions),
// variable assignments, state switch, new-call allocation, forget-call,
// and finally the SMS action itself.
func (e *Engine) execute(ci *profile.ChatItem, wild string, channel int) {
	taggedSMS := ci.ListSMS || ci.ReadSMS || ci.DeleteSMS
	if !taggedSMS {
		e.respond(substituteWild(ci.Response, wild), ci.ResponseDelayMS, ci.EOL, channel)
	}

	for _, a := range ci.Assignments {
		e.assign(a, wild)
	}

	if ci.SwitchTo != "" {
		e.SwitchState(ci.SwitchTo)
	}
	if ci.NewCallVar != "" {
		if id, ok := e.calls.NewCall(); ok {
			e.vars.SetRaw(ci.NewCallVar, strconv.Itoa(id))
		}
	}
	if ci.ForgetCallID != "" {
		e.forgetCall(ci.ForgetCallID, wild)
	}

	switch {
	case ci.ListSMS:
		e.doListSMS(channel)
	case ci.ReadSMS:
		e.doReadSMS(wild, channel)
	case ci.DeleteSMS:
		e.doDeleteSMS(wild, channel)
	}
}

func (e *Engine) assign(a profile.Assignment, wild string) {
	var val string
	switch {
	case a.Value == "*":
		val = wild
	case strings.Contains(a.Value, "${*}"):
		val = strings.ReplaceAll(a.Value, "${*}", atutil.StripTrailingSub(wild))
	default:
		val = a.Value
	}
	if a.DelayMS <= 0 {
		e.vars.Set(a.Variable, val)
		return
	}
	delay := time.Duration(a.DelayMS) * time.Millisecond
	sc := e.vars.PrepareScheduledSet(a.Variable, val, delay)
	e.sched.After(delay, variableSetTask{set: sc})
}

func (e *Engine) forgetCall(spec, wild string) {
	if spec == "*" {
		if wild == "" {
			e.calls.ForgetAll()
			return
		}
		if id, err := strconv.Atoi(wild); err == nil {
			e.calls.Forget(id)
		}
		return
	}
	if id, err := strconv.Atoi(e.vars.Expand(spec)); err == nil {
		e.calls.Forget(id)
	}
}

func substituteWild(s, wild string) string {
	return strings.ReplaceAll(s, "${*}", wild)
}

// respond runs the response pipeline: real ${name} variables are expanded
// (${*} wildcard substitution already happened in the caller), the result
// is escape-expanded and CRLF-terminated, and then either written
// immediately or armed as a scheduler task.
func (e *Engine) respond(text string, delayMS int, eol bool, channel int) {
	expanded := e.vars.Expand(text)
	wire := atutil.FormatResponse(expanded, eol)
	if delayMS <= 0 {
		e.out.Write(channel, wire)
		return
	}
	e.sched.After(time.Duration(delayMS)*time.Millisecond, responseTask{channel: channel, text: wire})
}

// SwitchState cancels the current state's unsolicited timers, makes name
// the active state, and arms name's unsolicited timers. An unknown state
// name is a no-op (the session stays where it is).
func (e *Engine) SwitchState(name string) {
	next := e.prof.State(name)
	if next == nil {
		return
	}
	e.leaveState(e.current)
	e.current = next
	e.enterState(next)
}

func (e *Engine) leaveState(state *profile.State) {
	for _, item := range state.Items {
		if item.Unsolicited == nil {
			continue
		}
		if h, ok := e.timers[item.Unsolicited]; ok {
			e.sched.Cancel(h)
			delete(e.timers, item.Unsolicited)
		}
	}
}

func (e *Engine) enterState(state *profile.State) {
	for _, item := range state.Items {
		ui := item.Unsolicited
		if ui == nil {
			continue
		}
		if ui.Once && ui.Fired() {
			continue
		}
		h := e.sched.After(time.Duration(ui.DelayMS)*time.Millisecond, unsolicitedTask{item: ui, state: state})
		e.timers[ui] = h
	}
}

// Drain interprets one fired scheduler.Task, dispatching it to whichever
// handler understands its payload type. The owning session's event loop
// calls this for everything it reads off scheduler.Scheduler.Fired().
func (e *Engine) Drain(task scheduler.Task) {
	switch p := task.Payload().(type) {
	case responseTask:
		e.out.Write(p.channel, p.text)
	case variableSetTask:
		e.vars.Apply(p.set)
	case unsolicitedTask:
		e.fireUnsolicited(p.item, p.state)
	}
}

func (e *Engine) fireUnsolicited(item *profile.UnsolicitedItem, state *profile.State) {
	if state != e.current {
		// The state was left (and its timers cancelled) but this task was
		// already in flight on the scheduler's channel; drop it rather
		// than emit into a state the session no longer occupies.
		return
	}
	delete(e.timers, item)
	e.respond(item.Response, 0, true, CurrentChannel)
	if item.Once {
		item.MarkFired()
	}
	if item.SwitchTo != "" {
		e.SwitchState(item.SwitchTo)
	}
}
