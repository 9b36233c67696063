package engine

import (
	"strconv"

	"github.com/sandia-minimega/phonesim/sms"
)

// doListSMS implements the list_sms action (spec §4.8): a no-op when no
// hardware manipulator SMS store is attached or the active message
// storage isn't "SM", otherwise the formatted +CMGL block.
func (e *Engine) doListSMS(channel int) {
	if e.list == nil {
		return
	}
	if e.vars.Get("MSGMEM") != "SM" {
		return
	}
	e.respond(sms.FormatCMGL(e.list.Entries()), 0, true, channel)
}

func (e *Engine) doReadSMS(wild string, channel int) {
	if e.list == nil {
		return
	}
	idx, err := strconv.Atoi(wild)
	if err != nil {
		e.respond("ERROR", 0, true, channel)
		return
	}
	for _, ent := range e.list.Entries() {
		if ent.Index == idx && !ent.Deleted {
			e.respond(sms.FormatCMGR(ent), 0, true, channel)
			return
		}
	}
	e.respond("ERROR", 0, true, channel)
}

func (e *Engine) doDeleteSMS(wild string, channel int) {
	if e.list == nil {
		return
	}
	idx, err := strconv.Atoi(wild)
	if err != nil {
		e.respond("ERROR", 0, true, channel)
		return
	}
	if e.list.MarkDeleted(idx) {
		e.respond("OK", 0, true, channel)
		return
	}
	e.respond("ERROR", 0, true, channel)
}
