// Package executor turns one engine call into a dialog the caller drives: a
// lazy sequence of reaction-request records for attempts that need operator
// input, resumed by the caller's chosen reaction. Grounded in the retry loop
// shape of device_types/shtrih/shtrih_cash_register.py's make_action, lifted
// one level up from "retry automatically" to "ask the caller how to
// proceed" per spec.md §4.6 — implemented as an explicit pull iterator
// rather than the Python source's generator-decorator.
package executor

import (
	"time"

	"github.com/loremcross/cashcontrol/pkg/catalog"
	"github.com/loremcross/cashcontrol/pkg/engine"
	"github.com/loremcross/cashcontrol/pkg/ferrors"
	"github.com/loremcross/cashcontrol/pkg/smart"
)

// Reaction is the caller's chosen response to a ReactionRequest.
type Reaction int

const (
	ReactionRetry Reaction = iota
	ReactionBreak
	ReactionSkip
)

// ReactionRequest describes one suspension point: the exception that
// triggered it and the menu of reactions the caller may choose from.
type ReactionRequest struct {
	Command   string
	Exception error
	Cases     []Reaction
	Response  engine.Response
}

// call is the unit of work a Dialog steps through: a pre-bound engine
// invocation the executor can retry without the caller re-supplying
// arguments.
type call struct {
	name    string
	timeout time.Duration
	encode  engine.Encoder
	decode  engine.Decoder
}

// Executor owns the engine it drives and the SMART store it calibrates
// after every command.
type Executor struct {
	eng   *engine.Engine
	store smart.Store

	lastCommand string

	notify func(command string, action engine.Action)
}

// New builds an Executor. notify may be nil; when set, it is invoked after
// every completed command — the optional Redis pub/sub hook from
// SPEC_FULL.md §4.6, not required for correctness.
func New(eng *engine.Engine, store smart.Store, notify func(string, engine.Action)) *Executor {
	return &Executor{eng: eng, store: store, notify: notify}
}

// Dialog drives one command through up to ten attempts, yielding a
// ReactionRequest whenever it needs the caller's input and resuming from
// Resume's choice. It is a pull iterator: construct it with Run, then call
// Reaction() in a loop until it reports done.
type Dialog struct {
	x       *Executor
	call    call
	pending *ReactionRequest
	final   *engine.Response
	attempt int
}

const maxAttempts = 10

// Run starts a dialog for one command invocation.
func (x *Executor) Run(name string, timeout time.Duration, encode engine.Encoder, decode engine.Decoder) *Dialog {
	d := &Dialog{x: x, call: call{name: name, timeout: timeout, encode: encode, decode: decode}}
	d.step(0, 0)
	return d
}

// Reaction returns the next pending reaction request, if any, and whether
// the dialog has one to offer. When it returns (nil, false), Result is
// ready to read.
func (d *Dialog) Reaction() (*ReactionRequest, bool) {
	if d.pending == nil {
		return nil, false
	}
	return d.pending, true
}

// Result returns the final response once the dialog has no more pending
// reactions.
func (d *Dialog) Result() engine.Response {
	if d.final != nil {
		return *d.final
	}
	return engine.Response{}
}

// Resume supplies the caller's choice for the currently pending reaction
// request and advances the dialog.
func (d *Dialog) Resume(choice Reaction) {
	if d.pending == nil {
		return
	}
	resp := d.pending.Response
	d.pending = nil

	switch choice {
	case ReactionBreak:
		if resp.IsCritical {
			d.x.eng.RollbackAction()
		}
		d.finish(resp)
	case ReactionSkip:
		d.finish(resp)
	case ReactionRetry:
		wait := resp.Delta
		if wait < time.Second {
			wait = time.Second
		}
		if resp.Action == engine.Wait {
			time.Sleep(wait)
		}
		d.step(d.attempt, resp.Delta)
	}
}

func (d *Dialog) step(attempt int, accDelta time.Duration) {
	if attempt >= maxAttempts {
		resp := engine.Response{
			Command:   d.call.name,
			Action:    engine.Break,
			Exception: ferrors.NewConnectionError(ferrors.ErrLostDevice),
		}
		d.finish(resp)
		return
	}

	resp := d.x.eng.MakeAction(d.call.name, d.call.timeout, d.call.encode, d.call.decode)
	resp.Delta += accDelta
	d.attempt = attempt + 1

	switch resp.Action {
	case engine.Continue:
		d.finish(resp)
	case engine.Break:
		cases := []Reaction{ReactionBreak}
		if !resp.IsCritical {
			cases = append(cases, ReactionRetry)
		}
		d.pending = &ReactionRequest{Command: d.call.name, Exception: resp.Exception, Cases: cases, Response: resp}
	case engine.Retry:
		if resp.Exception == nil {
			d.step(d.attempt, resp.Delta)
			return
		}
		d.pending = &ReactionRequest{Command: d.call.name, Exception: resp.Exception, Cases: []Reaction{ReactionRetry}, Response: resp}
	case engine.Wait:
		d.pending = &ReactionRequest{
			Command:   d.call.name,
			Exception: resp.Exception,
			Cases:     []Reaction{ReactionSkip, ReactionRetry, ReactionBreak},
			Response:  resp,
		}
	}
}

func (d *Dialog) finish(resp engine.Response) {
	d.final = &resp
	d.x.calibrate(resp)
	if d.x.notify != nil {
		d.x.notify(resp.Command, resp.Action)
	}
}

// calibrate applies the SMART formula from spec.md §4.6 after every
// completed command and commits the merged metrics.
func (x *Executor) calibrate(resp engine.Response) {
	device := x.store.Device()
	commands := x.store.Commands()

	prevMetric := commands[x.lastCommand]
	currentMetric := commands[resp.Command]

	_, isWaiting := catalog.WaitingCommands[resp.Command]
	updatedPrev, updatedCurrent := smart.Calibrate(
		x.lastCommand, resp.Command, prevMetric, currentMetric,
		resp.DeltaForLastCommand, resp.Delta, isWaiting,
	)

	if x.lastCommand != "" {
		commands[x.lastCommand] = updatedPrev
	}
	commands[resp.Command] = updatedCurrent

	_ = x.store.Save(device, commands)
	x.lastCommand = resp.Command
}
