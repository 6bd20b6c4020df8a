// Package script stands in for the command engine during receipt-template
// rendering (out of scope here — see SPEC_FULL.md §1): a Recorder collects
// commands instead of executing them, Replay later turns the recorded
// sequence into invocations with SMART-patched timeouts, and RunAll hands
// each invocation to a caller callback that runs it on a real engine.
// Grounded in spec.md §4.8; there is no direct Python source for this
// layer (original_source's template rendering is the excluded collaborator)
// so the timeout-patching rule is implemented exactly as spec.md states it.
package script

import (
	"time"

	"github.com/loremcross/cashcontrol/pkg/engine"
	"github.com/loremcross/cashcontrol/pkg/smart"
)

// Entry is one recorded command invocation.
type Entry struct {
	Command string
	Args    []any
	Kwargs  map[string]any
}

// Recorder appends commands to an ordered list instead of executing them.
type Recorder struct {
	entries []Entry
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder { return &Recorder{} }

// Record appends one command invocation.
func (r *Recorder) Record(command string, args []any, kwargs map[string]any) {
	r.entries = append(r.entries, Entry{Command: command, Args: args, Kwargs: kwargs})
}

// Entries returns the recorded sequence in order.
func (r *Recorder) Entries() []Entry { return r.entries }

// Invocation is what Replay hands the caller for each recorded entry: the
// command name, the patched timeout to use, and the original args/kwargs.
type Invocation struct {
	Entry
	Timeout time.Duration
}

// Replay walks entries and yields one Invocation per recorded command,
// patching the timeout from store's metrics per spec.md §4.8: if the
// command has a stored metric, timeout = |stored|; if the previous entry
// also had a metric whose stored timeout exceeds the current command's,
// add the previous one too (anticipates the post-print wait). A caller
// runs each Invocation through an *engine.Engine itself — this function
// only computes the sequence and timeouts, since the engine's Encoder per
// command has no single generic shape to dispatch on here.
func Replay(entries []Entry, store smart.Store) []Invocation {
	commands := store.Commands()
	out := make([]Invocation, 0, len(entries))

	var prevName string
	var havePrev bool

	for _, e := range entries {
		metric, ok := commands[e.Command]
		var timeout time.Duration
		if ok {
			timeout = abs(metric.Timeout)
		}
		if ok && havePrev {
			if prevMetricStored, ok := commands[prevName]; ok {
				if abs(prevMetricStored.Timeout) > timeout {
					timeout += abs(prevMetricStored.Timeout)
				}
			}
		}

		out = append(out, Invocation{Entry: e, Timeout: timeout})

		prevName = e.Command
		havePrev = true
	}

	return out
}

func abs(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// RunAll drives eng through every invocation in order via run, a caller
// callback that knows how to encode/decode each command by name. It
// returns the last response observed, or a zero Response if entries was
// empty — the "terminating sentinel" spec.md describes.
func RunAll(entries []Entry, store smart.Store, eng *engine.Engine, run func(inv Invocation) engine.Response) engine.Response {
	var last engine.Response
	for _, inv := range Replay(entries, store) {
		last = run(inv)
	}
	return last
}
