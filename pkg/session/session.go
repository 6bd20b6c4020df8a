// Package session drives one device over a wire framer: a single public
// operation, Call, that issues one command and collects one reply, tracking
// the print-zone state machine and the per-call delta accounting the SMART
// layer later consumes. Grounded in device_types/shtrih/shtrih.py's Shtrih
// class from the retrieval pack's original_source — __call__, __check_state,
// __write, __read become Call and its private helpers here.
package session

import (
	"time"

	"github.com/loremcross/cashcontrol/pkg/catalog"
	"github.com/loremcross/cashcontrol/pkg/ferrors"
	"github.com/loremcross/cashcontrol/pkg/logging"
	"github.com/loremcross/cashcontrol/pkg/transport"
)

// PrintZone is the document print-zone state machine.
type PrintZone int

const (
	NonCritical PrintZone = iota
	Critical
	PostCritical
)

// Result is the accumulated record of one Call, returned and cleared by
// Result().
type Result struct {
	Opcode              byte
	Command             string
	ErrCode             byte
	HasError            bool
	Data                []byte
	Delta               time.Duration
	DeltaForLastCommand time.Duration
}

// Password is the fixed 4-byte credential sent with every command outside
// catalog.NoNeedPassword.
type Password [4]byte

// Session owns one open framer and the print-zone/last-critical-command
// state a single device session accumulates across calls.
type Session struct {
	framer   *transport.Framer
	password Password
	log      *logging.Logger

	result Result

	printZone             PrintZone
	lastCriticalCommand   string
	lastCommandIsPrinting bool
}

// New builds a Session over an already-open framer.
func New(framer *transport.Framer, password Password, log *logging.Logger) *Session {
	return &Session{framer: framer, password: password, log: log}
}

// PrintZone reports the current print-zone state.
func (s *Session) PrintZone() PrintZone { return s.printZone }

// LastCriticalCommand reports the most recent command that opened or
// extended the critical print zone.
func (s *Session) LastCriticalCommand() string { return s.lastCriticalCommand }

// Call issues one command cycle: pre-check, line-state probe, send,
// bounded read loop, and post-processing. waitTime of zero selects
// catalog.DefTimeout.
func (s *Session) Call(name string, params []byte, waitTime time.Duration) error {
	cmd, ok := catalog.Lookup(name)
	if !ok {
		return ferrors.NewCommandError(ferrors.ErrUnknownCommand)
	}

	s.result = Result{Opcode: cmd.Opcode, Command: name}

	switch s.framer.CheckState() {
	case transport.ReplyPending:
		s.framer.Drain()
	case transport.NoSignal:
		return ferrors.NewConnectionError(ferrors.ErrLostDevice)
	case transport.Ready:
	}

	if waitTime == 0 {
		waitTime = catalog.DefTimeout
	}

	_, needsPassword := catalog.NoNeedPassword[name]
	needsPassword = !needsPassword
	password := []byte{}
	if needsPassword {
		password = s.password[:]
	}

	if s.framer.Send(cmd.Opcode, needsPassword, password, params) == transport.SendNoSignal {
		return ferrors.NewConnectionError(ferrors.ErrLostDevice)
	}

	var errCode byte
	var data []byte
	firstTry := true
	gotReply := false

	for tries := 0; tries < catalog.MaxTries; tries++ {
		result, _, code, d, err := s.framer.Read()
		if err != nil {
			return ferrors.NewConnectionError(ferrors.ErrLostDevice)
		}

		if result == transport.ReadRetry {
			firstTry = false
			if s.lastCommandIsPrinting {
				s.result.DeltaForLastCommand += catalog.TimeDeltaStep
			} else {
				s.result.Delta += catalog.TimeDeltaStep
			}
			time.Sleep(catalog.TimeDeltaStep)
			continue
		}

		errCode = code
		data = d
		if _, isTimeDelta := catalog.TimeDeltaErrors[ferrors.Code(errCode)]; isTimeDelta {
			s.result.DeltaForLastCommand += catalog.TimeDeltaStep
			time.Sleep(catalog.TimeDeltaStep)
		}
		gotReply = true
		break
	}
	if !gotReply {
		return ferrors.NewConnectionError(ferrors.ErrLostDevice)
	}

	s.lastCommandIsPrinting = false
	s.result.Data = data

	if errCode != 0 {
		s.result.HasError = true
		s.result.ErrCode = errCode
		return nil
	}

	if _, isCritical := catalog.CriticalCommands[name]; isCritical {
		s.printZone = Critical
		s.lastCriticalCommand = name
	} else if _, isPostCritical := catalog.PostCriticalCommands[name]; isPostCritical {
		s.printZone = PostCritical
	}

	if firstTry {
		s.result.Delta -= catalog.TimeDeltaStep
	}

	if quiet, ok := catalog.FinalTime[name]; ok {
		time.Sleep(quiet)
	}

	return nil
}

// Result returns the accumulated record from the most recent Call and
// clears it, so each command starts from a fresh slate.
func (s *Session) Result() Result {
	r := s.result
	s.result = Result{}
	return r
}
