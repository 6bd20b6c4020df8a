// Package engine wraps a device session with command-level retry and error
// classification, producing the response envelope the executor consumes.
// Grounded in device_types/shtrih/shtrih_cash_register.py's ShtrihCashRegister
// (make_action/analyse_result/check_dev_for_ready) from the retrieval pack's
// original_source.
package engine

import (
	"time"

	"github.com/loremcross/cashcontrol/pkg/catalog"
	"github.com/loremcross/cashcontrol/pkg/codec"
	"github.com/loremcross/cashcontrol/pkg/ferrors"
	"github.com/loremcross/cashcontrol/pkg/session"
)

// Action is the response envelope's recommended next step.
type Action int

const (
	Continue Action = iota
	Retry
	Break
	Wait
)

// Response is the envelope every engine operation returns.
type Response struct {
	Command             string
	Action              Action
	Exception           error
	IsCritical          bool
	Data                map[string]any
	Delta               time.Duration
	DeltaForLastCommand time.Duration
}

// Encoder produces the wire parameter bytes for one command; it takes no
// arguments of its own. Request-codec functions in
// pkg/codec have varied, command-specific signatures, so the engine takes a
// pre-bound closure per call rather than dispatching on name itself.
type Encoder func() []byte

// Decoder turns a successful reply's raw bytes into the envelope's Data map.
// A nil Decoder means the reply carries no structured payload worth
// decoding beyond the default session fields.
type Decoder func(data []byte) (map[string]any, error)

// Engine holds the session it drives and the vendor error-classification
// tables from pkg/catalog.
type Engine struct {
	sess *session.Session
}

// New builds an Engine over an already-constructed Session.
func New(sess *session.Session) *Engine { return &Engine{sess: sess} }

func (e *Engine) prepareResponse(command string) Response {
	return Response{
		Command:    command,
		Action:     Continue,
		IsCritical: e.sess.PrintZone() == session.Critical,
		Data:       map[string]any{},
	}
}

// MakeAction encodes params via encode, issues the command up to
// catalog.MaxTries times through the session, classifies any device error,
// and decodes a successful reply via decode.
func (e *Engine) MakeAction(name string, timeout time.Duration, encode Encoder, decode Decoder) Response {
	var params []byte
	if encode != nil {
		params = encode()
	}

	var accDelta, accLastDelta time.Duration

	for i := 0; i < catalog.MaxTries; i++ {
		err := e.sess.Call(name, params, timeout)
		var response Response

		if err != nil {
			response = e.prepareResponse(name)
			response.Action = Break
			response.Exception = err
			return response
		}

		response = e.analyseResult(name, decode)

		if response.Action == Retry {
			accDelta += response.Delta
			accLastDelta += response.DeltaForLastCommand
			continue
		}

		response.Delta += accDelta
		response.DeltaForLastCommand += accLastDelta
		return response
	}

	response := e.prepareResponse(name)
	response.Action = Break
	response.Exception = ferrors.NewCommandError(ferrors.ErrCommandTimeout)
	return response
}

func (e *Engine) analyseResult(name string, decode Decoder) Response {
	response := e.prepareResponse(name)
	result := e.sess.Result()

	if !result.HasError {
		data := map[string]any{}
		if decode != nil {
			if decoded, err := decode(result.Data); err == nil {
				data = decoded
			}
		}
		response.Data = data
		response.Delta = result.Delta
		response.DeltaForLastCommand = result.DeltaForLastCommand
		return response
	}

	code := ferrors.Code(result.ErrCode)

	if _, isTimeDelta := catalog.TimeDeltaErrors[code]; isTimeDelta {
		lastDelta := result.DeltaForLastCommand
		for i := 0; i < catalog.MaxTries; i++ {
			ready, err := e.checkDevForReady()
			if err != nil {
				break
			}
			if ready {
				response.Action = Retry
				response.DeltaForLastCommand = lastDelta
				return response
			}
			lastDelta += catalog.TimeDeltaStep
		}
		response.Action = Break
		response.Exception = ferrors.NewRuntimeError(code, catalog.Errors)
		return response
	}

	if _, isWaiting := catalog.WaitingErrors[code]; isWaiting {
		response.Action = Wait
		response.Exception = ferrors.NewRuntimeError(code, catalog.Errors)
		return response
	}

	runtimeErr := ferrors.NewRuntimeError(code, catalog.Errors)
	response.Exception = runtimeErr
	if runtimeErr.Action() == ferrors.ActionBreak {
		response.Action = Break
	} else {
		response.Action = Retry
	}
	return response
}

// checkDevForReady issues get_short_status and reports whether
// cashcontrol_submode is 0, mirroring _check_for_ready.
func (e *Engine) checkDevForReady() (bool, error) {
	if err := e.sess.Call("get_short_status", nil, 0); err != nil {
		return false, err
	}
	result := e.sess.Result()
	if result.HasError || len(result.Data) == 0 {
		return false, nil
	}
	status, err := codec.DecodeGetShortStatus(result.Data)
	if err != nil {
		return false, nil
	}
	return codec.IsReady(status), nil
}

// RollbackAction runs the rollback command registered for the session's
// last critical command, if any.
func (e *Engine) RollbackAction() *Response {
	rollback, ok := catalog.Rollbacks[e.sess.LastCriticalCommand()]
	if !ok {
		return nil
	}
	resp := e.MakeAction(rollback, 0, nil, nil)
	return &resp
}

// FindDevice and InitCashRegister are engine-level wrappers kept distinct
// from port.Handle.FindDevice/Open so they can produce the same Response
// envelope shape the executor expects from every other command.
func (e *Engine) FindDevice(find func() (string, int, error)) Response {
	response := e.prepareResponse("find_device")
	name, baud, err := find()
	if err != nil {
		response.Action = Break
		response.Exception = err
		return response
	}
	response.Data = map[string]any{"port": name, "rate": baud}
	return response
}

func (e *Engine) InitCashRegister(open func() error) Response {
	response := e.prepareResponse("init_cash_register")
	if err := open(); err != nil {
		response.Action = Break
		response.Exception = err
		return response
	}
	ready, err := e.checkDevForReady()
	if err != nil {
		response.Action = Break
		response.Exception = err
		return response
	}
	response.Data = map[string]any{"ready": ready}
	return response
}
