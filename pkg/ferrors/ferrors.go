// Package ferrors defines the error classes the driver raises: device-reported
// runtime errors, connection errors, and command errors. Each carries a vendor
// code, a description and a recommended Action so callers upstream (the
// command engine, the executor) can classify a failure without string
// matching.
package ferrors

import "fmt"

// Action is the recommended reaction to an error, mirroring the vendor error
// table's second column.
type Action string

const (
	ActionContinue Action = "continue"
	ActionRetry    Action = "retry"
	ActionBreak    Action = "break"
	ActionWait     Action = "wait"
)

// Code is a vendor-assigned error code.
type Code int

// Entry describes one vendor error code: its human description and the
// recommended reaction.
type Entry struct {
	Description string
	Action      Action
}

// RuntimeError is a device-reported error: the device answered with a
// non-zero err_code. Description and Action are looked up from the vendor
// table supplied at construction (see catalog.Errors).
type RuntimeError struct {
	code        Code
	description string
	action      Action
}

// NewRuntimeError builds a RuntimeError, defaulting to ActionBreak and a
// generic description when code is not present in the table.
func NewRuntimeError(code Code, table map[Code]Entry) *RuntimeError {
	if e, ok := table[code]; ok {
		return &RuntimeError{code: code, description: e.Description, action: e.Action}
	}
	return &RuntimeError{code: code, description: "unknown device error", action: ActionBreak}
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("device error %d: %s", e.code, e.description)
}

func (e *RuntimeError) Code() Code              { return e.code }
func (e *RuntimeError) Description() string     { return e.description }
func (e *RuntimeError) Action() Action          { return e.action }
func (e *RuntimeError) Serialize() map[string]any {
	return map[string]any{
		"error":       "RuntimeError",
		"message":     e.Error(),
		"code":        int(e.code),
		"description": e.description,
		"action":      string(e.action),
	}
}

// customErrorClass is shared by ConnectionError and CommandError: both are
// raised by this driver itself (not by the device) and are always Action
// break.
type customErrorClass struct {
	class       string
	code        Code
	description string
}

func (e *customErrorClass) Error() string {
	return fmt.Sprintf("%s error %d: %s", e.class, e.code, e.description)
}

func (e *customErrorClass) Code() Code          { return e.code }
func (e *customErrorClass) Description() string { return e.description }
func (e *customErrorClass) Action() Action      { return ActionBreak }
func (e *customErrorClass) Serialize() map[string]any {
	return map[string]any{
		"error":       e.class,
		"message":     e.Error(),
		"code":        int(e.code),
		"description": e.description,
		"action":      string(ActionBreak),
	}
}

// Custom error codes, shared by ConnectionError and CommandError.
const (
	ErrOpeningPort    Code = -1
	ErrLostDevice     Code = -2
	ErrUnknownCommand Code = -3
	ErrCommandTimeout Code = -4
)

var customDescriptions = map[Code]string{
	ErrOpeningPort:    "failed to open serial port",
	ErrLostDevice:     "device is not responding",
	ErrUnknownCommand: "unknown command opcode",
	ErrCommandTimeout: "command did not complete within the retry budget",
}

// ConnectionError reports that the serial port could not be opened or that
// the device stopped answering.
type ConnectionError struct{ customErrorClass }

func NewConnectionError(code Code) *ConnectionError {
	return &ConnectionError{customErrorClass{
		class: "ConnectionError", code: code, description: customDescriptions[code],
	}}
}

// CommandError reports an unknown opcode or a retry budget exhausted at the
// command-engine level.
type CommandError struct{ customErrorClass }

func NewCommandError(code Code) *CommandError {
	return &CommandError{customErrorClass{
		class: "CommandError", code: code, description: customDescriptions[code],
	}}
}
