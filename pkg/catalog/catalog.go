// Package catalog is the fixed command descriptor table shared by every
// layer above the wire framer: opcode assignment, the subsets that drive
// password handling, the print-zone state machine, calibration eligibility,
// rollback targets, post-command quiet periods, and the vendor error-code
// classification tables. It is data, not behavior — pkg/codec, pkg/session
// and pkg/engine all key off these tables by command name.
package catalog

import (
	"time"

	"github.com/loremcross/cashcontrol/pkg/ferrors"
)

// Command describes one application-level command: its wire opcode and a
// human description (returned verbatim in logs and in error descriptions,
// never localized — see spec Non-goals).
type Command struct {
	Opcode      byte
	Description string
}

// Protocol-level handshake and framing bytes (spec §6).
const (
	ENQ byte = 0x05
	ACK byte = 0x06
	NAK byte = 0x15
	STX byte = 0x02
)

// Tunables (spec §6).
const (
	MaxTries      = 10
	TimeDeltaStep = 250 * time.Millisecond
	DefTimeout    = 2 * time.Second
)

// RATES enumerates the baud rates pkg/port tries during device discovery,
// in the order the vendor documentation lists them (fastest common rates
// first keeps discovery quick on devices that support them).
var RATES = []int{115200, 57600, 38400, 19200, 9600, 4800}

// Commands is the fixed opcode table. Descriptions are short one-line
// summaries, not a copy of the vendor manual.
var Commands = map[string]Command{
	"beep":                          {0x47, "sound the buzzer"},
	"cancel_check":                  {0x88, "cancel the open check"},
	"cash_income":                   {0x50, "cash-in"},
	"cash_outcome":                  {0x51, "cash-out"},
	"close_check":                   {0x85, "close the check"},
	"confirm_date":                  {0x22, "confirm the pending date"},
	"continue_print":                {0xB0, "resume a suspended print"},
	"cut_check":                     {0x25, "cut the check tape"},
	"feed_document":                 {0x29, "feed the tape"},
	"get_autocut_param":             {0x1D, "read the autocut table field"},
	"get_cash_reg":                  {0x1A, "read a cash register"},
	"get_device_metrics":            {0xFC, "read device metrics"},
	"get_exchange_param":            {0x18, "read exchange parameters"},
	"get_short_status":              {0x10, "read short status"},
	"get_status":                    {0x11, "read status"},
	"interrupt_test":                {0xE1, "interrupt the self-test run"},
	"open_session":                  {0x80, "open a work session"},
	"print_barcode":                 {0xC3, "print an EAN-13 barcode"},
	"print_image":                   {0xC6, "print a loaded image"},
	"print_line_barcode":            {0xC4, "print a barcode as a line"},
	"print_report_with_cleaning":    {0x82, "print the Z-report"},
	"print_report_without_cleaning": {0x81, "print the X-report"},
	"print_string":                  {0x2A, "print a line"},
	"print_wide_string":             {0x2A, "print a wide line"},
	"return_sale":                   {0x83, "register a return"},
	"sale":                          {0x8D, "register a sale"},
	"set_date":                      {0x23, "set the device date"},
	"set_time":                      {0x21, "set the device time"},
	"set_exchange_param":            {0x17, "write exchange parameters"},
	"init_cash_register":            {0x00, "initialize the session"},
	"find_device":                   {0x00, "scan ports for the device"},
	"check_dev_for_ready":           {0x00, "poll readiness"},
}

// NoNeedPassword is the subset of commands sent without the 4-byte password
// prefix.
var NoNeedPassword = set(
	"get_short_status", "get_status", "get_device_metrics",
	"get_exchange_param", "set_exchange_param", "confirm_date",
)

// CriticalCommands open or extend the critical print zone: a document is in
// progress and a break must be preceded by cancel_check.
var CriticalCommands = set("sale", "return_sale", "open_session")

// PostCriticalCommands close the critical zone but still expect trailing
// side effects (cut, beep).
var PostCriticalCommands = set("close_check")

// WaitingCommands are excluded from positive-delta calibration: their
// expected latency is inherently variable (report printing, barcode
// rendering) so a slow reply should not permanently inflate the timeout.
var WaitingCommands = set(
	"print_report_with_cleaning", "print_report_without_cleaning",
	"print_image", "print_barcode", "print_line_barcode",
)

// Rollbacks maps a critical command to the command that cancels it when the
// operator chooses to break mid-document.
var Rollbacks = map[string]string{
	"sale":         "cancel_check",
	"return_sale":  "cancel_check",
	"open_session": "cancel_check",
}

// FinalTime gives the mandatory post-command quiet period some commands
// require before the next command may be issued.
var FinalTime = map[string]time.Duration{
	"cut_check":                     300 * time.Millisecond,
	"print_report_with_cleaning":    500 * time.Millisecond,
	"print_report_without_cleaning": 500 * time.Millisecond,
}

// Errors is the vendor error-code table: description + recommended action.
var Errors = map[ferrors.Code]ferrors.Entry{
	0:    {Description: "no error", Action: ferrors.ActionContinue},
	5:    {Description: "wrong password", Action: ferrors.ActionBreak},
	16:   {Description: "cash register is not ready for this command", Action: ferrors.ActionBreak},
	20:   {Description: "EKLZ command overflow", Action: ferrors.ActionBreak},
	44:   {Description: "no paper - check the carriage", Action: ferrors.ActionWait},
	50:   {Description: "port is busy", Action: ferrors.ActionRetry},
	80:   {Description: "previous command is still printing", Action: ferrors.ActionRetry},
	84:   {Description: "the check is not open", Action: ferrors.ActionBreak},
	framePendingCode: {Description: "please cover the printer", Action: ferrors.ActionWait},
}

// framePendingCode is a placeholder vendor code giving the "wait"
// classification a second entry besides 44, distinct from "still printing"
// (80); named to avoid a magic literal beside 80 above.
const framePendingCode ferrors.Code = 88

// TimeDeltaErrors are device codes meaning "the previous command is still
// printing" — the engine polls readiness and retries rather than
// surfacing them to the operator.
var TimeDeltaErrors = map[ferrors.Code]struct{}{80: {}}

// WaitingErrors are device codes meaning "needs operator-visible time" —
// e.g. out of paper, cover open — classified as action=wait.
var WaitingErrors = map[ferrors.Code]struct{}{44: {}, framePendingCode: {}}

func set(names ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(names))
	for _, n := range names {
		out[n] = struct{}{}
	}
	return out
}

// Lookup returns the descriptor for name, and whether it is known.
func Lookup(name string) (Command, bool) {
	c, ok := Commands[name]
	return c, ok
}
