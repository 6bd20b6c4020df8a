// Package codec packs application-level command parameters into the byte
// layouts the vendor protocol expects, and decodes reply payloads back into
// structured fields. Each command has a pure encode function and (where the
// reply carries more than an operator id) a pure decode function; grounded
// in device_types/shtrih/shtrih_middleware.py's ShtrihPrepareRequest and
// ShtrihPrepareResponse classes from the retrieval pack's original_source.
package codec

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/loremcross/cashcontrol/pkg/wirebytes"
)

// Profile parameterizes the handful of commands whose wire layout differs
// between the Shtrih and RR device families. It is composition, not
// inheritance: one codec, two Profile values.
type Profile struct {
	Name             string
	CheckWidth       int
	AutocutTable     byte
	AutocutRow       byte
	AutocutField     byte
}

// Shtrih is the default profile: check width 38, autocut table 1/row 1/field 8.
var Shtrih = Profile{Name: "Shtrih", CheckWidth: 38, AutocutTable: 1, AutocutRow: 1, AutocutField: 8}

// RR addresses a different autocut field (7) and prints a wider check.
var RR = Profile{Name: "RR", CheckWidth: 48, AutocutTable: 1, AutocutRow: 1, AutocutField: 7}

// money packs a value in currency units as a signed 32-bit hundredths
// integer, little-endian, padded with a trailing 0x00 to a 5-byte field —
// the "i32 || 0x00" shape spec.md mandates for money and count fields alike.
func money(units float64) []byte {
	return count5(int32(units * 100))
}

// count5 packs n directly (already scaled) into the same 5-byte field shape.
func count5(n int32) []byte {
	buf := make([]byte, 5)
	binary.LittleEndian.PutUint32(buf[:4], uint32(n))
	return buf
}

func textField(s string, width int) []byte {
	return wirebytes.PadRight(Encode(s), width)
}

func dateBytes(t time.Time) []byte {
	return []byte{byte(t.Day()), byte(t.Month()), byte(t.Year() % 1000)}
}

func timeBytes(t time.Time) []byte {
	return []byte{byte(t.Hour()), byte(t.Minute()), byte(t.Second())}
}

// Sale holds the parameters common to sale and return_sale, whose wire
// layouts are identical: count(5) | price(5) | department(1) | taxes(4) |
// text(40, CP_DEV, NUL-padded).
type Sale struct {
	Price      float64
	Count      float64
	Department byte
	Taxes      [4]byte
	Text       string
}

func encodeSale(s Sale) []byte {
	out := make([]byte, 0, 5+5+1+4+40)
	out = append(out, count5(int32(s.Count*1000))...)
	out = append(out, money(s.Price)...)
	out = append(out, s.Department)
	out = append(out, s.Taxes[:]...)
	out = append(out, textField(s.Text, 40)...)
	return out
}

// EncodeSale packs the sale command's parameters.
func EncodeSale(s Sale) []byte { return encodeSale(s) }

// EncodeReturnSale packs the return_sale command's parameters (same layout as sale).
func EncodeReturnSale(s Sale) []byte { return encodeSale(s) }

// CloseCheck holds parameters for the close_check command.
type CloseCheck struct {
	Sum1, Sum2, Sum3, Sum4 float64
	Sale                   float64
	Taxes                  [4]byte
	Text                   string
}

// EncodeCloseCheck packs four money sums, a signed 16-bit hundredths
// discount, four one-byte tax rates, and a 40-byte NUL-padded text field.
func EncodeCloseCheck(c CloseCheck) []byte {
	out := make([]byte, 0, 5*4+2+4+40)
	for _, s := range []float64{c.Sum1, c.Sum2, c.Sum3, c.Sum4} {
		out = append(out, money(s)...)
	}
	saleBuf := make([]byte, 2)
	binary.LittleEndian.PutUint16(saleBuf, uint16(int16(c.Sale*100)))
	out = append(out, saleBuf...)
	out = append(out, c.Taxes[:]...)
	out = append(out, textField(c.Text, 40)...)
	return out
}

// EncodeCashIncome/EncodeCashOutcome pack a single money field plus a
// trailing zero byte the vendor manual reserves.
func EncodeCashIncome(cash float64) []byte  { return append(money(cash), 0x00) }
func EncodeCashOutcome(cash float64) []byte { return append(money(cash), 0x00) }

// EncodeConfirmDate and EncodeSetDate pack day/month/year%1000.
func EncodeConfirmDate(t time.Time) []byte { return dateBytes(t) }
func EncodeSetDate(t time.Time) []byte     { return dateBytes(t) }

// EncodeSetTime packs hour/minute/second.
func EncodeSetTime(t time.Time) []byte { return timeBytes(t) }

// EncodeCutCheck packs the full-cut flag as a single byte.
func EncodeCutCheck(full bool) []byte {
	if full {
		return []byte{1}
	}
	return []byte{0}
}

// EncodeFeedDocument packs the check/journal/slip flag byte and a row count.
func EncodeFeedDocument(rows int, check, journal, slip bool) []byte {
	var flag byte
	if check {
		flag |= 1
	}
	if journal {
		flag |= 2
	}
	if slip {
		flag |= 4
	}
	return []byte{flag, byte(rows)}
}

// EncodeGetAutocutParam addresses the profile's table/row/field coordinates.
func EncodeGetAutocutParam(p Profile) []byte {
	return []byte{p.AutocutTable, p.AutocutRow, 0x00, p.AutocutField}
}

// EncodeGetCashReg packs the register number.
func EncodeGetCashReg(register byte) []byte { return []byte{register} }

// EncodeGetExchangeParam packs the port number to read.
func EncodeGetExchangeParam(portNum byte) []byte { return []byte{portNum} }

// EncodeSetExchangeParam packs the port number and rate code to write.
func EncodeSetExchangeParam(portNum, rateCode byte) []byte { return []byte{portNum, rateCode} }

// EncodePrintImage packs the start/end row range.
func EncodePrintImage(startRow, endRow byte) []byte { return []byte{startRow, endRow} }

// EncodePrintString packs the on-check/on-journal flag byte followed by the
// text encoded in the device codepage (not NUL-padded — length is implicit
// in the frame's own length field).
func EncodePrintString(s string, onCheck, onJournal bool) []byte {
	var flag byte
	if onCheck {
		flag |= 1
	}
	if onJournal {
		flag |= 2
	}
	return append([]byte{flag}, Encode(s)...)
}

// EncodePrintBarcode packs the EAN-13 digit string verbatim.
func EncodePrintBarcode(number string) []byte { return []byte(number) }

// Decode helpers for simple {"operator": n} / {"operator", "document"} replies.

// DecodeOperator decodes the common single-byte operator-id reply.
func DecodeOperator(data []byte) (map[string]any, error) {
	if len(data) < 1 {
		return nil, fmt.Errorf("codec: short operator reply")
	}
	return map[string]any{"operator": data[0]}, nil
}

// DecodeOperatorDocument decodes the two-byte operator+document reply
// (cash_income, cash_outcome).
func DecodeOperatorDocument(data []byte) (map[string]any, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("codec: short operator/document reply")
	}
	return map[string]any{"operator": data[0], "document": data[1]}, nil
}

// DecodeConfirmDate decodes confirm_date's single-byte error-code reply.
func DecodeConfirmDate(data []byte) (map[string]any, error) {
	if len(data) < 1 {
		return nil, fmt.Errorf("codec: short confirm_date reply")
	}
	return map[string]any{"error": data[0]}, nil
}

// DecodeSetDate and DecodeSetTime mirror DecodeConfirmDate — the Python
// source's "return {'error', ord(data[0])}" for these two commands builds a
// set literal, not a dict, which spec.md calls out as a bug; this decodes
// the evidently intended {"error": ...} mapping instead.
func DecodeSetDate(data []byte) (map[string]any, error) { return DecodeConfirmDate(data) }
func DecodeSetTime(data []byte) (map[string]any, error) {
	if len(data) < 1 {
		return nil, fmt.Errorf("codec: short set_time reply")
	}
	return map[string]any{"error": data[0]}, nil
}

// DecodeSale mirrors DecodeOperator — the Python source's bare-set literal
// for this reply is treated the same way as DecodeSetDate above.
func DecodeSale(data []byte) (map[string]any, error) { return DecodeOperator(data) }

// DecodeGetAutocutParam decodes the single-byte boolean autocut flag.
func DecodeGetAutocutParam(data []byte) (map[string]any, error) {
	if len(data) < 1 {
		return nil, fmt.Errorf("codec: short autocut reply")
	}
	return map[string]any{"auto_cut": data[0] != 0}, nil
}

// DecodeGetExchangeParam decodes the operator id and the exchange rate byte.
func DecodeGetExchangeParam(data []byte) (map[string]any, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("codec: short exchange-param reply")
	}
	return map[string]any{"operator": data[0], "rate": data[1]}, nil
}

// DecodeGetCashReg decodes the operator id and the BCD-like cash register
// value trailing it (big-endian digit bytes, NUL-trimmed, hundredths).
func DecodeGetCashReg(data []byte) (map[string]any, error) {
	if len(data) < 1 {
		return nil, fmt.Errorf("codec: short cash-reg reply")
	}
	operator := data[0]
	trimmed := wirebytes.TrimNUL(data[1:])

	var value float64
	if len(trimmed) > 0 {
		var n uint64
		for _, b := range trimmed {
			n = n<<8 | uint64(b)
		}
		value = float64(n) / 100.0
	}
	return map[string]any{"operator": operator, "value": value}, nil
}

// DecodeGetDeviceMetrics decodes the protocol/device/description fields.
func DecodeGetDeviceMetrics(data []byte) (map[string]any, error) {
	if len(data) < 6 {
		return nil, fmt.Errorf("codec: short device-metrics reply")
	}
	return map[string]any{
		"major_prot_version": data[0],
		"minor_prot_version": data[1],
		"device_type":        data[2],
		"device_subtype":     data[3],
		"device_model":       data[4],
		"device_codepage":    data[5],
		"description":        Decode(data[6:]),
	}, nil
}
