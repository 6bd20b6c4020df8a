package codec

import (
	"fmt"

	"github.com/loremcross/cashcontrol/pkg/wirebytes"
)

// DeviceMode and DeviceSubmode name the cashcontrol_mode/cashcontrol_submode
// fields that get_status and get_short_status both report. Descriptions are
// advisory text, not behavior — a lookup miss falls back to "?" rather than
// failing the decode.
var DeviceMode = map[byte]string{
	0:  "printing off-line document",
	1:  "issuing a receipt",
	2:  "opened check",
	3:  "closing with post-printing",
	4:  "paper out, waiting for operator",
	8:  "test mode",
	13: "EKLZ active",
	14: "EKLZ report",
}

var DeviceSubmode = map[byte]map[byte]string{
	0: {0: "idle", 1: "error, awaiting reset"},
	2: {0: "open, ready for items", 1: "waiting on cover"},
}

func modeDescription(mode byte) string {
	if d, ok := DeviceMode[mode]; ok {
		return d
	}
	return "?"
}

func submodeDescription(mode, submode byte) string {
	if inner, ok := DeviceSubmode[mode]; ok {
		if d, ok := inner[submode]; ok {
			return d
		}
	}
	return "?"
}

// flagNames is the fixed order spec.md §6 assigns the 16-bit flag vector.
// decodeFlags takes the low byte first, then the high byte — for
// get_short_status that's data[2] then data[1]; for get_status it's data[11]
// then data[10] — same bit-0-first order the vendor manual uses.
var flagNames = [16]string{
	"check_ribbon", "journal_ribbon", "slip_ribbon", "slip_control",
	"dec_point_position", "eklz_present", "journal_optic_control", "check_optic_control",
	"journal_lever", "check_lever", "cover_is_opened", "print_left_control",
	"print_right_control", "drawer_state", "eklz_is_over", "quantity_dec_point",
}

func decodeFlags(lowByte, highByte byte) map[string]any {
	low, high := wirebytes.BitArray(lowByte), wirebytes.BitArray(highByte)
	bits := append(low[:], high[:]...)
	out := make(map[string]any, len(flagNames))
	for i, name := range flagNames {
		out[name] = bits[i]
	}
	return out
}

// DecodeGetShortStatus decodes get_short_status's reply: operator id,
// 16-flag vector, mode/submode, registration counters, battery voltages,
// fiscal-memory/EKLZ error codes.
func DecodeGetShortStatus(data []byte) (map[string]any, error) {
	if len(data) < 10 {
		return nil, fmt.Errorf("codec: short get_short_status reply")
	}

	info := decodeFlags(data[2], data[1])
	info["operator"] = data[0]
	info["flags"] = []byte{data[1], data[2]}

	mode, submode := data[3], data[4]
	info["cashcontrol_mode"] = mode
	info["cashcontrol_submode"] = submode
	info["cashcontrol_mode_description"] = modeDescription(mode)
	info["cashcontrol_submode_description"] = submodeDescription(mode, submode)
	info["registrations_count"] = data[5]
	info["reserve_battery_voltage"] = data[6]
	info["main_battery_voltage"] = data[7]
	info["fp_error"] = data[8]
	info["eklz_error"] = data[9]
	if len(data) > 10 {
		info["reserve"] = data[10:]
	}
	return info, nil
}

// DecodeGetStatus decodes get_status's reply: operator id, version/build
// fields, build date, logical cash number, last document number, the same
// 16-flag vector, and mode/submode.
func DecodeGetStatus(data []byte) (map[string]any, error) {
	if len(data) < 15 {
		return nil, fmt.Errorf("codec: short get_status reply")
	}

	info := decodeFlags(data[11], data[10])
	info["operator"] = data[0]
	info["soft_version"] = data[1:3]
	info["soft_build_number"] = data[3:5]
	info["soft_build_date"] = fmt.Sprintf("%02d.%02d.%02d", data[5], data[6], data[7])
	info["logical_cash_number"] = data[8]
	info["last_document_number"] = data[9]

	mode, submode := data[13], data[14]
	info["cashcontrol_mode"] = mode
	info["cashcontrol_submode"] = submode
	info["cashcontrol_mode_description"] = modeDescription(mode)
	info["cashcontrol_submode_description"] = submodeDescription(mode, submode)
	return info, nil
}

// IsReady reports whether a decoded get_short_status reply indicates the
// device has finished printing (cashcontrol_submode == 0).
func IsReady(shortStatus map[string]any) bool {
	submode, ok := shortStatus["cashcontrol_submode"].(byte)
	return ok && submode == 0
}
