package codec

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEncodeSaleLayout(t *testing.T) {
	s := Sale{Price: 12.34, Count: 2, Department: 1, Taxes: [4]byte{0, 0, 0, 0}, Text: "item"}
	got := EncodeSale(s)
	require.Len(t, got, 5+5+1+4+40)

	count := int32(binary.LittleEndian.Uint32(got[0:4]))
	require.Equal(t, int32(2000), count)
	require.Equal(t, byte(0), got[4])

	price := int32(binary.LittleEndian.Uint32(got[5:9]))
	require.Equal(t, int32(1234), price)
	require.Equal(t, byte(0), got[9])

	require.Equal(t, byte(1), got[10])
	require.Equal(t, [4]byte{0, 0, 0, 0}, [4]byte(got[11:15]))
}

func TestEncodeCloseCheckSums(t *testing.T) {
	c := CloseCheck{Sum1: 10, Sum2: 5, Sum3: 0, Sum4: 0, Sale: 1.5, Text: "x"}
	got := EncodeCloseCheck(c)
	require.Len(t, got, 5*4+2+4+40)

	sum1 := int32(binary.LittleEndian.Uint32(got[0:4]))
	require.Equal(t, int32(1000), sum1)
	sum2 := int32(binary.LittleEndian.Uint32(got[5:9]))
	require.Equal(t, int32(500), sum2)

	sale := int16(binary.LittleEndian.Uint16(got[20:22]))
	require.Equal(t, int16(150), sale)
}

func TestEncodeFeedDocumentFlagByte(t *testing.T) {
	got := EncodeFeedDocument(5, true, false, true)
	require.Equal(t, []byte{0b101, 5}, got)
}

func TestEncodeCutCheck(t *testing.T) {
	require.Equal(t, []byte{1}, EncodeCutCheck(true))
	require.Equal(t, []byte{0}, EncodeCutCheck(false))
}

func TestEncodeSetDateBytes(t *testing.T) {
	d := time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC)
	require.Equal(t, []byte{9, 3, 26}, EncodeSetDate(d))
}

func TestAutocutParamProfileOverride(t *testing.T) {
	require.Equal(t, byte(8), Shtrih.AutocutField)
	require.Equal(t, byte(7), RR.AutocutField)
	require.NotEqual(t, EncodeGetAutocutParam(Shtrih), EncodeGetAutocutParam(RR))
}

func TestCodepageRoundTrip(t *testing.T) {
	text := "Привет"
	encoded := Encode(text)
	require.Equal(t, text, Decode(encoded))

	padded := textField(text, 40)
	require.Len(t, padded, 40)
	require.Equal(t, text, Decode(trimTrailingZero(padded)))
}

func trimTrailingZero(b []byte) []byte {
	i := len(b)
	for i > 0 && b[i-1] == 0 {
		i--
	}
	return b[:i]
}

func TestDecodeGetShortStatusFlagsAndMode(t *testing.T) {
	data := make([]byte, 11)
	data[0] = 7          // operator
	data[1] = 0b00000100 // high byte of flags -> bits 8..15 (cover_is_opened)
	data[2] = 0b00000001 // low byte of flags -> bits 0..7 (check_ribbon)
	data[3] = 0          // mode
	data[4] = 0          // submode
	data[5] = 3          // registrations
	data[6] = 250        // reserve battery
	data[7] = 240        // main battery
	data[8] = 0          // fp_error
	data[9] = 0          // eklz_error
	data[10] = 0xAA

	got, err := DecodeGetShortStatus(data)
	require.NoError(t, err)
	require.Equal(t, byte(7), got["operator"])
	require.Equal(t, true, got["check_ribbon"])
	require.Equal(t, false, got["journal_ribbon"])
	require.Equal(t, true, got["cover_is_opened"])
	require.Equal(t, false, got["check_lever"])
	require.Equal(t, "idle", got["cashcontrol_submode_description"])
	require.True(t, IsReady(got))
}

func TestDecodeGetCashRegDigitsAndTrim(t *testing.T) {
	data := []byte{2, 0x01, 0x00, 0x00}
	got, err := DecodeGetCashReg(data)
	require.NoError(t, err)
	require.Equal(t, byte(2), got["operator"])
	require.InDelta(t, 0.01, got["value"].(float64), 0.0001)
}
