package wirebytes

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestXOR(t *testing.T) {
	require.Equal(t, byte(0x00), XOR())
	require.Equal(t, byte(0x0f), XOR(0x0f))
	require.Equal(t, byte(0x00), XOR(0xff, 0xff))
	require.Equal(t, byte(0x05), XOR(0x01, 0x02, 0x06))
}

func TestBitArrayBitZeroFirst(t *testing.T) {
	bits := BitArray(0x01)
	require.True(t, bits[0])
	for i := 1; i < 8; i++ {
		require.False(t, bits[i])
	}

	bits = BitArray(0x80)
	require.True(t, bits[7])
}

func TestPadRightAndTrimNUL(t *testing.T) {
	padded := PadRight([]byte("hi"), 5)
	require.Equal(t, []byte{'h', 'i', 0, 0, 0}, padded)
	require.Equal(t, []byte("hi"), TrimNUL(padded))

	truncated := PadRight([]byte("abcdef"), 3)
	require.Equal(t, []byte("abc"), truncated)
}
