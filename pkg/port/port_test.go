package port

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tarm/serial"

	"github.com/loremcross/cashcontrol/pkg/catalog"
	"github.com/loremcross/cashcontrol/pkg/transport"
)

// fakeConn is a transport.Port that answers ENQ probes with a scripted byte.
type fakeConn struct {
	reply byte
	out   bytes.Buffer
}

func (f *fakeConn) Write(b []byte) (int, error) { return f.out.Write(b) }
func (f *fakeConn) Read(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}
	b[0] = f.reply
	return 1, nil
}
func (f *fakeConn) Close() error { return nil }

func TestOpenUsesFixedFraming(t *testing.T) {
	var gotCfg *serial.Config
	h := New(func(cfg *serial.Config) (transport.Port, error) {
		gotCfg = cfg
		return &fakeConn{reply: catalog.NAK}, nil
	})

	require.NoError(t, h.Open("/dev/ttyUSB0", 9600))
	require.Equal(t, byte(8), gotCfg.Size)
	require.Equal(t, serial.ParityNone, gotCfg.Parity)
	require.Equal(t, serial.Stop1, gotCfg.StopBits)
	require.Equal(t, "/dev/ttyUSB0", h.Name())
	require.Equal(t, 9600, h.Baud())
}

func TestOpenFailurePropagatesAsConnectionError(t *testing.T) {
	h := New(func(cfg *serial.Config) (transport.Port, error) {
		return nil, errors.New("no such device")
	})

	err := h.Open("/dev/ttyUSB9", 9600)
	require.Error(t, err)
}

func TestFindDeviceReturnsFirstRespondingPair(t *testing.T) {
	const wantName = "/dev/ttyUSB3"
	const wantBaud = 38400

	h := New(func(cfg *serial.Config) (transport.Port, error) {
		if cfg.Name == wantName && cfg.Baud == wantBaud {
			return &fakeConn{reply: catalog.NAK}, nil
		}
		return &fakeConn{reply: 0x00}, nil
	})

	name, baud, err := h.FindDevice("ttyUSB", []int{115200, 57600, 38400})
	require.NoError(t, err)
	require.Equal(t, wantName, name)
	require.Equal(t, wantBaud, baud)
}

func TestFindDeviceExhaustsToLostDevice(t *testing.T) {
	h := New(func(cfg *serial.Config) (transport.Port, error) {
		return &fakeConn{reply: 0x00}, nil
	})

	_, _, err := h.FindDevice("ttyUSB", []int{9600})
	require.Error(t, err)
}
