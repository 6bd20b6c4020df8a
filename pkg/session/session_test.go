package session

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/loremcross/cashcontrol/pkg/catalog"
	"github.com/loremcross/cashcontrol/pkg/logging"
	"github.com/loremcross/cashcontrol/pkg/transport"
	"github.com/loremcross/cashcontrol/pkg/wirebytes"
)

// scriptedPort answers ENQ with NAK (ready), then ACK on the next write
// (acking the send), then serves a pre-built reply frame to the following
// reads. It is a single-exchange fixture adequate for one Call.
type scriptedPort struct {
	enqReply byte
	sendAck  byte
	reply    bytes.Buffer
	writes   [][]byte
	reads    int
}

func (p *scriptedPort) Write(b []byte) (int, error) {
	cp := make([]byte, len(b))
	copy(cp, b)
	p.writes = append(p.writes, cp)
	return len(b), nil
}

func (p *scriptedPort) Read(b []byte) (int, error) {
	p.reads++
	switch p.reads {
	case 1:
		// The ENQ probe's reply.
		b[0] = p.enqReply
		return 1, nil
	case 2:
		// The ACK for the send.
		b[0] = p.sendAck
		return 1, nil
	default:
		return p.reply.Read(b)
	}
}

func buildReplyFrame(opcode, errCode byte, data []byte) []byte {
	length := byte(2 + len(data))
	body := append([]byte{length, opcode, errCode}, data...)
	crc := wirebytes.XOR(body...)
	frame := append([]byte{catalog.STX}, body...)
	frame = append(frame, crc)
	// Trailing handshake byte the session consumes after ACKing.
	frame = append(frame, catalog.ACK)
	return frame
}

func TestCallSuccessUpdatesPrintZoneAndDelta(t *testing.T) {
	port := &scriptedPort{enqReply: catalog.NAK, sendAck: catalog.ACK}
	port.reply.Write(buildReplyFrame(catalog.Commands["sale"].Opcode, 0, []byte{7}))

	framer := transport.New(port, logging.Default())
	sess := New(framer, Password{1, 2, 3, 4}, logging.Default())

	err := sess.Call("sale", []byte{0xAA}, 0)
	require.NoError(t, err)

	res := sess.Result()
	require.False(t, res.HasError)
	require.Equal(t, []byte{7}, res.Data)
	require.Equal(t, Critical, sess.PrintZone())
	require.Equal(t, "sale", sess.LastCriticalCommand())
	require.Negative(t, res.Delta)
}

func TestCallUnknownCommandFails(t *testing.T) {
	port := &scriptedPort{enqReply: catalog.NAK, sendAck: catalog.ACK}
	framer := transport.New(port, logging.Default())
	sess := New(framer, Password{}, logging.Default())

	err := sess.Call("not_a_command", nil, 0)
	require.Error(t, err)
}

func TestCallNoSignalFailsLostDevice(t *testing.T) {
	port := &scriptedPort{enqReply: 0x00}
	framer := transport.New(port, logging.Default())
	sess := New(framer, Password{}, logging.Default())

	err := sess.Call("sale", nil, 0)
	require.Error(t, err)
}

func TestCallDeviceErrorSurfacesInResult(t *testing.T) {
	port := &scriptedPort{enqReply: catalog.NAK, sendAck: catalog.ACK}
	port.reply.Write(buildReplyFrame(catalog.Commands["close_check"].Opcode, 84, nil))

	framer := transport.New(port, logging.Default())
	sess := New(framer, Password{1, 2, 3, 4}, logging.Default())

	err := sess.Call("close_check", nil, 0)
	require.NoError(t, err)

	res := sess.Result()
	require.True(t, res.HasError)
	require.Equal(t, byte(84), res.ErrCode)
	require.Equal(t, NonCritical, sess.PrintZone())
}
