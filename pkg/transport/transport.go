// Package transport implements the vendor's two-half synchronization
// protocol over any io.ReadWriter: frame construction and the XOR checksum
// on send, and the ENQ/NAK/ACK probe-and-drain handshake with a byte-driven
// read state machine on receive. It does not know about application
// commands — it moves opcode/password/parameter bytes and returns
// opcode/err_code/data triples.
//
// The read side reads one byte at a time (in the byte-stepping style of the
// teacher's USOCK.processByte in pkg/usock/usock.go) rather than with a bulk
// io.ReadFull. A read error mid-frame abandons the partial frame: the bytes
// already read are not kept for the next Read.
package transport

import (
	"fmt"
	"io"

	"github.com/loremcross/cashcontrol/pkg/catalog"
	"github.com/loremcross/cashcontrol/pkg/ferrors"
	"github.com/loremcross/cashcontrol/pkg/logging"
	"github.com/loremcross/cashcontrol/pkg/wirebytes"
)

// LineState is the result of probing the line before a send.
type LineState int

const (
	NoSignal LineState = iota
	Ready
	ReplyPending
)

// SendResult is the result of the send half.
type SendResult int

const (
	SendAcked SendResult = iota
	SendNoSignal
)

// ReadResult is the result of the receive half.
type ReadResult int

const (
	ReadOK ReadResult = iota
	ReadRetry
)

// Port is the minimal surface the framer needs from a serial connection:
// byte-granular reads with the caller's configured timeout behavior, and
// writes. pkg/port's *Handle satisfies this.
type Port interface {
	io.Reader
	io.Writer
}

// Framer drives the byte-level protocol over a Port.
type Framer struct {
	port Port
	log  *logging.Logger
}

// New builds a Framer over an already-open Port.
func New(port Port, log *logging.Logger) *Framer {
	return &Framer{port: port, log: log}
}

func (f *Framer) readByte() (byte, error) {
	buf := make([]byte, 1)
	n, err := f.port.Read(buf)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, fmt.Errorf("short read")
	}
	return buf[0], nil
}

// CheckState probes the line with ENQ and classifies the single-byte reply.
func (f *Framer) CheckState() LineState {
	if _, err := f.port.Write([]byte{catalog.ENQ}); err != nil {
		return NoSignal
	}
	b, err := f.readByte()
	if err != nil {
		return NoSignal
	}
	switch b {
	case catalog.NAK:
		return Ready
	case catalog.ACK:
		return ReplyPending
	default:
		return NoSignal
	}
}

// BuildCommandFrame assembles STX|length|opcode|[password]|params|crc, the
// exact layout spec §6 mandates for a host-to-device frame.
func BuildCommandFrame(opcode byte, needsPassword bool, password, params []byte) []byte {
	payload := make([]byte, 0, 1+len(password)+len(params))
	payload = append(payload, opcode)
	if needsPassword {
		payload = append(payload, password...)
	}
	payload = append(payload, params...)

	length := byte(len(payload))
	content := append([]byte{length}, payload...)
	crc := wirebytes.XOR(content...)

	frame := append([]byte{catalog.STX}, content...)
	return append(frame, crc)
}

// ParseCommandFrame reverses BuildCommandFrame: given a frame built with the
// same needsPassword/password-length, it recovers the opcode and the
// trailing parameter bytes, and reports whether the embedded CRC matches.
func ParseCommandFrame(frame []byte, needsPassword bool, passwordLen int) (opcode byte, params []byte, crcOK bool) {
	if len(frame) < 3 {
		return 0, nil, false
	}
	length := int(frame[1])
	content := frame[1 : 2+length]
	crc := frame[2+length]
	if wirebytes.XOR(content...) != crc {
		return 0, nil, false
	}
	payload := frame[2 : 2+length]
	opcode = payload[0]
	rest := payload[1:]
	if needsPassword {
		if len(rest) < passwordLen {
			return opcode, nil, false
		}
		rest = rest[passwordLen:]
	}
	return opcode, rest, true
}

// Send frames and transmits opcode|password|params, retrying up to
// catalog.MaxTries for an ACK.
func (f *Framer) Send(opcode byte, needsPassword bool, password, params []byte) SendResult {
	frame := BuildCommandFrame(opcode, needsPassword, password, params)

	for i := 0; i < catalog.MaxTries; i++ {
		if _, err := f.port.Write(frame); err != nil {
			f.log.Warnf("transport: write failed: %v", err)
			continue
		}
		b, err := f.readByte()
		if err == nil && b == catalog.ACK {
			return SendAcked
		}
	}
	return SendNoSignal
}

// Read reads one frame: STX, length, opcode, err_code, data, crc. On CRC
// mismatch it sends NAK and reports ReadRetry; on success it sends ACK,
// drains the trailing handshake byte, and returns the decoded fields.
func (f *Framer) Read() (ReadResult, byte, byte, []byte, error) {
	stx, err := f.readByte()
	if err != nil {
		return ReadRetry, 0, 0, nil, err
	}
	if stx != catalog.STX {
		return ReadRetry, 0, 0, nil, nil
	}

	length, err := f.readByte()
	if err != nil {
		return ReadRetry, 0, 0, nil, err
	}
	opcode, err := f.readByte()
	if err != nil {
		return ReadRetry, 0, 0, nil, err
	}
	errCode, err := f.readByte()
	if err != nil {
		return ReadRetry, 0, 0, nil, err
	}

	dataLen := int(length) - 2
	if dataLen < 0 {
		dataLen = 0
	}
	data := make([]byte, dataLen)
	for i := range data {
		b, err := f.readByte()
		if err != nil {
			return ReadRetry, 0, 0, nil, err
		}
		data[i] = b
	}

	crcDev, err := f.readByte()
	if err != nil {
		return ReadRetry, 0, 0, nil, err
	}

	body := append([]byte{length, opcode, errCode}, data...)
	crcCalc := wirebytes.XOR(body...)
	if crcDev != crcCalc {
		f.port.Write([]byte{catalog.NAK})
		return ReadRetry, opcode, errCode, nil, nil
	}

	f.port.Write([]byte{catalog.ACK})
	f.readByte() // trailing handshake byte
	return ReadOK, opcode, errCode, data, nil
}

// Drain reads and discards one pending frame, used when CheckState reports
// ReplyPending: a stale reply from a prior command is sitting on the line.
func (f *Framer) Drain() {
	f.Read()
}

// ErrorFor maps a transport-level failure to the driver's error classes.
func ErrorFor(unknownOpcode bool, lost bool) error {
	if unknownOpcode {
		return ferrors.NewCommandError(ferrors.ErrUnknownCommand)
	}
	if lost {
		return ferrors.NewConnectionError(ferrors.ErrLostDevice)
	}
	return nil
}
