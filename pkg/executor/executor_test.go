package executor

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/loremcross/cashcontrol/pkg/catalog"
	"github.com/loremcross/cashcontrol/pkg/engine"
	"github.com/loremcross/cashcontrol/pkg/logging"
	"github.com/loremcross/cashcontrol/pkg/session"
	"github.com/loremcross/cashcontrol/pkg/smart"
	"github.com/loremcross/cashcontrol/pkg/transport"
	"github.com/loremcross/cashcontrol/pkg/wirebytes"
)

type queuedPort struct {
	reads  int
	writes int
	queue  bytes.Buffer
}

func (p *queuedPort) Write(b []byte) (int, error) {
	p.writes++
	return len(b), nil
}

func (p *queuedPort) Read(b []byte) (int, error) {
	p.reads++
	switch {
	case p.reads == 1:
		b[0] = catalog.NAK
		return 1, nil
	case p.writes == 2 && p.reads == 2:
		b[0] = catalog.ACK
		return 1, nil
	default:
		return p.queue.Read(b)
	}
}

func buildReplyFrame(opcode, errCode byte, data []byte) []byte {
	length := byte(2 + len(data))
	body := append([]byte{length, opcode, errCode}, data...)
	crc := wirebytes.XOR(body...)
	frame := append([]byte{catalog.STX}, body...)
	frame = append(frame, crc)
	frame = append(frame, catalog.ACK)
	return frame
}

func newEngine(port *queuedPort) *engine.Engine {
	framer := transport.New(port, logging.Default())
	sess := session.New(framer, session.Password{1, 2, 3, 4}, logging.Default())
	return engine.New(sess)
}

type memStore struct {
	device   smart.DeviceParams
	commands map[string]smart.CommandMetric
}

func newMemStore() *memStore {
	return &memStore{commands: map[string]smart.CommandMetric{}}
}

func (m *memStore) Device() smart.DeviceParams                 { return m.device }
func (m *memStore) Commands() map[string]smart.CommandMetric   { return m.commands }
func (m *memStore) Save(d smart.DeviceParams, c map[string]smart.CommandMetric) error {
	m.device = d
	m.commands = c
	return nil
}
func (m *memStore) Close() error { return nil }

func TestRunSuccessNeedsNoReaction(t *testing.T) {
	port := &queuedPort{}
	port.queue.Write(buildReplyFrame(catalog.Commands["beep"].Opcode, 0, []byte{3}))

	x := New(newEngine(port), newMemStore(), nil)
	dialog := x.Run("beep", 0, func() []byte { return nil }, nil)

	_, hasReaction := dialog.Reaction()
	require.False(t, hasReaction)
	require.Equal(t, engine.Continue, dialog.Result().Action)
}

func TestRunBreakOffersBreakAndRetryCases(t *testing.T) {
	port := &queuedPort{}
	port.queue.Write(buildReplyFrame(catalog.Commands["close_check"].Opcode, 84, nil))

	x := New(newEngine(port), newMemStore(), nil)
	dialog := x.Run("close_check", 0, func() []byte { return nil }, nil)

	req, hasReaction := dialog.Reaction()
	require.True(t, hasReaction)
	require.Contains(t, req.Cases, ReactionBreak)
	require.Contains(t, req.Cases, ReactionRetry)

	dialog.Resume(ReactionBreak)
	_, hasReaction = dialog.Reaction()
	require.False(t, hasReaction)
	require.Equal(t, engine.Break, dialog.Result().Action)
}

func TestRunWaitOffersSkipRetryBreak(t *testing.T) {
	port := &queuedPort{}
	port.queue.Write(buildReplyFrame(catalog.Commands["close_check"].Opcode, 44, nil))

	x := New(newEngine(port), newMemStore(), nil)
	dialog := x.Run("close_check", 0, func() []byte { return nil }, nil)

	req, hasReaction := dialog.Reaction()
	require.True(t, hasReaction)
	require.ElementsMatch(t, []Reaction{ReactionSkip, ReactionRetry, ReactionBreak}, req.Cases)

	dialog.Resume(ReactionSkip)
	require.Equal(t, engine.Wait, dialog.Result().Action)
}

func TestCalibrationCommitsToStore(t *testing.T) {
	port := &queuedPort{}
	port.queue.Write(buildReplyFrame(catalog.Commands["beep"].Opcode, 0, []byte{3}))

	store := newMemStore()
	x := New(newEngine(port), store, nil)
	x.Run("beep", 0, func() []byte { return nil }, nil)

	_, ok := store.Commands()["beep"]
	require.True(t, ok)
}
