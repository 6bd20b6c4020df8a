package ferrors

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRuntimeErrorFromTable(t *testing.T) {
	table := map[Code]Entry{
		10: {Description: "printer cover open", Action: ActionBreak},
		20: {Description: "still printing", Action: ActionRetry},
	}

	err := NewRuntimeError(10, table)
	require.Equal(t, Code(10), err.Code())
	require.Equal(t, "printer cover open", err.Description())
	require.Equal(t, ActionBreak, err.Action())

	unknown := NewRuntimeError(999, table)
	require.Equal(t, ActionBreak, unknown.Action())
	require.NotEmpty(t, unknown.Description())
}

func TestConnectionAndCommandErrorsAlwaysBreak(t *testing.T) {
	conn := NewConnectionError(ErrLostDevice)
	require.Equal(t, ActionBreak, conn.Action())
	require.Equal(t, ErrLostDevice, conn.Code())

	cmd := NewCommandError(ErrUnknownCommand)
	require.Equal(t, ActionBreak, cmd.Action())

	serialized := conn.Serialize()
	require.Equal(t, "ConnectionError", serialized["error"])
	require.Equal(t, "break", serialized["action"])
}
