package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLookupKnownAndUnknown(t *testing.T) {
	cmd, ok := Lookup("sale")
	require.True(t, ok)
	require.NotEmpty(t, cmd.Description)

	_, ok = Lookup("not_a_command")
	require.False(t, ok)
}

func TestSubsetsAreDisjointWherePromised(t *testing.T) {
	for name := range CriticalCommands {
		_, isPostCritical := PostCriticalCommands[name]
		require.False(t, isPostCritical, "%s is both critical and post-critical", name)
	}
}

func TestRollbacksOnlyTargetCriticalCommands(t *testing.T) {
	for cmd := range Rollbacks {
		_, ok := CriticalCommands[cmd]
		require.True(t, ok, "rollback registered for non-critical command %s", cmd)
	}
}

func TestTimeDeltaAndWaitingErrorsAreDisjoint(t *testing.T) {
	for code := range TimeDeltaErrors {
		_, inWaiting := WaitingErrors[code]
		require.False(t, inWaiting, "code %d classified as both time-delta and waiting", code)
	}
}
