package process

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDebugPrivilegeReferenceCounting(t *testing.T) {
	resetPrivilegeCount()
	f := testFixture()

	a1, err := Open(f, 42)
	require.NoError(t, err)
	require.Equal(t, 1, f.enableCalls, "privilege enabled on first acquire")

	a2, err := Open(f, 42)
	require.NoError(t, err)
	require.Equal(t, 1, f.enableCalls, "second acquire does not re-enable")

	require.NoError(t, a1.Close())
	require.Equal(t, 0, f.disableCalls, "privilege stays enabled while a lease remains")

	require.NoError(t, a2.Close())
	require.Equal(t, 1, f.disableCalls, "privilege disabled when the count reaches zero")
}

func TestDebugPrivilegeReleaseBelowZeroPanics(t *testing.T) {
	resetPrivilegeCount()
	f := testFixture()

	require.Panics(t, func() {
		releaseDebugPrivilege(f)
	})
}

func TestDebugPrivilegeEnableFailureIsNonFatal(t *testing.T) {
	resetPrivilegeCount()
	f := testFixture()
	f.enableErr = errors.New("access denied")

	a, err := Open(f, 42)
	require.NoError(t, err, "attach succeeds without the privilege")
	require.NoError(t, a.Close())
	require.Equal(t, 1, f.disableCalls, "the reference was counted despite the enable failure")
}

func TestDebugPrivilegeConcurrentChurn(t *testing.T) {
	resetPrivilegeCount()
	f := testFixture()

	const workers = 8
	done := make(chan struct{})
	for i := 0; i < workers; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 50; j++ {
				a, err := Open(f, 42)
				if err != nil {
					t.Error(err)
					return
				}
				a.Close()
			}
		}()
	}
	for i := 0; i < workers; i++ {
		<-done
	}

	debugPrivilege.mu.Lock()
	count := debugPrivilege.count
	debugPrivilege.mu.Unlock()
	require.Equal(t, 0, count, "count returns to zero after balanced churn")
}
