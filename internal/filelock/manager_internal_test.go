package filelock

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAcquire_ReclaimsSidecarNamingDeadPID(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "transcript.smt2")

	m, err := NewManager(filepath.Join(dir, "locks"))
	require.NoError(t, err)

	// Forge a sidecar naming a PID that cannot plausibly be alive,
	// with no corresponding OS-level flock held by anyone.
	info := &LockInfo{Path: target, PID: 999999999}
	require.NoError(t, writeLockInfo(m.infoPath(target), info))

	require.NoError(t, m.Acquire(target))
	require.NoError(t, m.Release(target))
}

func TestAcquire_RejectsSidecarNamingLivePID(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "transcript.smt2")

	m, err := NewManager(filepath.Join(dir, "locks"))
	require.NoError(t, err)

	info := &LockInfo{Path: target, PID: os.Getpid()}
	require.NoError(t, writeLockInfo(m.infoPath(target), info))

	err = m.Acquire(target)
	require.Error(t, err)
	var lockErr *LockError
	require.ErrorAs(t, err, &lockErr)
	require.Equal(t, os.Getpid(), lockErr.PID)
}
