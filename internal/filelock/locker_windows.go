//go:build windows

package filelock

import "os"

type windowsLocker struct{}

// TODO: implement via golang.org/x/sys/windows.LockFileEx; stubbed as
// a no-op so the package builds on Windows.
func (windowsLocker) Lock(f *os.File) error { return nil }

func (windowsLocker) Unlock(f *os.File) error { return nil }

func isProcessAlive(pid int) bool { return false }

func newPlatformLocker() fileLocker {
	return windowsLocker{}
}
