//go:build windows

package cache

import (
	"os"
	"time"
)

// Windows has no flock; exclusive access is simulated by exclusive file
// creation, and shared (read) access is simulated by tolerating whatever
// the writer is doing rather than blocking on it (backward-compatible with
// freshly-created caches, per the locking contract).

func acquireExclusiveLock(lockFile string) (*os.File, error) {
	for i := 0; i < 10; i++ {
		f, err := os.OpenFile(lockFile, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o644)
		if err == nil {
			return f, nil
		}

		if info, statErr := os.Stat(lockFile); statErr == nil {
			if time.Since(info.ModTime()) > 30*time.Second {
				os.Remove(lockFile)
				continue
			}
		}
		time.Sleep(50 * time.Millisecond)
	}
	return nil, os.ErrExist
}

func acquireSharedLock(lockFile string) (*os.File, error) {
	f, err := os.OpenFile(lockFile, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func releaseExclusiveLock(f *os.File) {
	if f == nil {
		return
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
}

func releaseSharedLock(f *os.File) {
	if f == nil {
		return
	}
	f.Close()
}
