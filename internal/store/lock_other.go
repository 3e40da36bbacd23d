//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly || windows)

package store

import "os"

// Platforms without flock(2) or LockFileEx get no cross-process exclusion;
// the Registry mutex still serializes writers within the process.
func lockFile(*os.File) error   { return nil }
func unlockFile(*os.File) error { return nil }
