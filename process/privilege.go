package process

import (
	"sync"
)

// The debug privilege is a process-wide OS setting, so the reference count
// is shared by every accessor in this process. The privilege is enabled
// while the count is above zero and disabled exactly when it returns to
// zero. The count and the enable/disable transitions are updated under one
// lock so concurrent construction and disposal of accessors stay paired
// with the toggle.
var debugPrivilege struct {
	mu    sync.Mutex
	count int
}

// acquireDebugPrivilege increments the shared count and, on the 0 -> 1
// transition, enables the privilege. The enable error is returned for
// logging only: some targets are accessible without the privilege, so the
// caller treats failure as non-fatal and the reference is counted either
// way.
func acquireDebugPrivilege(n Native) error {
	debugPrivilege.mu.Lock()
	defer debugPrivilege.mu.Unlock()

	debugPrivilege.count++
	if debugPrivilege.count == 1 {
		return n.EnableDebugPrivilege()
	}
	return nil
}

// releaseDebugPrivilege decrements the shared count and, on the 1 -> 0
// transition, disables the privilege. Releasing more often than acquiring
// is a bug in handle lifecycle management, not a runtime condition.
func releaseDebugPrivilege(n Native) {
	debugPrivilege.mu.Lock()
	defer debugPrivilege.mu.Unlock()

	if debugPrivilege.count == 0 {
		panic("process: debug privilege released more times than acquired")
	}
	debugPrivilege.count--
	if debugPrivilege.count == 0 {
		// Best effort: the privilege is advisory once every lease is gone.
		_ = n.DisableDebugPrivilege()
	}
}
