package process

import (
	"errors"
	"fmt"
	"syscall"
)

var (
	// ErrProcessNotOpen is returned by operations on a closed accessor.
	ErrProcessNotOpen = errors.New("process not open")

	// ErrEmptyPattern is returned by the scan operations for a zero-length pattern.
	ErrEmptyPattern = errors.New("empty pattern")

	// ErrNoMainModule is returned by the *Main convenience operations when the
	// main executable module was filtered out of the module map.
	ErrNoMainModule = errors.New("main module not present in module map")
)

// PolicyError reports an attempt to attach to a protected process. It is
// fatal to construction and never retried.
type PolicyError struct {
	PID    ProcessID
	Image  string // offending image name, empty for pid-based rejections
	Reason string
}

func (e *PolicyError) Error() string {
	if e.Image != "" {
		return fmt.Sprintf("attach to pid %d (%s) denied: %s", e.PID, e.Image, e.Reason)
	}
	return fmt.Sprintf("attach to pid %d denied: %s", e.PID, e.Reason)
}

// ResolveError reports an address that falls outside every included module's
// range. It signals caller error, not an OS condition, so even the Try*
// variants return it instead of a boolean failure.
type ResolveError struct {
	Addr ProcessMemoryAddress
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("address %s is not owned by any included module", e.Addr.ToString())
}

// OSError reports a failed OS call together with the OS-defined error code.
// All OS failures funnel through NewOSError so message formatting stays
// consistent.
type OSError struct {
	Op   string // the OS call that failed, e.g. "ReadProcessMemory"
	Code uintptr
	Err  error
}

func (e *OSError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s failed with code 0x%X: %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *OSError) Unwrap() error {
	return e.Err
}

// NewOSError wraps err into an OSError for the named OS call, capturing the
// numeric error code when err carries one.
func NewOSError(op string, err error) *OSError {
	var code uintptr
	var errno syscall.Errno
	if errors.As(err, &errno) {
		code = uintptr(errno)
	}
	return &OSError{Op: op, Code: code, Err: err}
}
