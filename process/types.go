package process

import (
	"fmt"
)

// ProcessID represents a unique identifier for a process
type ProcessID int

// ProcessMemoryAddress represents a memory address within a process
type ProcessMemoryAddress uint64

func (pma ProcessMemoryAddress) ToString() string {
	return fmt.Sprintf("0x%X", uint64(pma))
}

// ProcessMemorySize represents a size of memory region
type ProcessMemorySize uint

func (pms ProcessMemorySize) ToString() string {
	return fmt.Sprintf("%d bytes", uint(pms))
}

// ProcessInfo contains basic information about a running process, as
// reported by the platform process listers. It identifies a candidate to
// attach to; attaching itself is always by PID.
type ProcessInfo struct {
	PID  ProcessID // Process ID
	Name string    // Executable base name
	Path string    // Path to the executable, empty if it could not be resolved
}
