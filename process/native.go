package process

// NativeModule is one module as reported by the OS enumeration, before the
// inclusion policy is applied.
type NativeModule struct {
	Name string // display name, usually the file base name
	Path string // path to the backing file
	Base ProcessMemoryAddress
	Size ProcessMemorySize
}

// Native is the OS surface the accessor runs on. Platform packages provide
// the real implementations; tests substitute a fake so accessor semantics
// can be exercised without a live target process.
type Native interface {
	// OpenProcess acquires a handle with rights sufficient for query
	// information, read memory, write memory and virtual-memory operations.
	OpenProcess(pid ProcessID) (uintptr, error)

	// CloseProcess releases a handle obtained from OpenProcess.
	CloseProcess(handle uintptr) error

	// ExePath returns the path of the target's main executable image.
	ExePath(handle uintptr, pid ProcessID) (string, error)

	// Modules enumerates all modules currently mapped into the target.
	Modules(handle uintptr, pid ProcessID) ([]NativeModule, error)

	// ReadMemory fills buf from the target's memory at addr. A short read
	// is an error; buf is either filled completely or not usable.
	ReadMemory(handle uintptr, addr ProcessMemoryAddress, buf []byte) error

	// WriteMemory writes data to the target's memory at addr.
	WriteMemory(handle uintptr, addr ProcessMemoryAddress, data []byte) error

	// PageSize returns the host page size, used as the scan chunk size.
	PageSize() int

	// SystemRoot returns the OS installation directory, used by the
	// allow-system-modules policy check.
	SystemRoot() string

	// EnableDebugPrivilege raises the calling process's debug privilege so
	// processes outside normal ownership become accessible. Platforms
	// without such a toggle implement it as a successful no-op.
	EnableDebugPrivilege() error

	// DisableDebugPrivilege undoes EnableDebugPrivilege.
	DisableDebugPrivilege() error
}
