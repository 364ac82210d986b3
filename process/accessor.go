package process

import (
	"fmt"
	"path"
	"strings"

	"procmem/scratch"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// protectedPIDs are process ids never attached to, regardless of OS state.
var protectedPIDs = map[ProcessID]string{
	0: "idle process",
	4: "kernel/system process",
}

// deniedImages are image names never attached to. csrss is the session
// manager's secure subsystem host; touching it destabilizes the machine.
var deniedImages = []string{"csrss.exe"}

// Accessor attaches to one running process and exposes typed read/write and
// pattern-search operations over its included modules. A single Accessor is
// not safe for concurrent use from multiple goroutines; callers that need
// concurrent scans should open one Accessor each, which independently
// acquires a handle and re-enumerates modules.
type Accessor struct {
	native  Native
	pid     ProcessID
	handle  uintptr
	exePath string
	modules *ModuleMap

	allowSystem  bool
	allowForeign bool

	log    *logger.Logger
	closed bool
}

// Option configures an Accessor at construction time.
type Option func(*Accessor)

// AllowSystemModules includes modules whose backing file lives under the OS
// installation directory. Excluded by default.
func AllowSystemModules() Option {
	return func(a *Accessor) { a.allowSystem = true }
}

// AllowForeignModules includes modules whose backing file lives outside the
// main executable's directory. Excluded by default.
func AllowForeignModules() Option {
	return func(a *Accessor) { a.allowForeign = true }
}

func newAccessor(n Native, pid ProcessID, opts []Option) *Accessor {
	a := &Accessor{
		native: n,
		pid:    pid,
		log:    logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, fmt.Sprintf("memproc-%d", pid))),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Open attaches to the process identified by pid. Construction acquires the
// debug-privilege lease and the process handle, then builds the module map
// once. Process names are deliberately not accepted as an identifier; they
// are not guaranteed unique.
func Open(n Native, pid ProcessID, opts ...Option) (*Accessor, error) {
	if reason, ok := protectedPIDs[pid]; ok {
		return nil, &PolicyError{PID: pid, Reason: "protected " + reason}
	}
	a := newAccessor(n, pid, opts)

	// Privilege failure is non-fatal here: targets owned by the caller are
	// accessible without it, and anything else surfaces as OpenProcess
	// failing below.
	if err := acquireDebugPrivilege(n); err != nil {
		a.log.Warn("debug privilege unavailable: ", err)
	}

	handle, err := n.OpenProcess(pid)
	if err != nil {
		releaseDebugPrivilege(n)
		return nil, NewOSError("OpenProcess", err)
	}
	a.handle = handle

	if err := a.finishOpen(); err != nil {
		a.teardown()
		return nil, err
	}
	a.log.Infoln("attached,", a.modules.Len(), "modules included")
	return a, nil
}

// FromHandle builds an Accessor around an already-open process handle. The
// accessor takes ownership: the handle is released on Close. The attach
// policy still applies.
func FromHandle(n Native, pid ProcessID, handle uintptr, opts ...Option) (*Accessor, error) {
	if reason, ok := protectedPIDs[pid]; ok {
		return nil, &PolicyError{PID: pid, Reason: "protected " + reason}
	}
	a := newAccessor(n, pid, opts)
	if err := acquireDebugPrivilege(n); err != nil {
		a.log.Warn("debug privilege unavailable: ", err)
	}
	a.handle = handle

	if err := a.finishOpen(); err != nil {
		a.teardown()
		return nil, err
	}
	a.log.Infoln("attached to existing handle,", a.modules.Len(), "modules included")
	return a, nil
}

func (a *Accessor) finishOpen() error {
	exe, err := a.native.ExePath(a.handle, a.pid)
	if err != nil {
		return NewOSError("QueryImagePath", err)
	}
	a.exePath = exe

	image := strings.ToLower(baseName(exe))
	for _, denied := range deniedImages {
		if image == denied {
			return &PolicyError{PID: a.pid, Image: image, Reason: "protected system image"}
		}
	}
	return a.rebuildModules()
}

func (a *Accessor) rebuildModules() error {
	mods, err := a.native.Modules(a.handle, a.pid)
	if err != nil {
		return NewOSError("EnumModules", err)
	}
	a.modules = buildModuleMap(mods, a.exePath, a.native.SystemRoot(), a.allowSystem, a.allowForeign)
	return nil
}

// teardown releases everything a partially-built accessor holds.
func (a *Accessor) teardown() {
	_ = a.native.CloseProcess(a.handle)
	a.handle = 0
	releaseDebugPrivilege(a.native)
}

// Close releases the process handle and decrements the shared privilege
// reference count. It is idempotent; calling it twice has the same effect
// as calling it once. Not closing an accessor leaks the handle and can
// leave the system-wide debug privilege enabled indefinitely.
func (a *Accessor) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true

	err := a.native.CloseProcess(a.handle)
	a.handle = 0
	releaseDebugPrivilege(a.native)
	a.log.Infoln("detached")

	if err != nil {
		return NewOSError("CloseHandle", err)
	}
	return nil
}

// PID returns the attached process id.
func (a *Accessor) PID() ProcessID {
	return a.pid
}

// ExePath returns the path of the target's main executable image.
func (a *Accessor) ExePath() string {
	return a.exePath
}

// Modules returns a copy of the included module records in base-address
// order. The records are the construction-time snapshot; use
// RefreshModules to observe a changed module set.
func (a *Accessor) Modules() ([]ModuleRecord, error) {
	if a.closed {
		return nil, ErrProcessNotOpen
	}
	return a.modules.Records(), nil
}

// MainModule returns the record of the target's main executable, when the
// inclusion policy kept it.
func (a *Accessor) MainModule() (ModuleRecord, error) {
	if a.closed {
		return ModuleRecord{}, ErrProcessNotOpen
	}
	m, ok := a.modules.Main()
	if !ok {
		return ModuleRecord{}, ErrNoMainModule
	}
	return m, nil
}

// RefreshModules re-enumerates the target's modules and rebuilds the map
// under the same inclusion policy. It is never called implicitly.
func (a *Accessor) RefreshModules() error {
	if a.closed {
		return ErrProcessNotOpen
	}
	return a.rebuildModules()
}

// Resolve returns the included module owning addr.
func (a *Accessor) Resolve(addr ProcessMemoryAddress) (ModuleRecord, error) {
	if a.closed {
		return ModuleRecord{}, ErrProcessNotOpen
	}
	return a.modules.Resolve(addr)
}

// effective computes base+offset and validates that the start address is
// owned by an included module. Only the start address is checked: a read or
// write whose length extends past the owning module's end is passed to the
// OS as-is. Callers that need end-of-range safety must size their buffers
// against the resolved record.
func (a *Accessor) effective(base ProcessMemoryAddress, offset ProcessMemorySize) (ProcessMemoryAddress, error) {
	if a.closed {
		return 0, ErrProcessNotOpen
	}
	addr := base + ProcessMemoryAddress(offset)
	if _, err := a.modules.Resolve(addr); err != nil {
		return 0, err
	}
	return addr, nil
}

// ReadBytes fills dst from the effective address base+offset. The length of
// dst is the read length.
func (a *Accessor) ReadBytes(base ProcessMemoryAddress, offset ProcessMemorySize, dst []byte) error {
	addr, err := a.effective(base, offset)
	if err != nil {
		return err
	}
	if len(dst) == 0 {
		return nil
	}
	if err := a.native.ReadMemory(a.handle, addr, dst); err != nil {
		return NewOSError("ReadProcessMemory", err)
	}
	return nil
}

// TryReadBytes is ReadBytes with OS-level read failures reported as ok=false
// instead of an error, for tolerant polling of memory that may be unmapped.
// A resolution failure still returns an error; it indicates caller error,
// not a transient OS condition.
func (a *Accessor) TryReadBytes(base ProcessMemoryAddress, offset ProcessMemorySize, dst []byte) (bool, error) {
	addr, err := a.effective(base, offset)
	if err != nil {
		return false, err
	}
	if len(dst) == 0 {
		return true, nil
	}
	if err := a.native.ReadMemory(a.handle, addr, dst); err != nil {
		a.log.Debugln("tolerated read failure at", addr.ToString(), err)
		return false, nil
	}
	return true, nil
}

// WriteBytes writes data to the effective address base+offset. When reverse
// is set and the host is little-endian, a byte-reversed copy of data is
// written instead, which lets callers emit big-endian-oriented payloads on
// little-endian hosts. The transform is caller opt-in, never inferred.
func (a *Accessor) WriteBytes(base ProcessMemoryAddress, offset ProcessMemorySize, data []byte, reverse bool) error {
	addr, err := a.effective(base, offset)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	if reverse && hostLittleEndian {
		tmp := scratch.Get(len(data))
		defer scratch.Put(tmp)
		for i, b := range data {
			tmp[len(data)-1-i] = b
		}
		data = tmp
	}
	if err := a.native.WriteMemory(a.handle, addr, data); err != nil {
		return NewOSError("WriteProcessMemory", err)
	}
	return nil
}

// MainBase returns the main module's base address for the *Main convenience
// forms.
func (a *Accessor) MainBase() (ProcessMemoryAddress, error) {
	m, err := a.MainModule()
	if err != nil {
		return 0, err
	}
	return m.Base, nil
}

// ReadBytesMain is ReadBytes with the main module's base as the address.
func (a *Accessor) ReadBytesMain(offset ProcessMemorySize, dst []byte) error {
	base, err := a.MainBase()
	if err != nil {
		return err
	}
	return a.ReadBytes(base, offset, dst)
}

// WriteBytesMain is WriteBytes with the main module's base as the address.
func (a *Accessor) WriteBytesMain(offset ProcessMemorySize, data []byte, reverse bool) error {
	base, err := a.MainBase()
	if err != nil {
		return err
	}
	return a.WriteBytes(base, offset, data, reverse)
}

func baseName(p string) string {
	return path.Base(strings.ReplaceAll(p, "\\", "/"))
}
