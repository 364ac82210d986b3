package process

import (
	"errors"
	"fmt"
	"sync"
	"syscall"
)

// fakeNative is an in-memory Native backend. Module contents live in
// regions keyed by base address; reads and writes resolve against them the
// way the OS would against mapped pages.
type fakeNative struct {
	mu   sync.Mutex
	page int
	root string

	exe  map[ProcessID]string
	mods map[ProcessID][]NativeModule
	mem  map[ProcessMemoryAddress][]byte

	openErr    error
	exeErr     error
	modsErr    error
	failChunks map[ProcessMemoryAddress]bool // chunk base addresses whose read fails
	readOnly   bool

	reads        int
	writes       int
	opened       int
	closed       []uintptr
	enableErr    error
	enableCalls  int
	disableCalls int
}

func newFakeNative() *fakeNative {
	return &fakeNative{
		page:       16,
		root:       `C:\Windows`,
		exe:        make(map[ProcessID]string),
		mods:       make(map[ProcessID][]NativeModule),
		mem:        make(map[ProcessMemoryAddress][]byte),
		failChunks: make(map[ProcessMemoryAddress]bool),
	}
}

// addModule registers a module for pid and backs it with content. A nil
// content slice leaves the region unreadable, a zero-length module gets no
// region at all.
func (f *fakeNative) addModule(pid ProcessID, name, path string, base ProcessMemoryAddress, content []byte) {
	f.mods[pid] = append(f.mods[pid], NativeModule{
		Name: name,
		Path: path,
		Base: base,
		Size: ProcessMemorySize(len(content)),
	})
	if len(content) > 0 {
		f.mem[base] = content
	}
}

func (f *fakeNative) OpenProcess(pid ProcessID) (uintptr, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openErr != nil {
		return 0, f.openErr
	}
	f.opened++
	return uintptr(1000 + pid), nil
}

func (f *fakeNative) CloseProcess(handle uintptr) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = append(f.closed, handle)
	return nil
}

func (f *fakeNative) ExePath(handle uintptr, pid ProcessID) (string, error) {
	if f.exeErr != nil {
		return "", f.exeErr
	}
	exe, ok := f.exe[pid]
	if !ok {
		return "", fmt.Errorf("no exe registered for pid %d", pid)
	}
	return exe, nil
}

func (f *fakeNative) Modules(handle uintptr, pid ProcessID) ([]NativeModule, error) {
	if f.modsErr != nil {
		return nil, f.modsErr
	}
	return f.mods[pid], nil
}

func (f *fakeNative) region(addr ProcessMemoryAddress, length int) ([]byte, int, bool) {
	for base, data := range f.mem {
		if addr >= base && uint64(addr)+uint64(length) <= uint64(base)+uint64(len(data)) {
			return data, int(addr - base), true
		}
	}
	return nil, 0, false
}

func (f *fakeNative) ReadMemory(handle uintptr, addr ProcessMemoryAddress, buf []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if f.failChunks[addr] {
		return syscall.Errno(299) // ERROR_PARTIAL_COPY
	}
	data, off, ok := f.region(addr, len(buf))
	if !ok {
		return syscall.Errno(299)
	}
	copy(buf, data[off:])
	return nil
}

func (f *fakeNative) WriteMemory(handle uintptr, addr ProcessMemoryAddress, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	if f.readOnly {
		return errors.New("write denied")
	}
	region, off, ok := f.region(addr, len(data))
	if !ok {
		return syscall.Errno(299)
	}
	copy(region[off:], data)
	return nil
}

func (f *fakeNative) PageSize() int {
	return f.page
}

func (f *fakeNative) SystemRoot() string {
	return f.root
}

func (f *fakeNative) EnableDebugPrivilege() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enableCalls++
	return f.enableErr
}

func (f *fakeNative) DisableDebugPrivilege() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disableCalls++
	return nil
}

// resetPrivilegeCount clears the process-wide privilege counter between
// tests that exercise it.
func resetPrivilegeCount() {
	debugPrivilege.mu.Lock()
	debugPrivilege.count = 0
	debugPrivilege.mu.Unlock()
}
