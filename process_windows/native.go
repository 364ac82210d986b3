//go:build windows

// Package process_windows backs the process accessor with the Win32
// debugging APIs: OpenProcess handles, ReadProcessMemory/WriteProcessMemory
// for I/O, psapi module enumeration and the SeDebugPrivilege token toggle.
package process_windows

import (
	"fmt"
	"os"
	"syscall"
	"unsafe"

	"procmem/process"

	"golang.org/x/sys/windows"
)

// Access rights requested for a target: enough to query information, read
// and write memory, and perform virtual-memory operations.
const (
	processVMOperation      = 0x0008
	processVMRead           = 0x0010
	processVMWrite          = 0x0020
	processQueryInformation = 0x0400

	targetAccess = processQueryInformation | processVMRead | processVMWrite | processVMOperation
)

const maxModules = 1024

// WindowsNative implements process.Native on Windows.
type WindowsNative struct{}

// New returns the Windows backend.
func New() process.Native {
	return &WindowsNative{}
}

// Open attaches to pid through the Windows backend.
func Open(pid process.ProcessID, opts ...process.Option) (*process.Accessor, error) {
	return process.Open(New(), pid, opts...)
}

// FromHandle wraps an already-open process handle. The accessor takes
// ownership of h and releases it on Close.
func FromHandle(h windows.Handle, pid process.ProcessID, opts ...process.Option) (*process.Accessor, error) {
	return process.FromHandle(New(), pid, uintptr(h), opts...)
}

func (n *WindowsNative) OpenProcess(pid process.ProcessID) (uintptr, error) {
	h, err := windows.OpenProcess(targetAccess, false, uint32(pid))
	if err != nil {
		return 0, err
	}
	return uintptr(h), nil
}

func (n *WindowsNative) CloseProcess(handle uintptr) error {
	return windows.CloseHandle(windows.Handle(handle))
}

func (n *WindowsNative) ExePath(handle uintptr, pid process.ProcessID) (string, error) {
	var name [windows.MAX_PATH]uint16
	// Module handle 0 names the main executable image.
	if err := windows.GetModuleFileNameEx(windows.Handle(handle), 0, &name[0], windows.MAX_PATH); err != nil {
		return "", err
	}
	return windows.UTF16ToString(name[:]), nil
}

func (n *WindowsNative) Modules(handle uintptr, pid process.ProcessID) ([]process.NativeModule, error) {
	h := windows.Handle(handle)

	var handles [maxModules]windows.Handle
	var needed uint32
	if err := windows.EnumProcessModules(h, &handles[0], uint32(unsafe.Sizeof(handles[0]))*maxModules, &needed); err != nil {
		return nil, err
	}
	count := needed / uint32(unsafe.Sizeof(handles[0]))
	if count > maxModules {
		count = maxModules
	}

	out := make([]process.NativeModule, 0, count)
	for i := uint32(0); i < count; i++ {
		var mi windows.ModuleInfo
		if err := windows.GetModuleInformation(h, handles[i], &mi, uint32(unsafe.Sizeof(mi))); err != nil {
			return nil, err
		}

		var name [windows.MAX_PATH]uint16
		if err := windows.GetModuleFileNameEx(h, handles[i], &name[0], windows.MAX_PATH); err != nil {
			return nil, err
		}
		path := windows.UTF16ToString(name[:])

		out = append(out, process.NativeModule{
			Name: baseName(path),
			Path: path,
			Base: process.ProcessMemoryAddress(mi.BaseOfDll),
			Size: process.ProcessMemorySize(mi.SizeOfImage),
		})
	}
	return out, nil
}

func (n *WindowsNative) ReadMemory(handle uintptr, addr process.ProcessMemoryAddress, buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	var done uintptr
	err := windows.ReadProcessMemory(windows.Handle(handle), uintptr(addr), &buf[0], uintptr(len(buf)), &done)
	if err != nil {
		return err
	}
	if done != uintptr(len(buf)) {
		return fmt.Errorf("short read: %d of %d bytes", done, len(buf))
	}
	return nil
}

func (n *WindowsNative) WriteMemory(handle uintptr, addr process.ProcessMemoryAddress, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	var done uintptr
	err := windows.WriteProcessMemory(windows.Handle(handle), uintptr(addr), &data[0], uintptr(len(data)), &done)
	if err != nil {
		return err
	}
	if done != uintptr(len(data)) {
		return fmt.Errorf("short write: %d of %d bytes", done, len(data))
	}
	return nil
}

func (n *WindowsNative) PageSize() int {
	return os.Getpagesize()
}

func (n *WindowsNative) SystemRoot() string {
	if root := os.Getenv("SystemRoot"); root != "" {
		return root
	}
	return `C:\Windows`
}

func (n *WindowsNative) EnableDebugPrivilege() error {
	return adjustDebugPrivilege(windows.SE_PRIVILEGE_ENABLED)
}

func (n *WindowsNative) DisableDebugPrivilege() error {
	return adjustDebugPrivilege(0)
}

// adjustDebugPrivilege sets SeDebugPrivilege on the current process token to
// the given attribute state.
func adjustDebugPrivilege(attrs uint32) error {
	var token windows.Token
	err := windows.OpenProcessToken(windows.CurrentProcess(), windows.TOKEN_ADJUST_PRIVILEGES|windows.TOKEN_QUERY, &token)
	if err != nil {
		return fmt.Errorf("OpenProcessToken: %w", err)
	}
	defer token.Close()

	seDebug, err := syscall.UTF16PtrFromString("SeDebugPrivilege")
	if err != nil {
		return err
	}
	var luid windows.LUID
	if err := windows.LookupPrivilegeValue(nil, seDebug, &luid); err != nil {
		return fmt.Errorf("LookupPrivilegeValue: %w", err)
	}

	tp := windows.Tokenprivileges{PrivilegeCount: 1}
	tp.Privileges[0] = windows.LUIDAndAttributes{
		Luid:       luid,
		Attributes: attrs,
	}
	if err := windows.AdjustTokenPrivileges(token, false, &tp, 0, nil, nil); err != nil {
		return fmt.Errorf("AdjustTokenPrivileges: %w", err)
	}
	return nil
}

func baseName(p string) string {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] == '\\' || p[i] == '/' {
			return p[i+1:]
		}
	}
	return p
}
