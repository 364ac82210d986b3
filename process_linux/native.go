//go:build linux

// Package process_linux backs the process accessor with Linux primitives:
// process_vm_readv/process_vm_writev for memory I/O and /proc/[pid]/maps
// for module enumeration. There is no per-process debug privilege to
// toggle; access control is the kernel's ptrace policy, so the privilege
// operations succeed as no-ops.
package process_linux

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"procmem/process"

	"golang.org/x/sys/unix"
)

// LinuxNative implements process.Native on Linux. The process "handle" is
// the pid itself; process_vm_readv addresses targets by pid, not by an OS
// handle object.
type LinuxNative struct{}

// New returns the Linux backend.
func New() process.Native {
	return &LinuxNative{}
}

// Open attaches to pid through the Linux backend.
func Open(pid process.ProcessID, opts ...process.Option) (*process.Accessor, error) {
	return process.Open(New(), pid, opts...)
}

func (n *LinuxNative) OpenProcess(pid process.ProcessID) (uintptr, error) {
	if _, err := os.Stat(fmt.Sprintf("/proc/%d", pid)); err != nil {
		return 0, fmt.Errorf("process %d does not exist: %w", pid, err)
	}
	return uintptr(pid), nil
}

func (n *LinuxNative) CloseProcess(handle uintptr) error {
	// Nothing is held open between calls.
	return nil
}

func (n *LinuxNative) ExePath(handle uintptr, pid process.ProcessID) (string, error) {
	exe, err := os.Readlink(fmt.Sprintf("/proc/%d/exe", pid))
	if err != nil {
		return "", fmt.Errorf("readlink exe: %w", err)
	}
	return exe, nil
}

// Modules derives module records from the file-backed regions of
// /proc/[pid]/maps: consecutive regions mapped from the same file merge
// into one record spanning from the first region's start to the last
// region's end.
func (n *LinuxNative) Modules(handle uintptr, pid process.ProcessID) ([]process.NativeModule, error) {
	f, err := os.Open(fmt.Sprintf("/proc/%d/maps", pid))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []process.NativeModule
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 6 || !strings.HasPrefix(fields[5], "/") {
			continue
		}
		path := strings.Join(fields[5:], " ")
		if strings.HasSuffix(path, " (deleted)") {
			continue
		}

		addrRange := strings.Split(fields[0], "-")
		if len(addrRange) != 2 {
			continue
		}
		start, err := strconv.ParseUint(addrRange[0], 16, 64)
		if err != nil {
			continue
		}
		end, err := strconv.ParseUint(addrRange[1], 16, 64)
		if err != nil {
			continue
		}

		if len(out) > 0 && out[len(out)-1].Path == path {
			prev := &out[len(out)-1]
			prevEnd := uint64(prev.Base) + uint64(prev.Size)
			if start >= prevEnd {
				prev.Size = process.ProcessMemorySize(end - uint64(prev.Base))
				continue
			}
		}
		out = append(out, process.NativeModule{
			Name: path[strings.LastIndexByte(path, '/')+1:],
			Path: path,
			Base: process.ProcessMemoryAddress(start),
			Size: process.ProcessMemorySize(end - start),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (n *LinuxNative) ReadMemory(handle uintptr, addr process.ProcessMemoryAddress, buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	local := make([]unix.Iovec, 1)
	local[0].Base = &buf[0]
	local[0].SetLen(len(buf))
	remote := []unix.RemoteIovec{{Base: uintptr(addr), Len: len(buf)}}

	done, err := unix.ProcessVMReadv(int(handle), local, remote, 0)
	if err != nil {
		return fmt.Errorf("process_vm_readv: %w", err)
	}
	if done != len(buf) {
		return fmt.Errorf("short read: %d of %d bytes", done, len(buf))
	}
	return nil
}

func (n *LinuxNative) WriteMemory(handle uintptr, addr process.ProcessMemoryAddress, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	local := make([]unix.Iovec, 1)
	local[0].Base = &data[0]
	local[0].SetLen(len(data))
	remote := []unix.RemoteIovec{{Base: uintptr(addr), Len: len(data)}}

	done, err := unix.ProcessVMWritev(int(handle), local, remote, 0)
	if err != nil {
		return fmt.Errorf("process_vm_writev: %w", err)
	}
	if done != len(data) {
		return fmt.Errorf("short write: %d of %d bytes", done, len(data))
	}
	return nil
}

func (n *LinuxNative) PageSize() int {
	return os.Getpagesize()
}

func (n *LinuxNative) SystemRoot() string {
	return "/usr"
}

func (n *LinuxNative) EnableDebugPrivilege() error {
	return nil
}

func (n *LinuxNative) DisableDebugPrivilege() error {
	return nil
}
