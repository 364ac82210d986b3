//go:build windows

package process_windows

import (
	"strings"
	"unsafe"

	"procmem/process"

	"golang.org/x/sys/windows"
)

// ListByName returns every running process whose executable name matches
// name, case-insensitively. The result identifies candidates only; attach
// by one of the returned PIDs, since names are not unique.
func ListByName(name string) ([]process.ProcessInfo, error) {
	all, err := ListAll()
	if err != nil {
		return nil, err
	}
	var out []process.ProcessInfo
	for _, p := range all {
		if strings.EqualFold(p.Name, name) {
			out = append(out, p)
		}
	}
	return out, nil
}

// ListAll enumerates the running processes via a Toolhelp32 snapshot.
func ListAll() ([]process.ProcessInfo, error) {
	snap, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPPROCESS, 0)
	if err != nil {
		return nil, err
	}
	defer windows.CloseHandle(snap)

	var entry windows.ProcessEntry32
	entry.Size = uint32(unsafe.Sizeof(entry))
	if err := windows.Process32First(snap, &entry); err != nil {
		return nil, err
	}

	var out []process.ProcessInfo
	for {
		out = append(out, process.ProcessInfo{
			PID:  process.ProcessID(entry.ProcessID),
			Name: windows.UTF16ToString(entry.ExeFile[:]),
		})
		if err := windows.Process32Next(snap, &entry); err != nil {
			break
		}
	}
	return out, nil
}
