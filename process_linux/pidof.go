//go:build linux

package process_linux

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"procmem/process"
)

// ListByName returns every running process whose comm or executable base
// name equals name, pidof-style. Matching is exact; the caller attaches by
// one of the returned PIDs.
func ListByName(name string) ([]process.ProcessInfo, error) {
	all, err := ListAll()
	if err != nil {
		return nil, err
	}
	var out []process.ProcessInfo
	for _, p := range all {
		if p.Name == name {
			out = append(out, p)
		}
	}
	return out, nil
}

// ListAll enumerates the running processes from /proc.
func ListAll() ([]process.ProcessInfo, error) {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return nil, err
	}

	self := os.Getpid()
	var out []process.ProcessInfo
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		pid, err := strconv.Atoi(e.Name())
		if err != nil || pid <= 0 || pid == self {
			continue
		}

		name := ""
		if comm, err := os.ReadFile(filepath.Join("/proc", e.Name(), "comm")); err == nil {
			name = strings.TrimSuffix(string(comm), "\n")
		}

		// The exe symlink resolves only with sufficient access; zombies and
		// foreign-owned processes keep an empty path.
		exe, _ := os.Readlink(filepath.Join("/proc", e.Name(), "exe"))
		if name == "" && exe != "" {
			name = filepath.Base(exe)
		}
		if name == "" {
			continue
		}

		out = append(out, process.ProcessInfo{
			PID:  process.ProcessID(pid),
			Name: name,
			Path: exe,
		})
	}
	return out, nil
}
