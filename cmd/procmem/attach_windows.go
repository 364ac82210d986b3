//go:build windows

package main

import (
	"procmem/process"
	"procmem/process_windows"
)

func attach(pid int, opts ...process.Option) (*process.Accessor, error) {
	return process_windows.Open(process.ProcessID(pid), opts...)
}

func listProcesses(name string) ([]process.ProcessInfo, error) {
	if name == "" {
		return process_windows.ListAll()
	}
	return process_windows.ListByName(name)
}
