//go:build linux

package main

import (
	"procmem/process"
	"procmem/process_linux"
)

func attach(pid int, opts ...process.Option) (*process.Accessor, error) {
	return process_linux.Open(process.ProcessID(pid), opts...)
}

func listProcesses(name string) ([]process.ProcessInfo, error) {
	if name == "" {
		return process_linux.ListAll()
	}
	return process_linux.ListByName(name)
}
