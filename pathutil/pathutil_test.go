package pathutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContains(t *testing.T) {
	require.True(t, Contains(`C:\Windows`, `C:\Windows\System32\kernel32.dll`))
	require.True(t, Contains(`C:\Windows`, `c:/windows/system32/KERNEL32.DLL`))
	require.True(t, Contains(`C:\Windows`, `C:\Windows`))
	require.True(t, Contains("/usr", "/usr/lib/libc.so.6"))

	require.False(t, Contains(`C:\Windows`, `C:\WindowsOld\file.dll`))
	require.False(t, Contains(`C:\Games\app`, `C:\Windows\System32\ntdll.dll`))
	require.False(t, Contains("", "/usr/lib/libc.so.6"))
	require.False(t, Contains("/usr", ""))
}

func TestContainsRootDir(t *testing.T) {
	require.True(t, Contains("/", "/usr/lib/libc.so.6"))
}

func TestEqual(t *testing.T) {
	require.True(t, Equal(`C:\Games\app\game.exe`, `c:/games/app/GAME.EXE`))
	require.False(t, Equal(`C:\Games\app\game.exe`, `C:\Games\app\other.exe`))
	require.False(t, Equal("", ""))
}

func TestParent(t *testing.T) {
	require.Equal(t, `c:/games/app`, Parent(`C:\Games\app\game.exe`))
	require.Equal(t, "/usr/lib", Parent("/usr/lib/libc.so.6"))
}

func TestSameDir(t *testing.T) {
	require.True(t, SameDir(`C:\Games\app\game.exe`, `c:/games/APP/plugin.dll`))
	require.False(t, SameDir(`C:\Games\app\game.exe`, `C:\Windows\System32\ntdll.dll`))
	require.False(t, SameDir("", `C:\Games\app\plugin.dll`))
}
