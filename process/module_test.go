package process

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestModuleMapDefaultPolicy(t *testing.T) {
	f := testFixture()
	a := openTestAccessor(t, f)

	mods, err := a.Modules()
	require.NoError(t, err)
	require.Len(t, mods, 2, "system and foreign modules are excluded by default")
	require.Equal(t, "game.exe", mods[0].Name)
	require.Equal(t, "plugin.dll", mods[1].Name, "records are sorted ascending by base")
}

func TestModuleMapAllowSystemModules(t *testing.T) {
	f := testFixture()
	a := openTestAccessor(t, f, AllowSystemModules())

	mods, err := a.Modules()
	require.NoError(t, err)
	require.Len(t, mods, 3)
	require.Equal(t, "kernel32.dll", mods[2].Name)
}

func TestModuleMapAllowForeignModules(t *testing.T) {
	f := testFixture()
	a := openTestAccessor(t, f, AllowForeignModules())

	mods, err := a.Modules()
	require.NoError(t, err)
	require.Len(t, mods, 3)
	require.Equal(t, "foreign.dll", mods[2].Name)
}

func TestModuleMapAllowEverything(t *testing.T) {
	f := testFixture()
	a := openTestAccessor(t, f, AllowSystemModules(), AllowForeignModules())

	mods, err := a.Modules()
	require.NoError(t, err)
	require.Len(t, mods, 4)
}

func TestResolveHalfOpenRanges(t *testing.T) {
	f := testFixture()
	a := openTestAccessor(t, f)

	mods, err := a.Modules()
	require.NoError(t, err)

	for _, m := range mods {
		for _, addr := range []ProcessMemoryAddress{
			m.Base,
			m.Base + ProcessMemoryAddress(m.Size)/2,
			m.Base + ProcessMemoryAddress(m.Size) - 1,
		} {
			got, err := a.Resolve(addr)
			require.NoError(t, err)
			require.Equal(t, m, got, "address %s resolves to its owner", addr.ToString())
		}

		// End address is excluded from the half-open range. The next module
		// does not start there in this fixture, so resolution must fail.
		_, err := a.Resolve(m.Base + ProcessMemoryAddress(m.Size))
		var resolveErr *ResolveError
		require.ErrorAs(t, err, &resolveErr)
	}

	_, err = a.Resolve(0x0FFF)
	var resolveErr *ResolveError
	require.ErrorAs(t, err, &resolveErr)

	// Excluded modules do not own addresses even though the OS reports them.
	_, err = a.Resolve(0x3010)
	require.ErrorAs(t, err, &resolveErr)
}

func TestModuleRecordContains(t *testing.T) {
	m := ModuleRecord{Name: "m", Base: 0x100, Size: 0x10}
	require.True(t, m.Contains(0x100))
	require.True(t, m.Contains(0x10F))
	require.False(t, m.Contains(0x110))
	require.False(t, m.Contains(0xFF))
}

func TestMainModuleFilteredOut(t *testing.T) {
	resetPrivilegeCount()
	f := newFakeNative()
	// A main executable living under the system root is excluded by the
	// default policy, so the map has no main module.
	f.exe[42] = `C:\Windows\notepad.exe`
	f.addModule(42, "notepad.exe", `C:\Windows\notepad.exe`, 0x1000, make([]byte, 32))

	a, err := Open(f, 42)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	_, err = a.MainModule()
	require.ErrorIs(t, err, ErrNoMainModule)
	require.ErrorIs(t, a.ReadBytesMain(0, make([]byte, 4)), ErrNoMainModule)
}
