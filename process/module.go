package process

import (
	"fmt"
	"sort"

	"procmem/pathutil"
)

// ModuleRecord is one included module. Records are immutable once the
// module map is built; the map is a snapshot of the target at construction
// time and is not refreshed when the target loads or unloads modules.
type ModuleRecord struct {
	Name string
	Path string
	Base ProcessMemoryAddress
	Size ProcessMemorySize
}

// Contains reports whether addr lies in the half-open range
// [Base, Base+Size).
func (m ModuleRecord) Contains(addr ProcessMemoryAddress) bool {
	return addr >= m.Base && addr < m.Base+ProcessMemoryAddress(m.Size)
}

func (m ModuleRecord) String() string {
	return fmt.Sprintf("%s @ %s (%s)", m.Name, m.Base.ToString(), m.Size.ToString())
}

// ModuleMap holds the included modules sorted ascending by base address.
// The base slice mirrors the records so address resolution can binary
// search without touching the larger record structs.
type ModuleMap struct {
	bases   []ProcessMemoryAddress
	records []ModuleRecord
	main    int // index of the main executable module, -1 if filtered out
}

// buildModuleMap applies the two-part inclusion policy and sorts what
// survives. Both policy knobs default to false, the most restrictive
// setting: system modules are those backed by a file under the OS
// installation directory, foreign modules are those whose backing file does
// not live in the main executable's directory.
func buildModuleMap(mods []NativeModule, mainPath, systemRoot string, allowSystem, allowForeign bool) *ModuleMap {
	var records []ModuleRecord
	for _, m := range mods {
		if !allowSystem && pathutil.Contains(systemRoot, m.Path) {
			continue
		}
		if !allowForeign && !pathutil.SameDir(mainPath, m.Path) {
			continue
		}
		records = append(records, ModuleRecord{
			Name: m.Name,
			Path: m.Path,
			Base: m.Base,
			Size: m.Size,
		})
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Base < records[j].Base
	})

	mm := &ModuleMap{
		bases:   make([]ProcessMemoryAddress, len(records)),
		records: records,
		main:    -1,
	}
	for i, r := range records {
		mm.bases[i] = r.Base
		if mm.main == -1 && pathutil.Equal(r.Path, mainPath) {
			mm.main = i
		}
	}
	return mm
}

// Resolve returns the record whose half-open range contains addr. A
// ResolveError is the canonical signal that the caller supplied an address
// outside every included module, which covers addresses legitimately inside
// excluded system or foreign modules.
func (mm *ModuleMap) Resolve(addr ProcessMemoryAddress) (ModuleRecord, error) {
	i := sort.Search(len(mm.records), func(i int) bool {
		return mm.bases[i]+ProcessMemoryAddress(mm.records[i].Size) > addr
	})
	if i < len(mm.records) && mm.bases[i] <= addr {
		return mm.records[i], nil
	}
	return ModuleRecord{}, &ResolveError{Addr: addr}
}

// Records returns a copy of the included modules in base-address order.
func (mm *ModuleMap) Records() []ModuleRecord {
	out := make([]ModuleRecord, len(mm.records))
	copy(out, mm.records)
	return out
}

// Main returns the main executable's record, if the policy included it.
func (mm *ModuleMap) Main() (ModuleRecord, bool) {
	if mm.main < 0 {
		return ModuleRecord{}, false
	}
	return mm.records[mm.main], true
}

// Len returns the number of included modules.
func (mm *ModuleMap) Len() int {
	return len(mm.records)
}
