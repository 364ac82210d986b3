package process

import (
	"bytes"
	"unicode/utf16"
	"unsafe"

	"procmem/scratch"
)

// Find returns the absolute address of the first byte-exact occurrence of
// pattern in any included module, walking modules in base-address order.
// Each module is read in page-sized chunks; the trailing len(pattern)-1
// bytes of the previous chunk are prepended to the next so a match
// straddling a chunk boundary is still found. The sentinel address 0 means
// the pattern is absent everywhere; not-found is an expected outcome, not
// an error.
func (a *Accessor) Find(pattern []byte) (ProcessMemoryAddress, error) {
	if a.closed {
		return 0, ErrProcessNotOpen
	}
	if len(pattern) == 0 {
		return 0, ErrEmptyPattern
	}

	chunk := a.native.PageSize()
	window := scratch.Get(chunk + len(pattern) - 1)
	defer scratch.Put(window)

	for _, m := range a.modules.records {
		if m.Size == 0 {
			continue
		}
		if addr, found := a.findInModule(m, pattern, window, chunk); found {
			return addr, nil
		}
	}
	return 0, nil
}

// FindAll returns the absolute addresses of every occurrence of pattern, in
// module order then address order. An empty result is not an error.
func (a *Accessor) FindAll(pattern []byte) ([]ProcessMemoryAddress, error) {
	if a.closed {
		return nil, ErrProcessNotOpen
	}
	if len(pattern) == 0 {
		return nil, ErrEmptyPattern
	}

	chunk := a.native.PageSize()
	window := scratch.Get(chunk + len(pattern) - 1)
	defer scratch.Put(window)

	var out []ProcessMemoryAddress
	for _, m := range a.modules.records {
		if m.Size == 0 {
			continue
		}
		out = a.scanModule(m, pattern, window, chunk, out, false)
	}
	return out, nil
}

func (a *Accessor) findInModule(m ModuleRecord, pattern, window []byte, chunk int) (ProcessMemoryAddress, bool) {
	found := a.scanModule(m, pattern, window, chunk, nil, true)
	if len(found) == 0 {
		return 0, false
	}
	return found[0], true
}

// scanModule streams one module through the window buffer. carry tracks how
// many trailing bytes of the previous chunk sit at the front of the window;
// a failed chunk read resets it, so no match can span a read-failure
// boundary. A carried tail is always shorter than the pattern, so a match
// reported in a later window can never have been fully contained in an
// earlier one.
func (a *Accessor) scanModule(m ModuleRecord, pattern, window []byte, chunk int, matches []ProcessMemoryAddress, firstOnly bool) []ProcessMemoryAddress {
	size := uint64(m.Size)
	carry := 0

	for off := uint64(0); off < size; off += uint64(chunk) {
		n := chunk
		if rem := size - off; rem < uint64(n) {
			n = int(rem)
		}

		chunkBase := m.Base + ProcessMemoryAddress(off)
		if err := a.native.ReadMemory(a.handle, chunkBase, window[carry:carry+n]); err != nil {
			a.log.Debugln("scan skipping unreadable chunk at", chunkBase.ToString())
			carry = 0
			continue
		}

		view := window[:carry+n]
		for from := 0; ; {
			idx := bytes.Index(view[from:], pattern)
			if idx < 0 {
				break
			}
			idx += from
			matches = append(matches, chunkBase+ProcessMemoryAddress(idx)-ProcessMemoryAddress(carry))
			if firstOnly {
				return matches
			}
			from = idx + 1
		}

		keep := len(pattern) - 1
		if total := carry + n; keep > total {
			keep = total
		}
		copy(window, window[carry+n-keep:carry+n])
		carry = keep
	}
	return matches
}

// FindValue searches for the raw byte representation of a fixed-layout
// value, in the host's byte order.
func FindValue[T any](a *Accessor, v T) (ProcessMemoryAddress, error) {
	if unsafe.Sizeof(v) == 0 {
		return 0, ErrEmptyPattern
	}
	return a.Find(valueBytes(&v))
}

// FindString searches for the encoded bytes of s: UTF-8 as stored, or
// UTF-16LE when asUTF16 is set. This is the one search overload that must
// allocate, since the text has to be encoded before matching.
func (a *Accessor) FindString(s string, asUTF16 bool) (ProcessMemoryAddress, error) {
	if !asUTF16 {
		return a.Find([]byte(s))
	}
	units := utf16.Encode([]rune(s))
	pattern := make([]byte, 0, len(units)*2)
	for _, u := range units {
		pattern = append(pattern, byte(u), byte(u>>8))
	}
	return a.Find(pattern)
}
