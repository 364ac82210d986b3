// Package scratch hands out reusable byte buffers for short-lived work such
// as scan windows and typed-read staging. Buffers obtained here must not be
// retained past the call that requested them.
package scratch

import (
	"sync"
)

var pool sync.Pool

// Get returns a buffer of exactly n bytes. Contents are unspecified.
func Get(n int) []byte {
	if v := pool.Get(); v != nil {
		if b := v.([]byte); cap(b) >= n {
			return b[:n]
		}
	}
	return make([]byte, n)
}

// Put returns a buffer to the pool for reuse.
func Put(b []byte) {
	if cap(b) == 0 {
		return
	}
	pool.Put(b[:0])
}
