package scratch

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetExactLength(t *testing.T) {
	for _, n := range []int{0, 1, 16, 4096} {
		b := Get(n)
		require.Len(t, b, n)
		Put(b)
	}
}

func TestReuseGrownBuffer(t *testing.T) {
	b := Get(1024)
	Put(b)

	// A pooled buffer large enough for the request may come back resliced.
	c := Get(16)
	require.Len(t, c, 16)
	Put(c)
}

func TestPutEmptyBufferIsSafe(t *testing.T) {
	Put(nil)
	Put([]byte{})

	b := Get(8)
	require.Len(t, b, 8)
}
