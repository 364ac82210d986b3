package process

import (
	"unsafe"

	"procmem/scratch"
)

// Typed operations are package-level functions because Go methods cannot
// take type parameters. T must be a fixed-layout value type: no pointers,
// slices, strings, maps, channels or interfaces anywhere in it. The raw
// bytes of the target's memory are reinterpreted as T verbatim, in the
// target's own byte order.

var hostLittleEndian = func() bool {
	var x uint16 = 1
	return *(*byte)(unsafe.Pointer(&x)) == 1
}()

// valueBytes exposes v's storage as a byte slice of exactly its size.
func valueBytes[T any](v *T) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), unsafe.Sizeof(*v))
}

// ReadValue reads one value of type T from the effective address
// base+offset.
func ReadValue[T any](a *Accessor, base ProcessMemoryAddress, offset ProcessMemorySize) (T, error) {
	var v T
	size := int(unsafe.Sizeof(v))
	if size == 0 {
		return v, nil
	}

	buf := scratch.Get(size)
	defer scratch.Put(buf)
	if err := a.ReadBytes(base, offset, buf); err != nil {
		var zero T
		return zero, err
	}
	if copy(valueBytes(&v), buf) != size {
		panic("process: typed read buffer does not match value size")
	}
	return v, nil
}

// TryReadValue is ReadValue with OS-level read failures reported as
// ok=false and a zero value. A resolution failure still returns an error.
func TryReadValue[T any](a *Accessor, base ProcessMemoryAddress, offset ProcessMemorySize) (T, bool, error) {
	var v T
	size := int(unsafe.Sizeof(v))
	if size == 0 {
		return v, true, nil
	}

	buf := scratch.Get(size)
	defer scratch.Put(buf)
	ok, err := a.TryReadBytes(base, offset, buf)
	if err != nil || !ok {
		var zero T
		return zero, false, err
	}
	if copy(valueBytes(&v), buf) != size {
		panic("process: typed read buffer does not match value size")
	}
	return v, true, nil
}

// WriteValue writes v's raw byte representation to the effective address
// base+offset, never reversed.
func WriteValue[T any](a *Accessor, base ProcessMemoryAddress, offset ProcessMemorySize, v T) error {
	return a.WriteBytes(base, offset, valueBytes(&v), false)
}

// ReadValueMain is ReadValue with the main module's base as the address.
func ReadValueMain[T any](a *Accessor, offset ProcessMemorySize) (T, error) {
	base, err := a.MainBase()
	if err != nil {
		var zero T
		return zero, err
	}
	return ReadValue[T](a, base, offset)
}

// TryReadValueMain is TryReadValue with the main module's base as the
// address.
func TryReadValueMain[T any](a *Accessor, offset ProcessMemorySize) (T, bool, error) {
	base, err := a.MainBase()
	if err != nil {
		var zero T
		return zero, false, err
	}
	return TryReadValue[T](a, base, offset)
}

// WriteValueMain is WriteValue with the main module's base as the address.
func WriteValueMain[T any](a *Accessor, offset ProcessMemorySize, v T) error {
	base, err := a.MainBase()
	if err != nil {
		return err
	}
	return WriteValue(a, base, offset, v)
}
