package arena

import "unsafe"

// New1 allocates a single zeroed T from a and returns a pointer to it.
func New1[T any](a *Arena) *T {
	var zero T
	b := a.Alloc(int(unsafe.Sizeof(zero)), int(unsafe.Alignof(zero)))
	p := (*T)(unsafe.Pointer(&b[0]))
	*p = zero
	return p
}

// NewSlice allocates a slice of n zeroed Ts from a, with len==cap==n.
func NewSlice[T any](a *Arena, n int) []T {
	if n == 0 {
		return nil
	}
	var zero T
	sz := int(unsafe.Sizeof(zero))
	b := a.Alloc(sz*n, int(unsafe.Alignof(zero)))
	return unsafe.Slice((*T)(unsafe.Pointer(&b[0])), n)
}
