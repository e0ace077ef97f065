// Package arena implements a bump-allocated lifetime region used to own
// all IR, AST, and string storage created during the build of a single
// compilation unit. There is no per-object free: everything allocated
// from an Arena is released en masse when the Arena is dropped.
package arena

// defaultChunkSize is the size of the first chunk. Later chunks double,
// capped at maxChunkSize, mirroring the grow-on-exhaust strategy used by
// the Go toolchain's own bump allocators for compiler-internal storage.
const (
	defaultChunkSize = 4 << 10
	maxChunkSize     = 1 << 20
)

// Arena is a bump allocator. The zero value is ready to use.
type Arena struct {
	chunks []chunk
	cur    int // index into chunks of the chunk currently being filled
	nextSz int
	live   bool
}

type chunk struct {
	buf []byte
	off int
}

// New returns a ready-to-use Arena.
func New() *Arena {
	a := &Arena{nextSz: defaultChunkSize}
	a.live = true
	return a
}

// Alloc returns n zeroed bytes with the given alignment, bumping the
// current chunk's offset or growing a new chunk when the current one is
// exhausted.
func (a *Arena) Alloc(n, align int) []byte {
	if !a.live {
		panic("arena: use after Release")
	}
	if align <= 0 {
		align = 1
	}
	if len(a.chunks) == 0 {
		a.grow(n + align)
	}
	for {
		c := &a.chunks[a.cur]
		off := alignUp(c.off, align)
		if off+n <= len(c.buf) {
			c.off = off + n
			return c.buf[off : off+n : off+n]
		}
		a.grow(n + align)
	}
}

func alignUp(off, align int) int {
	return (off + align - 1) &^ (align - 1)
}

func (a *Arena) grow(want int) {
	sz := a.nextSz
	for sz < want {
		sz *= 2
	}
	a.chunks = append(a.chunks, chunk{buf: make([]byte, sz)})
	a.cur = len(a.chunks) - 1
	if a.nextSz < maxChunkSize {
		a.nextSz *= 2
		if a.nextSz > maxChunkSize {
			a.nextSz = maxChunkSize
		}
	}
}

// String copies s into arena-owned storage and returns the copy. Used to
// give identifiers and string-literal contents a lifetime independent of
// whatever buffer the AST producer used.
func (a *Arena) String(s string) string {
	if s == "" {
		return ""
	}
	b := a.Alloc(len(s), 1)
	copy(b, s)
	return string(b)
}

// Release drops all chunks. After Release the Arena must not be used
// again; callers that need data to outlive the arena must have copied it
// out explicitly (see package doc).
func (a *Arena) Release() {
	a.chunks = nil
	a.cur = 0
	a.live = false
}

// Bytes allocated across all live chunks, for diagnostics/metrics only.
func (a *Arena) Bytes() int {
	n := 0
	for _, c := range a.chunks {
		n += len(c.buf)
	}
	return n
}
