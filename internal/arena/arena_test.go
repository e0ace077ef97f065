package arena

import "testing"

func TestAllocAlignment(t *testing.T) {
	a := New()
	a.Alloc(3, 1)
	a.Alloc(8, 8)
	c := &a.chunks[a.cur]
	wantOff := alignUp(3, 8) + 8
	if c.off != wantOff {
		t.Fatalf("8-byte allocation was not rounded up to an 8-byte boundary: offset = %d, want %d", c.off, wantOff)
	}
}

func TestAllocGrowsAcrossChunks(t *testing.T) {
	a := New()
	first := a.Alloc(1, 1)
	big := a.Alloc(defaultChunkSize*4, 1)
	if len(a.chunks) < 2 {
		t.Fatalf("expected Alloc to grow into a new chunk, got %d chunks", len(a.chunks))
	}
	first[0] = 1
	for i := range big {
		big[i] = 2
	}
	if first[0] != 1 {
		t.Fatal("writing to the big allocation corrupted the earlier one")
	}
}

func TestStringCopiesAndIsIndependent(t *testing.T) {
	a := New()
	src := []byte("hello")
	s := a.String(string(src))
	src[0] = 'X'
	if s != "hello" {
		t.Fatalf("arena.String result changed when source buffer was mutated: %q", s)
	}
	if a.String("") != "" {
		t.Fatal("String(\"\") should return \"\"")
	}
}

func TestReleaseThenAllocPanics(t *testing.T) {
	a := New()
	a.Alloc(4, 1)
	a.Release()
	defer func() {
		if recover() == nil {
			t.Fatal("expected Alloc after Release to panic")
		}
	}()
	a.Alloc(1, 1)
}

func TestBytesAccumulatesAcrossChunks(t *testing.T) {
	a := New()
	a.Alloc(1, 1)
	before := a.Bytes()
	a.Alloc(defaultChunkSize*2, 1)
	if a.Bytes() <= before {
		t.Fatalf("Bytes() did not grow after forcing a new chunk: before=%d after=%d", before, a.Bytes())
	}
}
