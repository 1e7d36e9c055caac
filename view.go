package memview

import "sync"

// View is a read-only window [begin, end) onto the bytes of one source.
//
// Views are small values: copy them freely. Slicing never touches the
// source. The first decode on a view fetches its window once and caches
// the result; copies of a view share that cache, and slices of a resolved
// view start out resolved.
type View struct {
	src   *container
	begin int
	end   int
	c     *cell
}

// cell is the lazily filled fetch cache of a single window.
type cell struct {
	mu  sync.Mutex
	res Fetched
	ok  bool
}

// New creates a view over the whole of src.
func New(src Source) View {
	return NewWithOptions(src, Options{})
}

func NewWithOptions(src Source, opts Options) View {
	if src == nil {
		panic("memview: nil source")
	}
	c := newContainer(src, opts.logger())
	return View{src: c, begin: 0, end: c.size, c: &cell{}}
}

func (v View) Size() int { return v.end - v.begin }

func (v View) Empty() bool { return v.Size() == 0 }

// Offset returns the start of the window within the root source.
func (v View) Offset() int { return v.begin }

// Slice returns the sub-view [first, last) relative to v. Bounds are not
// checked; see Strict for the validated variant.
func (v View) Slice(first, last int) View {
	return v.narrow(v.begin+first, v.begin+last)
}

// From returns the sub-view from first to the end of v.
func (v View) From(first int) View {
	return v.narrow(v.begin+first, v.end)
}

// To returns the sub-view from the start of v up to last (exclusive).
func (v View) To(last int) View {
	return v.narrow(v.begin, v.begin+last)
}

func (v View) narrow(begin, end int) View {
	child := View{src: v.src, begin: begin, end: end, c: &cell{}}
	if v.c == nil {
		return child
	}
	v.c.mu.Lock()
	defer v.c.mu.Unlock()
	// Carry the parent's bytes forward when the child lies inside them;
	// anything else is fetched lazily from the source.
	if v.c.ok && begin >= v.begin && begin <= end && end <= v.end {
		lo, hi := begin-v.begin, end-v.begin
		child.c.res = Fetched{Data: v.c.res.Data[lo:hi:hi], Anchor: v.c.res.Anchor}
		child.c.ok = true
	}
	return child
}

// Resolved reports whether the window's bytes are already cached.
func (v View) Resolved() bool {
	if v.c == nil {
		return false
	}
	v.c.mu.Lock()
	defer v.c.mu.Unlock()
	return v.c.ok
}

// Anchor returns the lifetime anchor of the cached fetch, or nil when the
// view is unresolved or its source hands out unowned memory.
func (v View) Anchor() *Anchor {
	if v.c == nil {
		return nil
	}
	v.c.mu.Lock()
	defer v.c.mu.Unlock()
	return v.c.res.Anchor
}

// Bytes returns the bytes of the window, fetching them on first use.
// The returned slice must not be modified.
func (v View) Bytes() ([]byte, error) {
	f, err := v.fetch()
	if err != nil {
		return nil, err
	}
	return f.Data, nil
}

func (v View) fetch() (Fetched, error) {
	if v.src == nil {
		return Fetched{}, ErrNoSource
	}
	v.c.mu.Lock()
	defer v.c.mu.Unlock()
	if v.c.ok {
		return v.c.res, nil
	}
	f, err := v.src.fetch(v.begin, v.end)
	if err != nil {
		return Fetched{}, err
	}
	f.Data = f.Data[: v.end-v.begin : v.end-v.begin]
	v.c.res, v.c.ok = f, true
	return f, nil
}
