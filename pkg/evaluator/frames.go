package evaluator

import (
	"sort"

	"github.com/C0DECYCLE/PyTerpreter/pkg/diagnostics"
)

// Usage tags what a frame was created for.
type Usage string

const (
	UsageGlobal   Usage = "global"
	UsageSequence Usage = "sequence"
	UsageIf       Usage = "if"
	UsageWhile    Usage = "while"
	UsageRepeat   Usage = "repeat"
	UsageFunction Usage = "function"
	UsageObject   Usage = "object"
)

// Handle addresses a frame in the arena. The id is unique per allocation, so a
// handle to a destroyed frame never resolves again, even after its slot is reused.
type Handle struct {
	index uint32
	id    int64
}

// ID returns the frame's unique id.
func (h Handle) ID() int64 { return h.id }

// Valid reports whether h refers to any frame at all (live or not).
func (h Handle) Valid() bool { return h.id != 0 }

type frame struct {
	id     int64
	usage  Usage
	prev   Handle
	next   Handle
	fields map[string]Value

	cache    []Declaration
	hasCache bool

	// object frames only
	persisted bool
	refs      int
	pending   bool
}

// FrameStats counts frame lifecycle events. Created == Destroyed + Live holds
// at every point between operations.
type FrameStats struct {
	Created   int64 `json:"created"`
	Destroyed int64 `json:"destroyed"`
	Live      int64 `json:"live"`
	Objects   int64 `json:"objects"`
}

// Frames is the arena owning every frame of one evaluation.
type Frames struct {
	slots  []*frame
	free   []uint32
	lastID int64
	stats  FrameStats
}

// NewFrames creates an empty arena.
func NewFrames() *Frames {
	return &Frames{}
}

func (fs *Frames) get(h Handle) (*frame, error) {
	if h.Valid() && int(h.index) < len(fs.slots) {
		if f := fs.slots[h.index]; f != nil && f.id == h.id {
			return f, nil
		}
	}
	return nil, Errorf(diagnostics.EDestroyed, "use of destroyed environment #%d", h.id)
}

// New allocates a detached frame.
func (fs *Frames) New(usage Usage) Handle {
	fs.lastID++
	f := &frame{
		id:     fs.lastID,
		usage:  usage,
		fields: make(map[string]Value),
	}
	var idx uint32
	if n := len(fs.free); n > 0 {
		idx = fs.free[n-1]
		fs.free = fs.free[:n-1]
		fs.slots[idx] = f
	} else {
		idx = uint32(len(fs.slots))
		fs.slots = append(fs.slots, f)
	}
	fs.stats.Created++
	fs.stats.Live++
	return Handle{index: idx, id: f.id}
}

// Persist marks h as an object frame: it survives detaching and is destroyed
// when the last binding referring to it goes away.
func (fs *Frames) Persist(h Handle) error {
	f, err := fs.get(h)
	if err != nil {
		return err
	}
	if !f.persisted {
		f.persisted = true
		fs.stats.Objects++
	}
	return nil
}

// Attach links h directly below prev. prev must have no inner frame and h must
// be detached.
func (fs *Frames) Attach(h, prev Handle) error {
	f, err := fs.get(h)
	if err != nil {
		return err
	}
	p, err := fs.get(prev)
	if err != nil {
		return err
	}
	if h == prev || f.prev.Valid() || p.next.Valid() {
		return Errorf(diagnostics.ETree, "illegal environment tree insertion: #%d below #%d", h.id, prev.id)
	}
	f.prev = prev
	p.next = h
	return nil
}

// Detach unlinks h from its enclosing frame. h must be the innermost frame.
func (fs *Frames) Detach(h Handle) error {
	f, err := fs.get(h)
	if err != nil {
		return err
	}
	if f.next.Valid() {
		return Errorf(diagnostics.ETree, "illegal environment tree removal: #%d still encloses #%d", h.id, f.next.id)
	}
	if !f.prev.Valid() {
		return nil
	}
	if p, err := fs.get(f.prev); err == nil && p.next == h {
		p.next = Handle{}
	}
	f.prev = Handle{}
	return nil
}

// Attached reports whether h is currently linked below another frame.
func (fs *Frames) Attached(h Handle) (bool, error) {
	f, err := fs.get(h)
	if err != nil {
		return false, err
	}
	return f.prev.Valid(), nil
}

// Lowest follows next links from h to the innermost frame.
func (fs *Frames) Lowest(h Handle) (Handle, error) {
	for {
		f, err := fs.get(h)
		if err != nil {
			return Handle{}, err
		}
		if !f.next.Valid() {
			return h, nil
		}
		h = f.next
	}
}

// Previous returns the enclosing frame of h (invalid at the root).
func (fs *Frames) Previous(h Handle) (Handle, error) {
	f, err := fs.get(h)
	if err != nil {
		return Handle{}, err
	}
	return f.prev, nil
}

// Next returns the frame directly inside h (invalid at the innermost frame).
func (fs *Frames) Next(h Handle) (Handle, error) {
	f, err := fs.get(h)
	if err != nil {
		return Handle{}, err
	}
	return f.next, nil
}

// Usage returns the usage tag of h.
func (fs *Frames) Usage(h Handle) (Usage, error) {
	f, err := fs.get(h)
	if err != nil {
		return "", err
	}
	return f.usage, nil
}

// Store binds name to v in h.
func (fs *Frames) Store(h Handle, name string, v Value) error {
	f, err := fs.get(h)
	if err != nil {
		return err
	}
	if err := NotIllegal("store", v); err != nil {
		return err
	}
	old, had := f.fields[name]
	fs.Retain(v, h)
	f.fields[name] = v
	if had {
		fs.release(old, h, true)
	}
	return nil
}

// Exists reports whether h binds name.
func (fs *Frames) Exists(h Handle, name string) (bool, error) {
	f, err := fs.get(h)
	if err != nil {
		return false, err
	}
	_, ok := f.fields[name]
	return ok, nil
}

// Retrieve returns the value bound to name in h.
func (fs *Frames) Retrieve(h Handle, name string) (Value, error) {
	f, err := fs.get(h)
	if err != nil {
		return nil, err
	}
	v, ok := f.fields[name]
	if !ok {
		return nil, Errorf(diagnostics.EProperty, "non-existent property %q in environment #%d", name, h.id)
	}
	return v, nil
}

// Delete removes name from h.
func (fs *Frames) Delete(h Handle, name string) error {
	f, err := fs.get(h)
	if err != nil {
		return err
	}
	old, ok := f.fields[name]
	if !ok {
		return Errorf(diagnostics.EProperty, "non-existent property %q in environment #%d", name, h.id)
	}
	delete(f.fields, name)
	fs.release(old, h, true)
	return nil
}

// Names returns the bound names of h in sorted order.
func (fs *Frames) Names(h Handle) ([]string, error) {
	f, err := fs.get(h)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(f.fields))
	for name := range f.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// SetCache attaches a collision cache to h.
func (fs *Frames) SetCache(h Handle, cache []Declaration) error {
	f, err := fs.get(h)
	if err != nil {
		return err
	}
	f.cache = cache
	f.hasCache = true
	return nil
}

// Cache returns the collision cache of h, if it carries one.
func (fs *Frames) Cache(h Handle) ([]Declaration, bool, error) {
	f, err := fs.get(h)
	if err != nil {
		return nil, false, err
	}
	return f.cache, f.hasCache, nil
}

// Destroy detaches h, releases everything it holds and invalidates every handle
// to it. h must be the innermost frame of its chain.
func (fs *Frames) Destroy(h Handle) error {
	f, err := fs.get(h)
	if err != nil {
		return err
	}
	if err := fs.Detach(h); err != nil {
		return err
	}
	fs.slots[h.index] = nil
	fs.free = append(fs.free, h.index)
	fs.stats.Destroyed++
	fs.stats.Live--
	if f.persisted {
		fs.stats.Objects--
	}
	for _, v := range f.fields {
		fs.release(v, h, true)
	}
	f.fields = nil
	f.cache = nil
	return nil
}

// Retain counts a binding to every object referenced directly by v. Bindings
// an object holds to itself are not counted.
func (fs *Frames) Retain(v Value, owner Handle) {
	if h, ok := objectOf(v); ok && h != owner {
		if f, err := fs.get(h); err == nil && f.persisted {
			f.refs++
		}
	}
}

// Release drops a binding counted by Retain, destroying the object once
// nothing refers to it.
func (fs *Frames) Release(v Value, owner Handle) {
	fs.release(v, owner, true)
}

// Unprotect drops a binding counted by Retain without destroying the object.
// Used to carry values across the destruction of the frame that produced them.
func (fs *Frames) Unprotect(v Value) {
	fs.release(v, Handle{}, false)
}

func (fs *Frames) release(v Value, owner Handle, collect bool) {
	h, ok := objectOf(v)
	if !ok || h == owner {
		return
	}
	f, err := fs.get(h)
	if err != nil || !f.persisted {
		return
	}
	if f.refs > 0 {
		f.refs--
	}
	if f.refs > 0 || !collect {
		return
	}
	if f.prev.Valid() {
		f.pending = true
		return
	}
	_ = fs.Destroy(h)
}

// Settle destroys a detached object frame whose last binding disappeared
// while it was mounted.
func (fs *Frames) Settle(h Handle) error {
	f, err := fs.get(h)
	if err != nil {
		return nil
	}
	if f.pending && f.refs == 0 && !f.prev.Valid() {
		return fs.Destroy(h)
	}
	return nil
}

// Sweep destroys every remaining frame, including unreachable object cycles.
// It returns the number of frames destroyed.
func (fs *Frames) Sweep() int {
	before := fs.stats.Destroyed
	for _, f := range fs.slots {
		if f != nil {
			f.prev = Handle{}
			f.next = Handle{}
		}
	}
	for i := 0; i < len(fs.slots); i++ {
		f := fs.slots[i]
		if f == nil {
			continue
		}
		_ = fs.Destroy(Handle{index: uint32(i), id: f.id})
	}
	return int(fs.stats.Destroyed - before)
}

// Stats returns the current lifecycle counters.
func (fs *Frames) Stats() FrameStats {
	return fs.stats
}

func objectOf(v Value) (Handle, bool) {
	switch val := v.(type) {
	case ObjectRef:
		return val.Handle, true
	case *Function:
		if val.bound {
			return val.mount, true
		}
	}
	return Handle{}, false
}
