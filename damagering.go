package fxscene

// DamageRing tracks output damage across swapchain buffers. A swapchain
// hands out buffers in an order the compositor does not control, so the
// damage to repaint into a buffer is everything that changed since that
// particular buffer was last painted.
type DamageRing struct {
	depth         int
	width, height int
	current       Region
	// buffers holds accumulated damage per buffer, most recently used first.
	buffers []ringEntry
}

type ringEntry struct {
	buffer *Buffer
	damage Region
}

// NewDamageRing creates a ring remembering up to depth buffers.
func NewDamageRing(depth int) *DamageRing {
	if depth <= 0 {
		depth = defaultDamageRingDepth
	}
	return &DamageRing{depth: depth}
}

// Depth returns the number of buffers remembered.
func (r *DamageRing) Depth() int { return r.depth }

// SetBounds sets the output size in buffer pixels. Changing it damages
// everything.
func (r *DamageRing) SetBounds(width, height int) {
	if r.width == width && r.height == height {
		return
	}
	r.width, r.height = width, height
	r.AddWhole()
}

func (r *DamageRing) bounds() Box {
	return Box{0, 0, r.width, r.height}
}

// Add records damage, clipped to the bounds. It reports whether anything
// was added.
func (r *DamageRing) Add(damage Region) bool {
	clipped := damage.IntersectBox(r.bounds())
	if clipped.Empty() {
		return false
	}
	r.current = r.current.Union(clipped)
	return true
}

// AddBox is Add for a single box.
func (r *DamageRing) AddBox(b Box) bool {
	return r.Add(RegionFromBox(b))
}

// AddWhole damages the whole output.
func (r *DamageRing) AddWhole() {
	r.current = RegionFromBox(r.bounds())
}

// Current returns the damage accumulated since the last rotation.
func (r *DamageRing) Current() Region {
	return r.current
}

// Pending reports whether there is unrendered damage.
func (r *DamageRing) Pending() bool {
	return !r.current.Empty()
}

// RotateBuffer returns the damage to repaint into buf and starts a new
// frame. Buffers the ring has not seen, or has forgotten, are repainted
// completely.
func (r *DamageRing) RotateBuffer(buf *Buffer) Region {
	var damage Region
	found := -1
	for i, e := range r.buffers {
		if e.buffer == buf {
			found = i
			break
		}
	}
	if found >= 0 {
		e := r.buffers[found]
		damage = e.damage.Union(r.current)
		copy(r.buffers[1:found+1], r.buffers[:found])
		r.buffers[0] = ringEntry{buffer: buf}
	} else {
		damage = RegionFromBox(r.bounds())
		r.buffers = append([]ringEntry{{buffer: buf}}, r.buffers...)
		if len(r.buffers) > r.depth {
			r.buffers = r.buffers[:r.depth]
		}
	}
	for i := 1; i < len(r.buffers); i++ {
		r.buffers[i].damage = r.buffers[i].damage.Union(r.current)
	}
	r.current = Region{}
	return damage.IntersectBox(r.bounds())
}

// Reset forgets all buffers, for example after the swapchain was
// recreated.
func (r *DamageRing) Reset() {
	r.buffers = nil
	r.AddWhole()
}
