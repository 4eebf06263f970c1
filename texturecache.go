package fxscene

import (
	lru "github.com/hashicorp/golang-lru"
)

const defaultTextureCacheSize = 64

// textureCache maps content buffers to the textures imported from them.
// Entries are evicted least-recently-used first, and when their buffer is
// destroyed. An evicted entry whose buffer is still locked by a node is
// pinned instead of destroyed: it leaves the LRU but keeps its texture until
// the last lock is released, so a scene with more live buffers than the
// cache size does not re-import every frame.
type textureCache struct {
	cache  *lru.Cache
	pinned map[*Buffer]*textureEntry
	// dropping is set while entries are removed on purpose; they are
	// destroyed even if their buffer is locked.
	dropping bool
}

type textureEntry struct {
	buf      *Buffer
	renderer Renderer
	texture  Texture // nil when the import failed
	sub      *Subscription
	release  *Subscription
}

func (e *textureEntry) destroy() {
	e.sub.Close()
	if e.release != nil {
		e.release.Close()
	}
	if e.texture != nil {
		e.texture.Destroy()
	}
}

func newTextureCache(size int) *textureCache {
	if size <= 0 {
		size = defaultTextureCacheSize
	}
	tc := &textureCache{pinned: make(map[*Buffer]*textureEntry)}
	c, err := lru.NewWithEvict(size, func(_, value interface{}) {
		tc.evicted(value.(*textureEntry))
	})
	if err != nil {
		// Only returned for a non-positive size.
		panic("fxscene: " + err.Error())
	}
	tc.cache = c
	return tc
}

func (tc *textureCache) evicted(e *textureEntry) {
	if tc.dropping || e.buf.Locks() == 0 || e.texture == nil {
		e.destroy()
		return
	}
	tc.pinned[e.buf] = e
	e.release = e.buf.Events.Release.Subscribe(func(b *Buffer) {
		if p, ok := tc.pinned[b]; ok {
			delete(tc.pinned, b)
			p.destroy()
		}
	})
}

// get returns the texture for buf, importing it with r on a miss. A failed
// import is remembered so it is reported once per buffer. The second result
// is false when no texture is available.
func (tc *textureCache) get(r Renderer, buf *Buffer) (Texture, bool) {
	if e, ok := tc.pinned[buf]; ok {
		delete(tc.pinned, buf)
		e.release.Close()
		e.release = nil
		if e.renderer == r {
			tc.cache.Add(buf, e)
			return e.texture, true
		}
		e.destroy()
	}
	if v, ok := tc.cache.Get(buf); ok {
		e := v.(*textureEntry)
		if e.renderer == r {
			return e.texture, e.texture != nil
		}
		tc.remove(buf)
	}
	tex, err := r.ImportBuffer(buf)
	if err != nil {
		Logger().Warn("fxscene: buffer import failed, content dropped",
			"width", buf.Width(), "height", buf.Height(), "err", err)
		tex = nil
	}
	e := &textureEntry{buf: buf, renderer: r, texture: tex}
	e.sub = buf.Events.Destroy.Subscribe(func(b *Buffer) {
		tc.remove(b)
	})
	tc.cache.Add(buf, e)
	return tex, tex != nil
}

func (tc *textureCache) remove(buf *Buffer) {
	if e, ok := tc.pinned[buf]; ok {
		delete(tc.pinned, buf)
		e.destroy()
	}
	tc.dropping = true
	tc.cache.Remove(buf)
	tc.dropping = false
}

// len returns the number of cached textures, pinned ones included.
func (tc *textureCache) len() int {
	return tc.cache.Len() + len(tc.pinned)
}

func (tc *textureCache) purge() {
	tc.dropping = true
	tc.cache.Purge()
	tc.dropping = false
	for b, e := range tc.pinned {
		delete(tc.pinned, b)
		e.destroy()
	}
}
