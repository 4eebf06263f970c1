package fxscene

import "testing"

func TestTextureCacheEvictsOldest(t *testing.T) {
	r := &fakeRenderer{}
	tc := newTextureCache(2)
	a, b, c := newTestBuffer(1, 1, true), newTestBuffer(1, 1, true), newTestBuffer(1, 1, true)
	tc.get(r, a)
	tc.get(r, b)
	tc.get(r, a) // a is now the most recent
	tc.get(r, c)
	if tc.len() != 2 {
		t.Fatalf("len = %d, want 2", tc.len())
	}
	if !r.textures[1].destroyed {
		t.Error("b's texture should have been evicted")
	}
	if r.textures[0].destroyed {
		t.Error("a's texture should have been kept")
	}
}

func TestTextureCacheRendererChange(t *testing.T) {
	r1, r2 := &fakeRenderer{}, &fakeRenderer{}
	tc := newTextureCache(0)
	buf := newTestBuffer(2, 2, true)
	tex, ok := tc.get(r1, buf)
	if !ok || tex.Width() != 2 {
		t.Fatalf("get = %v, %v", tex, ok)
	}
	if _, ok := tc.get(r2, buf); !ok || r2.imports != 1 {
		t.Error("a different renderer should import again")
	}
	if !r1.textures[0].destroyed {
		t.Error("texture from the old renderer should be destroyed")
	}
}

func TestTextureCacheRemembersFailure(t *testing.T) {
	r := &fakeRenderer{importErr: errFake}
	tc := newTextureCache(4)
	buf := newTestBuffer(2, 2, true)
	for range 3 {
		if _, ok := tc.get(r, buf); ok {
			t.Fatal("failed import returned a texture")
		}
	}
	if r.imports != 1 {
		t.Errorf("imports = %d, want 1", r.imports)
	}
	tc.remove(buf)
	tc.get(r, buf)
	if r.imports != 2 {
		t.Error("removing the entry should allow a retry")
	}
}

func TestTextureCachePurge(t *testing.T) {
	r := &fakeRenderer{}
	tc := newTextureCache(4)
	tc.get(r, newTestBuffer(1, 1, true))
	tc.get(r, newTestBuffer(1, 1, true))
	tc.purge()
	if tc.len() != 0 {
		t.Error("purge left entries")
	}
	for _, tex := range r.textures {
		if !tex.destroyed {
			t.Error("purge should destroy textures")
		}
	}
}

func TestTextureCacheDropsWithBuffer(t *testing.T) {
	r := &fakeRenderer{}
	tc := newTextureCache(4)
	buf := newTestBuffer(1, 1, true)
	tc.get(r, buf)
	buf.Drop()
	if tc.len() != 0 || !r.textures[0].destroyed {
		t.Error("destroyed buffer should leave the cache")
	}
}

func TestTextureCacheKeepsLockedBuffers(t *testing.T) {
	r := &fakeRenderer{}
	tc := newTextureCache(1)
	a := newTestBuffer(1, 1, true).Lock()
	b := newTestBuffer(1, 1, true).Lock()

	for range 3 {
		if _, ok := tc.get(r, a); !ok {
			t.Fatal("no texture for a")
		}
		if _, ok := tc.get(r, b); !ok {
			t.Fatal("no texture for b")
		}
	}
	if r.imports != 2 {
		t.Errorf("imports = %d, want 2: locked buffers should not be re-imported", r.imports)
	}
	if tc.len() != 2 {
		t.Errorf("len = %d, want 2", tc.len())
	}
	for i, tex := range r.textures {
		if tex.destroyed {
			t.Errorf("texture %d destroyed while its buffer is locked", i)
		}
	}

	// a was evicted last; releasing it lets the texture go.
	a.Unlock()
	if !r.textures[0].destroyed {
		t.Error("texture of an unlocked evicted buffer should be destroyed")
	}
	if tc.len() != 1 {
		t.Errorf("len = %d after unlock, want 1", tc.len())
	}
}

func TestTextureCachePurgeDropsPinned(t *testing.T) {
	r := &fakeRenderer{}
	tc := newTextureCache(1)
	a := newTestBuffer(1, 1, true).Lock()
	b := newTestBuffer(1, 1, true).Lock()
	tc.get(r, a)
	tc.get(r, b)
	tc.purge()
	if tc.len() != 0 {
		t.Errorf("len = %d after purge", tc.len())
	}
	for i, tex := range r.textures {
		if !tex.destroyed {
			t.Errorf("texture %d survived purge", i)
		}
	}
}
