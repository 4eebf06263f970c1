package fxscene

import (
	"testing"
	"time"
)

type fakeSurface struct {
	state     SurfaceState
	entered   []*Output
	left      []*Output
	frameDone int
	scale     float64
	sampled   int
}

func (s *fakeSurface) State() SurfaceState { return s.state }
func (s *fakeSurface) Enter(o *Output) { s.entered = append(s.entered, o) }
func (s *fakeSurface) Leave(o *Output) { s.left = append(s.left, o) }
func (s *fakeSurface) FrameDone(time.Time) { s.frameDone++ }
func (s *fakeSurface) SetPreferredScale(v float64) { s.scale = v }
func (s *fakeSurface) Sampled(*Output, bool) { s.sampled++ }

func TestSceneSurfaceSizeFromBufferScale(t *testing.T) {
	s := NewScene(nil)
	surf := &fakeSurface{state: SurfaceState{Buffer: newTestBuffer(200, 100, true), Scale: 2}}
	ss := NewSceneSurface(s.Root(), surf)
	if w, h := ss.Node.Size(); w != 100 || h != 50 {
		t.Errorf("Size = %dx%d, want 100x50", w, h)
	}

	surf.state = SurfaceState{Buffer: newTestBuffer(100, 200, true), Transform: Transform90}
	ss.Commit()
	if w, h := ss.Node.Size(); w != 200 || h != 100 {
		t.Errorf("rotated Size = %dx%d, want 200x100", w, h)
	}
	if ss.Node.Transform() != Transform90 {
		t.Error("transform not applied")
	}

	surf.state = SurfaceState{Buffer: newTestBuffer(10, 10, true), Width: 30, Height: 40}
	ss.Commit()
	if w, h := ss.Node.Size(); w != 30 || h != 40 {
		t.Errorf("explicit Size = %dx%d, want 30x40", w, h)
	}
}

func TestSceneSurfaceUnmap(t *testing.T) {
	s := NewScene(nil)
	buf := newTestBuffer(10, 10, true)
	surf := &fakeSurface{state: SurfaceState{Buffer: buf}}
	ss := NewSceneSurface(s.Root(), surf)
	if !ss.Node.HasContent() {
		t.Fatal("mapped surface should show content")
	}
	surf.state = SurfaceState{}
	ss.Commit()
	if ss.Node.HasContent() || buf.Locks() != 0 {
		t.Error("nil buffer should unmap and unlock")
	}
}

func TestSceneSurfaceClip(t *testing.T) {
	s := NewScene(nil)
	surf := &fakeSurface{state: SurfaceState{
		Buffer:       newTestBuffer(100, 100, false),
		OpaqueRegion: RegionFromBox(box(0, 0, 100, 20)),
	}}
	ss := NewSceneSurface(s.Root(), surf)
	ss.SetClip(box(10, 10, 50, 50))

	if got := ss.Node.SourceBox(); got != (FBox{10, 10, 50, 50}) {
		t.Errorf("SourceBox = %v, want (10,10,50,50)", got)
	}
	if w, h := ss.Node.DestSize(); w != 50 || h != 50 {
		t.Errorf("DestSize = %dx%d", w, h)
	}
	assertRegion(t, "opaque", ss.Node.OpaqueRegion(), box(0, 0, 50, 10))

	ss.SetClip(box(200, 200, 10, 10))
	if ss.Node.HasContent() {
		t.Error("clip outside the surface should hide it")
	}
	ss.SetClip(Box{})
	if got := ss.Node.SourceBox(); got != (FBox{0, 0, 100, 100}) {
		t.Errorf("unclipped SourceBox = %v", got)
	}
	if ss.Clip() != (Box{}) {
		t.Error("clip not cleared")
	}
}

func TestSceneSurfaceClipRotated(t *testing.T) {
	s := NewScene(nil)
	surf := &fakeSurface{state: SurfaceState{Buffer: newTestBuffer(100, 200, true), Transform: Transform90}}
	ss := NewSceneSurface(s.Root(), surf)
	// The surface is 200x100; keep its left half.
	ss.SetClip(box(0, 0, 100, 100))

	src := ss.Node.SourceBox()
	if got := TransformFBox(src, Transform90, 100, 200); got != (FBox{0, 0, 100, 100}) {
		t.Errorf("crop in surface orientation = %v, want (0,0,100,100)", got)
	}
	if src.Width != 100 || src.Height != 100 {
		t.Errorf("SourceBox = %v", src)
	}
}

func TestSceneSurfaceEvents(t *testing.T) {
	e := newTestEnv(t, 200, 200)
	e.display.scale = 2
	e.output.HandleModeChange()
	CreateRect(e.scene.Root(), 100, 100, ColorWhite)
	surf := &fakeSurface{state: SurfaceState{Buffer: newTestBuffer(100, 100, true), Scale: 2}}
	ss := NewSceneSurface(e.scene.Root(), surf)

	if len(surf.entered) != 1 || surf.entered[0] != e.output {
		t.Fatalf("entered = %v", surf.entered)
	}
	if surf.scale != 2 || ss.PreferredScale() != 2 {
		t.Errorf("preferred scale = %v / %v, want 2", surf.scale, ss.PreferredScale())
	}
	if ss.FramePacingOutput() != e.output {
		t.Error("pacing output should be the only output")
	}

	e.frame(t)
	if surf.frameDone != 1 || surf.sampled != 1 {
		t.Errorf("frameDone = %d, sampled = %d, want 1 each", surf.frameDone, surf.sampled)
	}

	// Buffer-pixel damage lands on the output at the matching spot: the
	// buffer scale and the output scale cancel out.
	surf.state.Buffer = newTestBuffer(100, 100, true)
	surf.state.Damage = RegionFromBox(box(0, 0, 10, 10))
	ss.Commit()
	assertRegion(t, "damage", e.output.DamageRing().Current(), box(0, 0, 10, 10))

	surf.state.WantsFrame = true
	scheduled := e.display.scheduled
	ss.Commit()
	if e.display.scheduled == scheduled {
		t.Error("frame request should schedule the primary output")
	}

	ss.Node.SetPosition(500, 500)
	if len(surf.left) != 1 {
		t.Errorf("left = %v", surf.left)
	}
	if ss.FramePacingOutput() != nil || ss.PreferredScale() != 1 {
		t.Error("hidden surface has no pacing output")
	}

	ss.Destroy()
	if !ss.Node.Destroyed() {
		t.Error("node not destroyed")
	}
}

func TestSceneSurfacePacingFollowsFastestOutput(t *testing.T) {
	s := NewScene(nil)
	r := &fakeRenderer{}
	slow := newFakeDisplay("slow", 100, 100)
	fast := newFakeDisplay("fast", 100, 100)
	fast.refresh = 144000
	fast.scale = 1.5
	_, _ = NewOutput(s, slow, r)
	fo, _ := NewOutput(s, fast, r)
	fo.SetPosition(50, 0)

	surf := &fakeSurface{state: SurfaceState{Buffer: newTestBuffer(100, 100, true)}}
	ss := NewSceneSurface(s.Root(), surf)
	if ss.FramePacingOutput() != fo {
		t.Error("pacing should follow the fastest output")
	}
	if ss.PreferredScale() != 1.5 || surf.scale != 1.5 {
		t.Errorf("preferred scale = %v / %v, want 1.5", ss.PreferredScale(), surf.scale)
	}
}
