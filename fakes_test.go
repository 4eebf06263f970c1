package fxscene

import (
	"errors"
	"testing"
)

// --- Fake renderer ---

type fakeTexture struct {
	w, h      int
	buf       *Buffer
	destroyed bool
}

func (t *fakeTexture) Width() int { return t.w }
func (t *fakeTexture) Height() int { return t.h }
func (t *fakeTexture) Destroy() { t.destroyed = true }

type fakeTimeline struct {
	signaled uint64
}

func (tl *fakeTimeline) Signal(point uint64) error {
	tl.signaled = max(tl.signaled, point)
	return nil
}

func (tl *fakeTimeline) Signaled(point uint64) bool { return tl.signaled >= point }

type fakeCapture struct {
	destroyed bool
}

func (c *fakeCapture) Destroy() { c.destroyed = true }

type fakeRenderer struct {
	imports     int
	textures    []*fakeTexture
	importErr   error
	beginErr    error
	submitErr   error
	timelineErr error
	passes      []*fakePass
}

func (r *fakeRenderer) ImportBuffer(b *Buffer) (Texture, error) {
	r.imports++
	if r.importErr != nil {
		return nil, r.importErr
	}
	t := &fakeTexture{w: b.Width(), h: b.Height(), buf: b}
	r.textures = append(r.textures, t)
	return t, nil
}

func (r *fakeRenderer) BeginPass(target *Buffer, opts PassOptions) (RenderPass, error) {
	if r.beginErr != nil {
		return nil, r.beginErr
	}
	p := &fakePass{r: r, target: target, opts: opts}
	r.passes = append(r.passes, p)
	return p, nil
}

func (r *fakeRenderer) CreateTimeline() (Timeline, error) {
	if r.timelineErr != nil {
		return nil, r.timelineErr
	}
	return &fakeTimeline{}, nil
}

func (r *fakeRenderer) lastPass() *fakePass {
	if len(r.passes) == 0 {
		return nil
	}
	return r.passes[len(r.passes)-1]
}

type fakePass struct {
	r         *fakeRenderer
	target    *Buffer
	opts      PassOptions
	ops       []any
	submitted bool
}

func (p *fakePass) DrawRect(prim RectPrimitive) { p.ops = append(p.ops, prim) }
func (p *fakePass) DrawTexture(prim TexturePrimitive) { p.ops = append(p.ops, prim) }
func (p *fakePass) DrawShadow(prim ShadowPrimitive) { p.ops = append(p.ops, prim) }

func (p *fakePass) DrawBlur(prim BlurPrimitive) {
	if prim.Capture && prim.Cache != nil {
		prim.Cache.Data = &fakeCapture{}
	}
	p.ops = append(p.ops, prim)
}

func (p *fakePass) Submit() error {
	p.submitted = true
	if p.r.submitErr != nil {
		return p.r.submitErr
	}
	if p.opts.Signal.Valid() {
		return p.opts.Signal.Timeline.Signal(p.opts.Signal.Point)
	}
	return nil
}

func (p *fakePass) rects() []RectPrimitive { return opsOf[RectPrimitive](p) }
func (p *fakePass) textures() []TexturePrimitive { return opsOf[TexturePrimitive](p) }
func (p *fakePass) shadows() []ShadowPrimitive { return opsOf[ShadowPrimitive](p) }
func (p *fakePass) blurs() []BlurPrimitive { return opsOf[BlurPrimitive](p) }

func opsOf[T any](p *fakePass) []T {
	var out []T
	for _, op := range p.ops {
		if v, ok := op.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

// --- Fake display ---

type fakeDisplay struct {
	name      string
	w, h      int
	scale     float64
	transform Transform
	refresh   int
	disabled  bool

	scheduled     int
	swapLen       int
	swapchain     []*Buffer
	next          int
	acquireErr    error
	commitErr     error
	commits       []OutputState
	rejectScanout bool
}

func newFakeDisplay(name string, w, h int) *fakeDisplay {
	return &fakeDisplay{name: name, w: w, h: h, scale: 1, refresh: 60000}
}

func (d *fakeDisplay) Name() string { return d.name }
func (d *fakeDisplay) Resolution() (int, int) { return d.w, d.h }
func (d *fakeDisplay) Scale() float64 { return d.scale }
func (d *fakeDisplay) Transform() Transform { return d.transform }
func (d *fakeDisplay) Refresh() int { return d.refresh }
func (d *fakeDisplay) ScheduleFrame() { d.scheduled++ }
func (d *fakeDisplay) Enabled() bool { return !d.disabled }
func (d *fakeDisplay) TestScanout(OutputState) bool { return !d.rejectScanout }

func (d *fakeDisplay) AcquireBuffer() (*Buffer, error) {
	if d.acquireErr != nil {
		return nil, d.acquireErr
	}
	if len(d.swapchain) == 0 {
		n := d.swapLen
		if n == 0 {
			n = 2
		}
		for range n {
			d.swapchain = append(d.swapchain, NewBuffer(BufferDesc{Width: d.w, Height: d.h, Opaque: true}))
		}
	}
	b := d.swapchain[d.next%len(d.swapchain)]
	d.next++
	return b, nil
}

func (d *fakeDisplay) Commit(state OutputState) error {
	if d.commitErr != nil {
		return d.commitErr
	}
	d.commits = append(d.commits, state)
	return nil
}

func (d *fakeDisplay) lastCommit() OutputState {
	return d.commits[len(d.commits)-1]
}

// --- Helpers ---

var errFake = errors.New("fake failure")

type testEnv struct {
	scene    *Scene
	output   *Output
	display  *fakeDisplay
	renderer *fakeRenderer
}

func newTestEnv(t *testing.T, w, h int) *testEnv {
	t.Helper()
	return newTestEnvWithOptions(t, w, h, nil)
}

func newTestEnvWithOptions(t *testing.T, w, h int, opts *SceneOptions) *testEnv {
	t.Helper()
	s := NewScene(opts)
	d := newFakeDisplay("test-1", w, h)
	r := &fakeRenderer{}
	o, err := NewOutput(s, d, r)
	if err != nil {
		t.Fatalf("NewOutput: %v", err)
	}
	return &testEnv{scene: s, output: o, display: d, renderer: r}
}

// frame commits the output and acknowledges presentation.
func (e *testEnv) frame(t *testing.T) *fakePass {
	t.Helper()
	before := len(e.renderer.passes)
	if err := e.output.Commit(nil); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	e.output.HandlePresent(PresentEvent{Presented: true})
	if len(e.renderer.passes) == before {
		return nil
	}
	return e.renderer.lastPass()
}

func newTestBuffer(w, h int, opaque bool) *Buffer {
	return NewBuffer(BufferDesc{Width: w, Height: h, Opaque: opaque})
}

func box(x, y, w, h int) Box {
	return Box{x, y, w, h}
}

func assertRegion(t *testing.T, name string, got Region, want ...Box) {
	t.Helper()
	w := NewRegion(want...)
	if !got.Equal(w) {
		t.Errorf("%s = %v, want %v", name, got.Rects(), w.Rects())
	}
}

func assertPanics(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("%s: expected panic", name)
		}
	}()
	fn()
}
