package fxscene

import (
	"testing"
)

// --- Constructor defaults ---

func TestCreateNodeDefaults(t *testing.T) {
	s := NewScene(nil)
	root := s.Root()
	tree := CreateTree(root)
	rect := CreateRect(root, 10, 20, ColorWhite)
	shadow := CreateShadow(root, 10, 20, ColorBlack)
	buf := CreateBuffer(root, nil)
	blur := CreateOptimizedBlur(root, 30, 40)

	tests := []struct {
		n    *Node
		typ  NodeType
		w, h int
	}{
		{tree, NodeTypeTree, 0, 0},
		{rect, NodeTypeRect, 10, 20},
		{shadow, NodeTypeShadow, 10, 20},
		{buf, NodeTypeBuffer, 0, 0},
		{blur, NodeTypeOptimizedBlur, 30, 40},
	}
	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			n := tt.n
			if n.ID == 0 {
				t.Error("ID should be non-zero")
			}
			if n.Type != tt.typ {
				t.Errorf("Type = %v, want %v", n.Type, tt.typ)
			}
			if n.Parent() != root {
				t.Error("parent should be root")
			}
			if !n.Enabled() {
				t.Error("new nodes should be enabled")
			}
			if w, h := n.Size(); w != tt.w || h != tt.h {
				t.Errorf("Size = %dx%d, want %dx%d", w, h, tt.w, tt.h)
			}
		})
	}
	if got := root.Children(); len(got) != 5 || got[4] != blur {
		t.Errorf("children not in creation order: %v", got)
	}
	if buf.Opacity() != 1 || buf.Corners() != CornerAll {
		t.Errorf("buffer defaults: opacity %v, corners %v", buf.Opacity(), buf.Corners())
	}
}

func TestCreateUnderInvalidParentPanics(t *testing.T) {
	s := NewScene(nil)
	rect := CreateRect(s.Root(), 1, 1, ColorWhite)
	assertPanics(t, "nil parent", func() { CreateTree(nil) })
	assertPanics(t, "rect parent", func() { CreateTree(rect) })
	tree := CreateTree(s.Root())
	tree.Destroy()
	assertPanics(t, "destroyed parent", func() { CreateTree(tree) })
}

func TestWrongTypeSetterPanics(t *testing.T) {
	s := NewScene(nil)
	tree := CreateTree(s.Root())
	rect := CreateRect(s.Root(), 1, 1, ColorWhite)
	assertPanics(t, "SetSize on tree", func() { tree.SetSize(1, 1) })
	assertPanics(t, "SetOpacity on rect", func() { _ = rect.SetOpacity(0.5) })
	assertPanics(t, "SetBlurSigma on rect", func() { _ = rect.SetBlurSigma(1) })
}

// --- Tree structure ---

// checkTree verifies that every child's parent pointer points back at the
// tree holding it.
func checkTree(t *testing.T, n *Node) {
	t.Helper()
	for _, c := range n.Children() {
		if c.Parent() != n {
			t.Errorf("node %d: parent = %v, want %d", c.ID, c.Parent(), n.ID)
		}
		if c.Destroyed() {
			t.Errorf("destroyed node %d still attached", c.ID)
		}
		if c.Type == NodeTypeTree {
			checkTree(t, c)
		}
	}
}

func TestStackingOperations(t *testing.T) {
	s := NewScene(nil)
	root := s.Root()
	a := CreateRect(root, 1, 1, ColorWhite)
	b := CreateRect(root, 1, 1, ColorWhite)
	c := CreateRect(root, 1, 1, ColorWhite)

	order := func() []*Node { return root.Children() }
	expect := func(name string, want ...*Node) {
		t.Helper()
		got := order()
		if len(got) != len(want) {
			t.Fatalf("%s: %d children, want %d", name, len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("%s: child %d = %d, want %d", name, i, got[i].ID, want[i].ID)
			}
		}
	}

	a.RaiseToTop()
	expect("raise", b, c, a)
	a.LowerToBottom()
	expect("lower", a, b, c)
	a.PlaceAbove(b)
	expect("above", b, a, c)
	c.PlaceBelow(b)
	expect("below", c, b, a)
	checkTree(t, root)

	assertPanics(t, "place relative to self", func() { a.PlaceAbove(a) })
	other := CreateTree(root)
	d := CreateRect(other, 1, 1, ColorWhite)
	assertPanics(t, "place relative to non-sibling", func() { d.PlaceAbove(a) })
}

func TestReparent(t *testing.T) {
	s := NewScene(nil)
	root := s.Root()
	outer := CreateTree(root)
	inner := CreateTree(outer)
	rect := CreateRect(root, 5, 5, ColorWhite)

	rect.Reparent(inner)
	if rect.Parent() != inner {
		t.Fatal("rect should be under inner")
	}
	if root.NumChildren() != 1 {
		t.Errorf("root children = %d, want 1", root.NumChildren())
	}
	checkTree(t, root)

	assertPanics(t, "cycle", func() { outer.Reparent(inner) })
	assertPanics(t, "self", func() { outer.Reparent(outer) })
	assertPanics(t, "root", func() { root.Reparent(outer) })
	other := NewScene(nil)
	assertPanics(t, "across scenes", func() { rect.Reparent(other.Root()) })
}

func TestCoords(t *testing.T) {
	s := NewScene(nil)
	a := CreateTree(s.Root())
	a.SetPosition(10, 20)
	b := CreateTree(a)
	b.SetPosition(1, 2)
	r := CreateRect(b, 1, 1, ColorWhite)
	r.SetPosition(100, 200)

	x, y, ok := r.Coords()
	if !ok || x != 111 || y != 222 {
		t.Errorf("Coords = (%d, %d, %v), want (111, 222, true)", x, y, ok)
	}
	a.SetEnabled(false)
	if _, _, ok := r.Coords(); ok {
		t.Error("Coords should fail under a disabled ancestor")
	}
}

// --- Destruction ---

func TestDestroySubtree(t *testing.T) {
	s := NewScene(nil)
	tree := CreateTree(s.Root())
	var kids []*Node
	for range 3 {
		kids = append(kids, CreateRect(tree, 1, 1, ColorWhite))
	}
	var order []uint32
	tree.Events.Destroy.Subscribe(func(n *Node) {
		order = append(order, n.ID)
		if n.NumChildren() != 3 {
			t.Errorf("children gone before the destroy signal: %d", n.NumChildren())
		}
	})
	for _, k := range kids {
		k.Events.Destroy.Subscribe(func(n *Node) { order = append(order, n.ID) })
	}

	tree.Destroy()
	if !tree.Destroyed() {
		t.Fatal("tree not destroyed")
	}
	for _, k := range kids {
		if !k.Destroyed() {
			t.Errorf("child %d not destroyed", k.ID)
		}
	}
	if len(order) != 4 || order[0] != tree.ID {
		t.Errorf("destroy order = %v, want tree first then children", order)
	}
	if s.Root().NumChildren() != 0 {
		t.Error("destroyed tree still attached to root")
	}
	tree.Destroy() // second call is a no-op
}

func TestDestroyReentrant(t *testing.T) {
	s := NewScene(nil)
	r := CreateRect(s.Root(), 1, 1, ColorWhite)
	r.Events.Destroy.Subscribe(func(n *Node) {
		n.Destroy() // re-entrant call is a no-op
	})
	r.Destroy()
	var nilNode *Node
	nilNode.Destroy()
}

func TestDestroyFromChildDestroyHandler(t *testing.T) {
	s := NewScene(nil)
	tree := CreateTree(s.Root())
	a := CreateBuffer(tree, newTestBuffer(10, 10, true))
	b := CreateBuffer(tree, newTestBuffer(10, 10, true))
	c := CreateBuffer(tree, newTestBuffer(10, 10, true))

	// The first child takes its siblings and the whole tree with it.
	a.Events.Destroy.Subscribe(func(*Node) {
		c.Destroy()
		tree.Destroy()
		b.Destroy()
	})
	tree.Destroy()

	for i, n := range []*Node{tree, a, b, c} {
		if !n.Destroyed() {
			t.Errorf("node %d not destroyed", i)
		}
	}
	if s.Root().NumChildren() != 0 {
		t.Errorf("root has %d children, want 0", s.Root().NumChildren())
	}
}

func TestDestroyDuringBufferWalk(t *testing.T) {
	s := NewScene(nil)
	tree := CreateTree(s.Root())
	for range 3 {
		CreateBuffer(tree, newTestBuffer(4, 4, true))
	}
	visited := 0
	for range s.Root().Buffers() {
		visited++
		if visited == 1 {
			tree.Destroy()
		}
	}
	if visited != 1 {
		t.Errorf("visited %d nodes after destroying their tree, want 1", visited)
	}
}

func TestDestroyUnlocksBuffer(t *testing.T) {
	s := NewScene(nil)
	buf := newTestBuffer(8, 8, true)
	n := CreateBuffer(s.Root(), buf)
	if buf.Locks() != 1 {
		t.Fatalf("Locks = %d, want 1", buf.Locks())
	}
	n.Destroy()
	if buf.Locks() != 0 {
		t.Errorf("Locks after destroy = %d, want 0", buf.Locks())
	}
}

func TestNodeRef(t *testing.T) {
	s := NewScene(nil)
	n := CreateRect(s.Root(), 1, 1, ColorWhite)
	ref := n.Ref()
	if ref.Resolve() != n {
		t.Fatal("live ref should resolve")
	}
	n.Destroy()
	if ref.Resolve() != nil {
		t.Error("ref to destroyed node should resolve to nil")
	}
	if (NodeRef{}).Resolve() != nil {
		t.Error("zero ref should resolve to nil")
	}
}

func TestDestroyClosesSubscriptions(t *testing.T) {
	s := NewScene(nil)
	n := CreateBuffer(s.Root(), nil)
	sub := n.Events.FrameDone.Subscribe(func(FrameDoneEvent) {})
	n.Destroy()
	if sub.Active() {
		t.Error("subscription should be closed with its node")
	}
	sub.Close()
}

// --- Queries ---

func TestNodeAt(t *testing.T) {
	s := NewScene(nil)
	root := s.Root()
	bg := CreateRect(root, 100, 100, ColorWhite)
	CreateShadow(root, 100, 100, ColorBlack)
	win := CreateBuffer(root, newTestBuffer(20, 20, true))
	win.SetPosition(10, 10)

	hit, x, y := root.NodeAt(15.5, 12)
	if hit != win || x != 5.5 || y != 2 {
		t.Errorf("NodeAt(15.5, 12) = %v (%v, %v), want window (5.5, 2)", hit, x, y)
	}
	if hit, _, _ := root.NodeAt(50, 50); hit != bg {
		t.Errorf("NodeAt(50, 50) = %v, want background", hit)
	}
	win.SetPointAcceptsInput(func(*Node, float64, float64) bool { return false })
	if hit, _, _ := root.NodeAt(15, 15); hit != bg {
		t.Error("refusing buffer should pass the point through")
	}
	if hit, _, _ := root.NodeAt(500, 500); hit != nil {
		t.Errorf("NodeAt outside = %v, want nil", hit)
	}
}

func TestBuffersIteration(t *testing.T) {
	s := NewScene(nil)
	root := s.Root()
	tree := CreateTree(root)
	tree.SetPosition(5, 5)
	a := CreateBuffer(tree, nil)
	a.SetPosition(1, 1)
	hidden := CreateBuffer(root, nil)
	hidden.SetEnabled(false)
	b := CreateBuffer(root, nil)

	var got []*Node
	var pos []Point
	root.ForEachBuffer(func(n *Node, x, y int) {
		got = append(got, n)
		pos = append(pos, Point{x, y})
	})
	if len(got) != 2 || got[0] != a || got[1] != b {
		t.Fatalf("buffers = %v, want [a b]", got)
	}
	if pos[0] != (Point{6, 6}) {
		t.Errorf("a at %v, want (6, 6)", pos[0])
	}
}
