// Package fxscene is a retained-mode scene graph for Wayland-style
// compositors, with blur, drop shadows and rounded corners built in.
//
// A compositor describes what is on screen as a tree of nodes and tells the
// scene what changed. Once per output refresh it calls [Output.Commit]; the
// scene works out what is visible, what must be repainted and hands a short
// list of paint operations to a [Renderer].
//
// # Quick start
//
//	scene := fxscene.NewScene(nil)
//	out, err := fxscene.NewOutput(scene, display, renderer)
//	if err != nil {
//		return err
//	}
//
//	bg := fxscene.CreateRect(scene.Root(), 1920, 1080, fxscene.ColorBlack)
//	win := fxscene.CreateBuffer(scene.Root(), clientBuffer)
//	win.SetPosition(100, 100)
//
//	// on every frame event from the display
//	if err := out.Commit(nil); err != nil { ... }
//
// # Scene graph
//
// Every element is a [Node] of one of five types: trees group and position
// their children, rects and shadows are solid shapes, buffer nodes show
// client content and optimized blur nodes cache a blurred background for
// the nodes above them. Children paint in slice order, last on top.
//
// Nodes are created with [CreateTree], [CreateRect], [CreateShadow],
// [CreateBuffer] and [CreateOptimizedBlur], and live until [Node.Destroy].
// Setters only do work when a value actually changes.
//
// # Visibility and damage
//
// Every node keeps the part of its footprint that is not hidden by opaque
// nodes above it. Changes damage exactly the old and new visible area on
// every output it touches; each [Output] keeps a [DamageRing] so a frame only
// repaints what changed since the target buffer was last used.
//
// # Effects
//
// Backdrop blur is configured scene-wide with [BlurParams]. A translucent
// rect or buffer with backdrop blur enabled blurs what is painted below it.
// [EffectsConfig] loads these settings, plus shadow and corner radius
// policy used by [Decoration], from TOML.
//
// # Renderers
//
// The softrender package is a CPU reference renderer, used by the fxscene
// command and the tests. The ebitenrender package renders with
// [Ebitengine].
//
// Everything is single-threaded: call the scene from one goroutine.
//
// [Ebitengine]: https://ebitengine.org
package fxscene
