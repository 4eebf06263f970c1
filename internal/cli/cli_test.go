package cli

import (
	"bytes"
	"errors"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/phanxgames/fxscene"
	"github.com/phanxgames/fxscene/softrender"
)

const sampleScene = `
[output]
name = "TEST-1"
width = 8
height = 4
transform = "90"

[[node]]
type = "rect"
name = "background"
width = 8
height = 8
color = "#ff0000"

[[node]]
type = "tree"
name = "hidden"
enabled = false

[[node.children]]
type = "rect"
name = "button"
width = 2
height = 2
color = "#00ff00"
`

func writeScene(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scene.toml")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, logs bytes.Buffer
	root := New(&logs, LogInfo).RootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRootCommandRestoresLogger(t *testing.T) {
	if _, err := execute(t, "check", writeScene(t, sampleScene)); err != nil {
		t.Fatal(err)
	}
	if fxscene.Logger().Enabled(t.Context(), slog.LevelDebug) {
		t.Error("the scene logger should be reset after the command")
	}
}

func TestRenderCommand(t *testing.T) {
	scene := writeScene(t, sampleScene)
	dir := t.TempDir()

	for _, tt := range []struct {
		name          string
		raw           bool
		width, height int
	}{
		{"oriented", false, 4, 8},
		{"raw", true, 8, 4},
	} {
		t.Run(tt.name, func(t *testing.T) {
			out := filepath.Join(dir, tt.name+".png")
			args := []string{"render", scene, "-o", out, "-n", "2"}
			if tt.raw {
				args = append(args, "--raw")
			}
			stdout, err := execute(t, args...)
			if err != nil {
				t.Fatalf("render: %v", err)
			}
			if !strings.Contains(stdout, out) {
				t.Errorf("output should name the file:\n%s", stdout)
			}

			f, err := os.Open(out)
			if err != nil {
				t.Fatal(err)
			}
			defer f.Close()
			img, err := png.Decode(f)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if b := img.Bounds(); b.Dx() != tt.width || b.Dy() != tt.height {
				t.Errorf("image %dx%d, want %dx%d", b.Dx(), b.Dy(), tt.width, tt.height)
			}
			r, g, _, a := img.At(1, 1).RGBA()
			if r != 0xffff || g != 0 || a != 0xffff {
				t.Errorf("pixel = %v, want opaque red", img.At(1, 1))
			}
		})
	}
}

func TestRenderCommandRejectsFrames(t *testing.T) {
	if _, err := execute(t, "render", writeScene(t, sampleScene), "-n", "0"); err == nil {
		t.Error("--frames 0 should be rejected")
	}
}

func TestInspectCommand(t *testing.T) {
	stdout, err := execute(t, "inspect", writeScene(t, sampleScene))
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	for _, want := range []string{"TEST-1", "8x4", "background", "8x8", "visible 32px", "opaque 64px", "button", "disabled", "Frame 1"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("report does not mention %q:\n%s", want, stdout)
		}
	}
}

func TestGraphCommandDOT(t *testing.T) {
	stdout, err := execute(t, "graph", writeScene(t, sampleScene), "--format", "dot")
	if err != nil {
		t.Fatalf("graph: %v", err)
	}
	if !strings.HasPrefix(stdout, "digraph scene {") {
		t.Errorf("not a DOT graph:\n%s", stdout)
	}
	for _, want := range []string{"rect background", "tree hidden", "dashed", "->"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("graph does not contain %q:\n%s", want, stdout)
		}
	}
}

func TestGraphCommandFormat(t *testing.T) {
	if _, err := execute(t, "graph", writeScene(t, sampleScene), "--format", "png"); err == nil {
		t.Error("unknown format should be rejected")
	}
}

func TestToDOT(t *testing.T) {
	s := fxscene.NewScene(nil)
	defer s.Destroy()
	tree := fxscene.CreateTree(s.Root())
	tree.Name = "apps"
	r := fxscene.CreateRect(tree, 10, 20, fxscene.ColorBlack)
	r.SetPosition(3, 4)

	dot := toDOT(s.Root())
	if got := strings.Count(dot, "->"); got != 2 {
		t.Errorf("%d edges, want 2:\n%s", got, dot)
	}
	if !strings.Contains(dot, `10x20 @3,4`) {
		t.Errorf("rect label missing size and position:\n%s", dot)
	}
	if !strings.Contains(dot, "tree apps") {
		t.Errorf("tree label missing name:\n%s", dot)
	}
}

func TestCheckCommand(t *testing.T) {
	good := writeScene(t, sampleScene)
	bad := writeScene(t, "[output]\nwidth = 0\nheight = 4\n\n[[node]]\ntype = \"sprite\"\n")

	stdout, err := execute(t, "check", good)
	if err != nil {
		t.Fatalf("check good: %v", err)
	}
	if !strings.Contains(stdout, "3 nodes") {
		t.Errorf("check output:\n%s", stdout)
	}

	stdout, err = execute(t, "check", good, bad)
	if !errors.Is(err, errInvalid) {
		t.Fatalf("err = %v, want errInvalid", err)
	}
	if !strings.Contains(err.Error(), "1 of 2") {
		t.Errorf("err = %v", err)
	}
	for _, want := range []string{"output", "node[0].type"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("check output does not mention %q:\n%s", want, stdout)
		}
	}
}

func TestDescribeNode(t *testing.T) {
	s := fxscene.NewScene(nil)
	defer s.Destroy()
	r := fxscene.CreateRect(s.Root(), 4, 2, fxscene.ColorBlack)
	r.Name = "box"
	r.SetPosition(1, 2)
	r.SetEnabled(false)

	got := describeNode(nil, r)
	for _, want := range []string{"rect", "box", "4x2", "@1,2", "disabled"} {
		if !strings.Contains(got, want) {
			t.Errorf("describeNode = %q, missing %q", got, want)
		}
	}
}

func TestDescribeNodeClipsToOutput(t *testing.T) {
	s := fxscene.NewScene(nil)
	defer s.Destroy()
	o, err := fxscene.NewOutput(s, softrender.NewDisplay(softrender.DisplayConfig{Width: 4, Height: 4}), softrender.New())
	if err != nil {
		t.Fatal(err)
	}
	r := fxscene.CreateRect(s.Root(), 8, 8, fxscene.ColorBlack)

	if got := describeNode(nil, r); !strings.Contains(got, "visible 64px") {
		t.Errorf("scene-wide describeNode = %q, want visible 64px", got)
	}
	if got := describeNode(o, r); !strings.Contains(got, "visible 16px") {
		t.Errorf("describeNode on 4x4 output = %q, want visible 16px", got)
	}
}

func TestSplitErrors(t *testing.T) {
	a, b, c := errors.New("a"), errors.New("b"), errors.New("c")
	got := splitErrors(errors.Join(a, errors.Join(b, c)))
	if strings.Join(got, ",") != "a,b,c" {
		t.Errorf("splitErrors = %v", got)
	}
}
