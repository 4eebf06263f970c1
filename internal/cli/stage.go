package cli

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/phanxgames/fxscene"
	"github.com/phanxgames/fxscene/internal/scenefile"
	"github.com/phanxgames/fxscene/softrender"
)

// frameInterval spaces the frame times of consecutive commits.
const frameInterval = 16 * time.Millisecond

// stage is a scene file built on a headless display.
type stage struct {
	file     *scenefile.File
	scene    *fxscene.Scene
	display  *softrender.Display
	renderer *softrender.Renderer
	output   *fxscene.Output
	built    *scenefile.Built
	start    time.Time
	frames   int
}

// loadStage reads path and builds its scene on a software display. debug
// turns on the scene's per-frame diagnostics.
func loadStage(path string, debug bool) (*stage, error) {
	f, err := scenefile.Load(path)
	if err != nil {
		return nil, err
	}
	opts := f.SceneOptions()
	opts.Debug = debug
	s := fxscene.NewScene(&opts)

	o := f.Output
	d := softrender.NewDisplay(softrender.DisplayConfig{
		Name:      o.Name,
		Width:     o.Width,
		Height:    o.Height,
		Scale:     o.Scale,
		Transform: o.OutputTransform(),
		Refresh:   o.RefreshMHz(),
	})
	r := softrender.New()
	out, err := fxscene.NewOutput(s, d, r)
	if err != nil {
		s.Destroy()
		return nil, err
	}
	out.SetPosition(o.X, o.Y)

	built, err := f.Build(s.Root(), softrender.ReadImage)
	if err != nil {
		s.Destroy()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &stage{
		file:     f,
		scene:    s,
		display:  d,
		renderer: r,
		output:   out,
		built:    built,
		start:    time.Now(),
	}, nil
}

// commit composes one frame and acknowledges its presentation.
func (st *stage) commit() error {
	now := st.start.Add(time.Duration(st.frames) * frameInterval)
	st.frames++
	if err := st.output.Commit(&fxscene.CommitOptions{Now: now}); err != nil {
		return err
	}
	st.output.HandlePresent(fxscene.PresentEvent{When: now, Presented: true, Seq: uint64(st.frames)})
	return nil
}

func (st *stage) close() {
	st.scene.Destroy()
}

// sanitizeLabel converts a label to a filesystem-safe string. Only
// alphanumeric characters, hyphens and dots are kept; everything else
// becomes an underscore.
func sanitizeLabel(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return "unlabeled"
	}
	var b strings.Builder
	b.Grow(len(label))
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// defaultOutputPath derives an output file name from the scene file name.
func defaultOutputPath(scenePath, ext string) string {
	base := strings.TrimSuffix(filepath.Base(scenePath), filepath.Ext(scenePath))
	return sanitizeLabel(base) + ext
}
