package cli

import (
	"testing"
)

func TestSanitizeLabel(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"desktop", "desktop"},
		{"  my scene  ", "my_scene"},
		{"a/b:c", "a_b_c"},
		{"v1.2-rc", "v1.2-rc"},
		{"", "unlabeled"},
		{"   ", "unlabeled"},
	}
	for _, tt := range tests {
		if got := sanitizeLabel(tt.in); got != tt.want {
			t.Errorf("sanitizeLabel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDefaultOutputPath(t *testing.T) {
	tests := []struct {
		path, ext, want string
	}{
		{"scenes/desktop.toml", ".png", "desktop.png"},
		{"/tmp/my scene.toml", ".svg", "my_scene.svg"},
		{"noext", ".dot", "noext.dot"},
	}
	for _, tt := range tests {
		if got := defaultOutputPath(tt.path, tt.ext); got != tt.want {
			t.Errorf("defaultOutputPath(%q, %q) = %q, want %q", tt.path, tt.ext, got, tt.want)
		}
	}
}

func TestLoadStage(t *testing.T) {
	path := writeScene(t, sampleScene)
	st, err := loadStage(path, true)
	if err != nil {
		t.Fatalf("loadStage: %v", err)
	}
	defer st.close()

	if !st.scene.Options().Debug {
		t.Error("debug should reach the scene options")
	}
	if w, h := st.display.Resolution(); w != 8 || h != 4 {
		t.Errorf("display %dx%d, want 8x4", w, h)
	}
	for i := range 3 {
		if err := st.commit(); err != nil {
			t.Fatalf("commit %d: %v", i, err)
		}
	}
	if st.frames != 3 {
		t.Errorf("frames = %d", st.frames)
	}
	// Nothing changed after the first frame.
	if !st.output.LastFrame().Skipped {
		t.Error("an unchanged scene should skip repainting")
	}

	if _, err := loadStage(writeScene(t, "[output]\nwidth = 0\n"), false); err == nil {
		t.Error("invalid scene should fail to load")
	}
}
