package softrender

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"

	"github.com/phanxgames/fxscene"
)

// Straight converts a premultiplied image, like the ones passes paint into,
// to straight alpha.
func Straight(src *image.RGBA) *image.NRGBA {
	b := src.Rect
	img := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := range b.Dy() {
		si := src.PixOffset(b.Min.X, b.Min.Y+y)
		di := img.PixOffset(0, y)
		for x := 0; x < b.Dx()*4; x += 4 {
			r, g, bl, a := src.Pix[si+x], src.Pix[si+x+1], src.Pix[si+x+2], src.Pix[si+x+3]
			if a > 0 && a < 255 {
				r = uint8(min(int(r)*255/int(a), 255))
				g = uint8(min(int(g)*255/int(a), 255))
				bl = uint8(min(int(bl)*255/int(a), 255))
			}
			img.Pix[di+x] = r
			img.Pix[di+x+1] = g
			img.Pix[di+x+2] = bl
			img.Pix[di+x+3] = a
		}
	}
	return img
}

// Oriented returns src with t applied. Passing the display transform turns
// a front image into the frame a viewer of the rotated display sees.
func Oriented(src *image.RGBA, t fxscene.Transform) *image.RGBA {
	if src.Rect.Min != (image.Point{}) {
		src = rebase(src)
	}
	return orient(src, t)
}

// EncodePNG writes img as a PNG with straight alpha.
func EncodePNG(w io.Writer, img *image.RGBA) error {
	return png.Encode(w, Straight(img))
}

// WritePNG encodes img to a PNG file at path.
func WritePNG(path string, img *image.RGBA) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := EncodePNG(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// ReadImage decodes an image file into a buffer handle.
func ReadImage(path string) (*fxscene.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return BufferFromImage(img), nil
}
