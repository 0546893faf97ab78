package canvas

import (
	"image"
	"image/png"
	"io"
	"sync"

	"github.com/milweb-dev/milweb/pkg/protocol"
)

// unsupportedPixel is painted for every pixel of a format that cannot be
// drawn.
var unsupportedPixel = [4]byte{255, 0, 0, 255}

// Surface is an RGBA backing store for display frames.
// It is safe for concurrent use.
type Surface struct {
	mu      sync.Mutex
	img     *image.RGBA
	originX float64
	originY float64
	focused bool
	frames  uint64
}

// NewSurface creates a surface of the given size.
func NewSurface(width, height int) *Surface {
	return &Surface{img: image.NewRGBA(image.Rect(0, 0, width, height))}
}

// Resize changes the surface size. The content is cleared when the size
// changes.
func (s *Surface) Resize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.img.Bounds()
	if b.Dx() == width && b.Dy() == height {
		return
	}
	s.img = image.NewRGBA(image.Rect(0, 0, width, height))
}

// Size returns the surface width and height.
func (s *Surface) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.img.Bounds()
	return b.Dx(), b.Dy()
}

// Draw replaces the RGBA backing store with a frame payload of the given
// pixel format. Pixels past a short payload are cleared; longer payloads
// are truncated. Alpha is always opaque.
func (s *Surface) Draw(data []byte, format protocol.PixelFormat) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dst := s.img.Pix
	clear(dst)
	switch format {
	case protocol.FormatRGB32:
		for i := 0; i+3 < len(data) && i+3 < len(dst); i += 4 {
			dst[i] = data[i]
			dst[i+1] = data[i+1]
			dst[i+2] = data[i+2]
			dst[i+3] = 255
		}
	case protocol.FormatBGR32:
		for i := 0; i+3 < len(data) && i+3 < len(dst); i += 4 {
			dst[i] = data[i+2]
			dst[i+1] = data[i+1]
			dst[i+2] = data[i]
			dst[i+3] = 255
		}
	case protocol.FormatRGB24:
		for i, j := 0, 0; i+3 < len(dst) && j+2 < len(data); i, j = i+4, j+3 {
			dst[i] = data[j]
			dst[i+1] = data[j+1]
			dst[i+2] = data[j+2]
			dst[i+3] = 255
		}
	case protocol.FormatMono8:
		for i, v := range data {
			o := i * 4
			if o+3 >= len(dst) {
				break
			}
			dst[o], dst[o+1], dst[o+2], dst[o+3] = v, v, v, 255
		}
	default:
		for i := 0; i+3 < len(dst); i += 4 {
			copy(dst[i:i+4], unsupportedPixel[:])
		}
	}
	s.frames++
}

// Pix returns a copy of the RGBA bytes.
func (s *Surface) Pix() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]byte, len(s.img.Pix))
	copy(out, s.img.Pix)
	return out
}

// Image returns a snapshot of the surface.
func (s *Surface) Image() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	img := image.NewRGBA(s.img.Rect)
	copy(img.Pix, s.img.Pix)
	return img
}

// EncodePNG writes the current content as a PNG image.
func (s *Surface) EncodePNG(w io.Writer) error {
	return png.Encode(w, s.Image())
}

// Frames returns the number of frames drawn.
func (s *Surface) Frames() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// SetOrigin sets the client position of the surface's top-left corner.
func (s *Surface) SetOrigin(x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.originX, s.originY = x, y
}

func (s *Surface) origin() (float64, float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.originX, s.originY
}

// Focus gives keyboard focus to the surface.
func (s *Surface) Focus() {
	s.mu.Lock()
	s.focused = true
	s.mu.Unlock()
}

// Blur removes keyboard focus.
func (s *Surface) Blur() {
	s.mu.Lock()
	s.focused = false
	s.mu.Unlock()
}

// Focused reports whether the surface has keyboard focus.
func (s *Surface) Focused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.focused
}
