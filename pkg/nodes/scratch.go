package nodes

import "image"

// scratch is a node-owned image buffer sized to the last frame it was asked
// to match. Pixel storage is replaced only when dimensions change.
type scratch struct {
	img      *image.RGBA
	reallocs int
}

// fit returns a buffer with the given bounds, reusing the current one when
// its dimensions already match.
func (s *scratch) fit(r image.Rectangle) *image.RGBA {
	if s.img != nil && s.img.Rect.Dx() == r.Dx() && s.img.Rect.Dy() == r.Dy() {
		s.img.Rect = r
		return s.img
	}

	n := 4 * r.Dx() * r.Dy()
	var pix []uint8
	if s.img != nil && cap(s.img.Pix) >= n {
		pix = s.img.Pix[:n]
	} else {
		pix = make([]uint8, n)
	}
	s.img = &image.RGBA{Pix: pix, Stride: 4 * r.Dx(), Rect: r}
	s.reallocs++
	return s.img
}

func (s *scratch) Reallocations() int { return s.reallocs }
