package nodes

import (
	"context"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"

	"github.com/aretw0/framegraph/pkg/domain"
	"github.com/aretw0/framegraph/pkg/graph"
)

// Overlay port names.
const (
	PortFace  = "face"
	PortHand  = "hand"
	PortImage = "image"
)

var (
	faceColor = color.RGBA{R: 0x4d, G: 0xd0, B: 0xe1, A: 0xff}
	handColor = color.RGBA{R: 0xff, G: 0xb3, B: 0x00, A: 0xff}
)

// handConnections is the 21-point hand skeleton: wrist, thumb, four fingers, palm.
var handConnections = [][2]int{
	{0, 1}, {1, 2}, {2, 3}, {3, 4},
	{0, 5}, {5, 6}, {6, 7}, {7, 8},
	{5, 9}, {9, 10}, {10, 11}, {11, 12},
	{9, 13}, {13, 14}, {14, 15}, {15, 16},
	{13, 17}, {0, 17}, {17, 18}, {18, 19}, {19, 20},
}

// OverlayConfig is the configuration bag of the overlay variant.
type OverlayConfig struct {
	ShowFace bool `mapstructure:"show_face"`
	ShowHand bool `mapstructure:"show_hand"`
	// Mirror flips the frame horizontally, as a selfie view.
	Mirror bool `mapstructure:"mirror"`
	Radius int  `mapstructure:"radius"`
}

func DefaultOverlayConfig() OverlayConfig {
	return OverlayConfig{ShowFace: true, ShowHand: true, Radius: 2}
}

// Overlay draws landmark markers over a copy of the frame. The input frame
// is never written; drawing happens in a scratch buffer the node owns.
type Overlay struct {
	cfg OverlayConfig
	buf scratch
}

func NewOverlay(cfg OverlayConfig) *Overlay {
	if cfg.Radius < 0 {
		cfg.Radius = 0
	}
	return &Overlay{cfg: cfg}
}

func (o *Overlay) Variant() domain.Variant { return domain.VariantOverlay }

func (o *Overlay) Ports() []domain.PortSpec {
	return []domain.PortSpec{
		domain.In(PortFrame, domain.KindImage),
		domain.In(PortFace, domain.KindLandmarks),
		domain.In(PortHand, domain.KindLandmarks),
		domain.Out(PortImage, domain.KindImage),
	}
}

func (o *Overlay) Config() map[string]any { return encodeConfig(o.cfg) }

// Reallocations counts how many times the scratch buffer was (re)sized.
func (o *Overlay) Reallocations() int { return o.buf.Reallocations() }

func (o *Overlay) Execute(_ context.Context, io *graph.IO) error {
	frame := io.Image(PortFrame)
	if frame == nil {
		return io.Set(PortImage, nil)
	}

	dst := o.buf.fit(frame.Bounds())
	if o.cfg.Mirror {
		mirrorCopy(dst, frame)
	} else {
		draw.Copy(dst, dst.Rect.Min, frame, frame.Bounds(), draw.Src, nil)
	}

	if o.cfg.ShowFace {
		for _, set := range io.Landmarks(PortFace) {
			o.dots(dst, set, faceColor)
		}
	}
	if o.cfg.ShowHand {
		for _, set := range io.Landmarks(PortHand) {
			o.skeleton(dst, set, handColor)
			o.dots(dst, set, handColor)
		}
	}
	return io.Set(PortImage, dst)
}

// maxReach bounds how far outside [0,1] a landmark may sit and still be drawn.
// Detectors report slightly out-of-frame points; anything beyond this is noise.
const maxReach = 2

// project maps a normalized landmark to pixel space. ok is false for
// coordinates that are not finite or lie far outside the frame, which keeps
// every rasterized segment within a few frame widths.
func (o *Overlay) project(dst *image.RGBA, l domain.Landmark) (p image.Point, ok bool) {
	if !drawable(l.X) || !drawable(l.Y) {
		return image.Point{}, false
	}
	x := l.X
	if o.cfg.Mirror {
		x = 1 - x
	}
	r := dst.Rect
	return image.Pt(r.Min.X+int(x*float64(r.Dx())), r.Min.Y+int(l.Y*float64(r.Dy()))), true
}

func drawable(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && math.Abs(v) <= maxReach
}

func (o *Overlay) dots(dst *image.RGBA, set domain.LandmarkSet, c color.RGBA) {
	rad := o.cfg.Radius
	for _, l := range set {
		p, ok := o.project(dst, l)
		if !ok {
			continue
		}
		for dy := -rad; dy <= rad; dy++ {
			for dx := -rad; dx <= rad; dx++ {
				if dx*dx+dy*dy <= rad*rad {
					setPixel(dst, p.X+dx, p.Y+dy, c)
				}
			}
		}
	}
}

func (o *Overlay) skeleton(dst *image.RGBA, set domain.LandmarkSet, c color.RGBA) {
	for _, conn := range handConnections {
		if conn[0] >= len(set) || conn[1] >= len(set) {
			continue
		}
		a, okA := o.project(dst, set[conn[0]])
		b, okB := o.project(dst, set[conn[1]])
		if okA && okB {
			line(dst, a, b, c)
		}
	}
}

// line draws a 1px segment with Bresenham's algorithm.
func line(dst *image.RGBA, a, b image.Point, c color.RGBA) {
	dx, dy := abs(b.X-a.X), -abs(b.Y-a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	e := dx + dy
	for {
		setPixel(dst, a.X, a.Y, c)
		if a == b {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			a.X += sx
		}
		if e2 <= dx {
			e += dx
			a.Y += sy
		}
	}
}

func setPixel(dst *image.RGBA, x, y int, c color.RGBA) {
	if !image.Pt(x, y).In(dst.Rect) {
		return
	}
	i := dst.PixOffset(x, y)
	dst.Pix[i], dst.Pix[i+1], dst.Pix[i+2], dst.Pix[i+3] = c.R, c.G, c.B, c.A
}

func mirrorCopy(dst, src *image.RGBA) {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	for y := 0; y < h; y++ {
		so := src.PixOffset(src.Rect.Min.X, src.Rect.Min.Y+y)
		do := dst.PixOffset(dst.Rect.Min.X, dst.Rect.Min.Y+y)
		for x := 0; x < w; x++ {
			copy(dst.Pix[do+4*x:do+4*x+4], src.Pix[so+4*(w-1-x):so+4*(w-1-x)+4])
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
