// Package viewport computes the camera target that keeps a set of graph
// nodes visible inside the part of the screen not covered by an overlay.
package viewport

import (
	"errors"
	"math"
	"sync"
)

// Defaults used when a Config field is zero.
const (
	DefaultPadding           = 40.0
	DefaultZoomMin           = 0.2
	DefaultZoomMax           = 4.0
	DefaultSingleNodeMinZoom = 1.2
	DefaultNodeRadius        = 24.0
)

var (
	// ErrNoNodes is returned when a request has nothing to frame.
	ErrNoNodes = errors.New("no nodes to frame")
	// ErrInvalidViewport is returned for a viewport without area.
	ErrInvalidViewport = errors.New("viewport must have positive width and height")
)

// Point is a position in graph space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is a screen-space rectangle in pixels.
//
// An overlay with zero height spans the full viewport height and one with
// zero width spans the full width, which is how side and top panels are
// usually reported.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r Rect) empty() bool { return r.Width <= 0 || r.Height <= 0 }

func (r Rect) center() Point { return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2} }

func (r Rect) area() float64 { return r.Width * r.Height }

// Config holds the framing tunables.
type Config struct {
	Padding           float64
	ZoomMin           float64
	ZoomMax           float64
	SingleNodeMinZoom float64
	NodeRadius        float64
}

func (c Config) withDefaults() Config {
	if c.Padding < 0 {
		c.Padding = 0
	}
	if c.ZoomMin <= 0 {
		c.ZoomMin = DefaultZoomMin
	}
	if c.ZoomMax <= c.ZoomMin {
		c.ZoomMax = math.Max(DefaultZoomMax, c.ZoomMin)
	}
	if c.SingleNodeMinZoom <= 0 {
		c.SingleNodeMinZoom = DefaultSingleNodeMinZoom
	}
	if c.NodeRadius < 0 {
		c.NodeRadius = 0
	}
	return c
}

// DefaultConfig returns the stock framing tunables.
func DefaultConfig() Config {
	return Config{
		Padding:           DefaultPadding,
		ZoomMin:           DefaultZoomMin,
		ZoomMax:           DefaultZoomMax,
		SingleNodeMinZoom: DefaultSingleNodeMinZoom,
		NodeRadius:        DefaultNodeRadius,
	}
}

// Request describes one framing call. Overlay, when set, takes precedence
// over the static overlay stored on the Framer and carries live drag state.
// A zero NodeRadius uses the configured radius.
type Request struct {
	Positions      []Point
	ViewportWidth  float64
	ViewportHeight float64
	Overlay        *Rect
	NodeRadius     float64
}

// Camera is the target the presentation layer should animate to. A graph
// point p is drawn at (p - Center) * Zoom + viewport center.
type Camera struct {
	Center Point   `json:"center"`
	Zoom   float64 `json:"zoom"`
	// Free is the unoccluded screen region the nodes were fitted into.
	Free Rect `json:"free"`
}

// Framer computes camera targets. It is safe for concurrent use.
type Framer struct {
	cfg Config

	mu      sync.RWMutex
	overlay *Rect
}

// NewFramer creates a Framer.
func NewFramer(cfg Config) *Framer {
	return &Framer{cfg: cfg.withDefaults()}
}

// SetOverlay stores the static overlay rectangle used by requests that do
// not carry their own. A nil rect clears it.
func (f *Framer) SetOverlay(r *Rect) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r == nil {
		f.overlay = nil
		return
	}
	cp := *r
	f.overlay = &cp
}

// Overlay returns the stored static overlay, if any.
func (f *Framer) Overlay() (Rect, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.overlay == nil {
		return Rect{}, false
	}
	return *f.overlay, true
}

// Frame computes the camera for req.
func (f *Framer) Frame(req Request) (Camera, error) {
	if len(req.Positions) == 0 {
		return Camera{}, ErrNoNodes
	}
	if req.ViewportWidth <= 0 || req.ViewportHeight <= 0 {
		return Camera{}, ErrInvalidViewport
	}

	overlay := req.Overlay
	if overlay == nil {
		if r, ok := f.Overlay(); ok {
			overlay = &r
		}
	}

	view := Rect{Width: req.ViewportWidth, Height: req.ViewportHeight}
	free := freeRegion(view, overlay)

	radius := req.NodeRadius
	if radius <= 0 {
		radius = f.cfg.NodeRadius
	}
	box := bounds(req.Positions, radius)

	availW := math.Max(free.Width-2*f.cfg.Padding, 1)
	availH := math.Max(free.Height-2*f.cfg.Padding, 1)

	zoom := f.cfg.ZoomMax
	if box.Width > 0 && box.Height > 0 {
		zoom = math.Min(availW/box.Width, availH/box.Height)
	}
	zoom = clamp(zoom, f.cfg.ZoomMin, f.cfg.ZoomMax)
	if len(req.Positions) == 1 && zoom < f.cfg.SingleNodeMinZoom {
		zoom = f.cfg.SingleNodeMinZoom
	}

	// Shift the camera so the box center lands in the free region's center.
	bc, fc, vc := box.center(), free.center(), view.center()
	return Camera{
		Center: Point{
			X: bc.X - (fc.X-vc.X)/zoom,
			Y: bc.Y - (fc.Y-vc.Y)/zoom,
		},
		Zoom: zoom,
		Free: free,
	}, nil
}

// ToScreen projects a graph point through cam for a viewport of the given size.
func ToScreen(cam Camera, p Point, viewportWidth, viewportHeight float64) Point {
	return Point{
		X: (p.X-cam.Center.X)*cam.Zoom + viewportWidth/2,
		Y: (p.Y-cam.Center.Y)*cam.Zoom + viewportHeight/2,
	}
}

// freeRegion returns the largest band of view left uncovered by overlay.
func freeRegion(view Rect, overlay *Rect) Rect {
	if overlay == nil {
		return view
	}
	o := *overlay
	if o.Width <= 0 && o.Height <= 0 {
		return view
	}
	if o.Height <= 0 {
		o.Y, o.Height = 0, view.Height
	}
	if o.Width <= 0 {
		o.X, o.Width = 0, view.Width
	}

	o = intersect(view, o)
	if o.empty() {
		return view
	}

	bands := []Rect{
		{X: 0, Y: 0, Width: o.X, Height: view.Height},
		{X: o.X + o.Width, Y: 0, Width: view.Width - o.X - o.Width, Height: view.Height},
		{X: 0, Y: 0, Width: view.Width, Height: o.Y},
		{X: 0, Y: o.Y + o.Height, Width: view.Width, Height: view.Height - o.Y - o.Height},
	}

	best := Rect{}
	for _, b := range bands {
		if b.area() > best.area() {
			best = b
		}
	}
	if best.empty() {
		// Fully covered; fall back to the whole viewport.
		return view
	}
	return best
}

func intersect(a, b Rect) Rect {
	x0, y0 := math.Max(a.X, b.X), math.Max(a.Y, b.Y)
	x1 := math.Min(a.X+a.Width, b.X+b.Width)
	y1 := math.Min(a.Y+a.Height, b.Y+b.Height)
	if x1 <= x0 || y1 <= y0 {
		return Rect{}
	}
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

func bounds(points []Point, radius float64) Rect {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range points {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	return Rect{
		X:      minX - radius,
		Y:      minY - radius,
		Width:  maxX - minX + 2*radius,
		Height: maxY - minY + 2*radius,
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
