package plot

import "math"

// Default camera angles, in degrees.
const (
	DEFAULT_AZIMUTH   = -60.0
	DEFAULT_ELEVATION = 30.0
)

// Z_ASPECT is the height of the axis box relative to its (square) base.
const Z_ASPECT = 0.75

// Vec2 is a point in screen (svg) coordinates: y grows downward.
type Vec2 struct {
	X, Y float64
}

// camera orthographically projects the unit axis box onto the figure's plot area.
// Data coordinates are first normalized into the box centered at the origin:
// u,v in [-0.5,0.5] along x and y, w in [-Z_ASPECT/2, Z_ASPECT/2] along z.
type camera struct {
	fig          *Figure
	sinAz, cosAz float64
	sinEl, cosEl float64
	scale        float64
	cx, cy       float64
}

// Margins around the projected box, in pixels. The top margin leaves room for the title.
const (
	marginTop   = 90
	marginSides = 110
)

func newCamera(fig *Figure) *camera {
	az := fig.Azimuth * math.Pi / 180
	el := fig.Elevation * math.Pi / 180
	cam := &camera{
		fig:   fig,
		sinAz: math.Sin(az), cosAz: math.Cos(az),
		sinEl: math.Sin(el), cosEl: math.Cos(el),
		scale: 1,
	}

	// Fit the projected box into the plot area.
	xmin, ymin := math.MaxFloat64, math.MaxFloat64
	xmax, ymax := -math.MaxFloat64, -math.MaxFloat64
	for _, u := range []float64{-0.5, 0.5} {
		for _, v := range []float64{-0.5, 0.5} {
			for _, w := range []float64{-Z_ASPECT / 2, Z_ASPECT / 2} {
				sx, sy := cam.rotate(u, v, w)
				xmin, xmax = math.Min(xmin, sx), math.Max(xmax, sx)
				ymin, ymax = math.Min(ymin, sy), math.Max(ymax, sy)
			}
		}
	}
	plotW := float64(fig.Width) - 2*marginSides
	plotH := float64(fig.Height) - marginTop - marginSides
	cam.scale = math.Max(1, math.Min(plotW/(xmax-xmin), plotH/(ymax-ymin)))
	cam.cx = marginSides + plotW/2 - cam.scale*(xmin+xmax)/2
	cam.cy = marginTop + plotH/2 + cam.scale*(ymin+ymax)/2
	return cam
}

// rotate returns the screen-plane coordinates (y up) of a normalized point.
// The screen's right vector is (-sin az, cos az, 0) and its up vector is
// (-sin el cos az, -sin el sin az, cos el).
func (cam *camera) rotate(u, v, w float64) (sx, sy float64) {
	sx = -u*cam.sinAz + v*cam.cosAz
	sy = -u*cam.sinEl*cam.cosAz - v*cam.sinEl*cam.sinAz + w*cam.cosEl
	return
}

// depth is the distance toward the viewer of a point on the box floor; larger is nearer.
func (cam *camera) depth(u, v float64) float64 {
	return cam.cosEl * (u*cam.cosAz + v*cam.sinAz)
}

func span(ax Axis) float64 {
	if s := ax.Max - ax.Min; s != 0 {
		return s
	}
	return 1
}

// normalize maps data coordinates into the unit box.
func (cam *camera) normalize(p Point3) (u, v, w float64) {
	u = (p.X-cam.fig.X.Min)/span(cam.fig.X) - 0.5
	v = (p.Y-cam.fig.Y.Min)/span(cam.fig.Y) - 0.5
	w = ((p.Z-cam.fig.Z.Min)/span(cam.fig.Z) - 0.5) * Z_ASPECT
	return
}

// projectBox projects a normalized point to svg coordinates.
func (cam *camera) projectBox(u, v, w float64) Vec2 {
	sx, sy := cam.rotate(u, v, w)
	return Vec2{X: cam.cx + sx*cam.scale, Y: cam.cy - sy*cam.scale}
}

// project projects a data point to svg coordinates.
func (cam *camera) project(p Point3) Vec2 {
	return cam.projectBox(cam.normalize(p))
}
