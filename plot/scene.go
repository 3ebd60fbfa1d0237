package plot

import (
	"fmt"
	"math"
	"sort"

	"stateplot/blackjack"
)

// Scene is a figure projected into 2D. Every figure yields the same set of element ids
// regardless of mode, so a view built for one figure can be updated in place to show another:
// mode only changes visibility and styling.
type Scene struct {
	Width, Height int
	Background    string
	Title         Label
	Edges         []Segment
	Ticks         []Label
	AxisLabels    []Label
	// Markers are the scatter points, in painter's order.
	Markers []Marker
	// Quads are the mesh cells, in painter's order.
	Quads []Quad
}

// Segment is a line between two screen points.
type Segment struct {
	From, To Vec2
	Stroke   string
}

// Text anchors, as in svg.
const (
	ANCHOR_START  = "start"
	ANCHOR_MIDDLE = "middle"
	ANCHOR_END    = "end"
)

// Label is positioned text.
type Label struct {
	Id     string
	Pos    Vec2
	Text   string
	Anchor string
	Size   int
}

// Marker is a filled triangle at a scatter point.
type Marker struct {
	Id      string
	Points  [3]Vec2
	Fill    string
	Visible bool
	Depth   float64
}

// Quad is the polygon spanning mesh cells (d,p) to (d+1,p+1).
type Quad struct {
	Id          string
	Points      [4]Vec2
	Fill        string
	FillOpacity float64
	Stroke      string
	StrokeWidth float64
	Visible     bool
	Depth       float64
}

const (
	edgeColor   = "#b0b0b0"
	markerSize  = 7.0
	tickSize    = 14
	labelSize   = 16
	titleSize   = 22
	tickOffset  = 0.08
	labelOffset = 0.2
)

// MarkerId returns the scene id of the scatter marker for (d,p).
func MarkerId(d, p int) string {
	return fmt.Sprintf("d%d-p%d-marker", d, p)
}

// QuadId returns the scene id of the mesh quad whose lower corner is (d,p).
func QuadId(d, p int) string {
	return fmt.Sprintf("d%d-p%d-quad", d, p)
}

// zAt returns the figure's value at grid cell (d,p), from whichever representation the mode built.
func (fig *Figure) zAt(d, p int) float64 {
	if fig.Mesh != nil {
		return fig.Mesh.ZS[p][d]
	}
	return fig.Points[d*blackjack.NUM_PLAYER_SUMS+p].Z
}

// zExtent returns the min and max of the figure's data.
func (fig *Figure) zExtent() (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for d := 0; d < blackjack.NUM_DEALER_CARDS; d++ {
		for p := 0; p < blackjack.NUM_PLAYER_SUMS; p++ {
			lo = math.Min(lo, fig.zAt(d, p))
			hi = math.Max(hi, fig.zAt(d, p))
		}
	}
	return
}

func sign(f float64) float64 {
	if f < 0 {
		return -1
	}
	return 1
}

// NewScene projects the figure's box, labels and data.
func NewScene(fig *Figure) *Scene {
	cam := newCamera(fig)
	scene := &Scene{
		Width:      fig.Width,
		Height:     fig.Height,
		Background: "white",
		Title: Label{
			Id:     "title",
			Pos:    Vec2{X: float64(fig.Width) / 2, Y: marginTop / 2},
			Text:   fig.Title,
			Anchor: ANCHOR_MIDDLE,
			Size:   titleSize,
		},
	}
	scene.addBox(cam)
	scene.addLabels(cam, fig)
	scene.addMarkers(cam, fig)
	scene.addQuads(cam, fig)
	return scene
}

func (scene *Scene) addBox(cam *camera) {
	const h = Z_ASPECT / 2
	corners := [][3]float64{
		{-0.5, -0.5, -h}, {0.5, -0.5, -h}, {0.5, 0.5, -h}, {-0.5, 0.5, -h},
		{-0.5, -0.5, h}, {0.5, -0.5, h}, {0.5, 0.5, h}, {-0.5, 0.5, h},
	}
	edges := [][2]int{
		{0, 1}, {1, 2}, {2, 3}, {3, 0}, // floor
		{4, 5}, {5, 6}, {6, 7}, {7, 4}, // ceiling
		{0, 4}, {1, 5}, {2, 6}, {3, 7}, // verticals
	}
	for _, e := range edges {
		a, b := corners[e[0]], corners[e[1]]
		scene.Edges = append(scene.Edges, Segment{
			From:   cam.projectBox(a[0], a[1], a[2]),
			To:     cam.projectBox(b[0], b[1], b[2]),
			Stroke: edgeColor,
		})
	}
}

// addLabels places the x ticks along the floor edge nearest the viewer in y, the y ticks along
// the floor edge nearest the viewer in x, and the z ticks on the leftmost vertical edge.
func (scene *Scene) addLabels(cam *camera, fig *Figure) {
	const floor = -Z_ASPECT / 2
	xEdge := 0.5 * sign(cam.sinAz)
	yEdge := 0.5 * sign(cam.cosAz)

	for i, tick := range fig.X.Ticks {
		u, _, _ := cam.normalize(Point3{X: tick.Value, Y: fig.Y.Min, Z: fig.Z.Min})
		scene.Ticks = append(scene.Ticks, Label{
			Id:     fmt.Sprintf("x-tick-%d", i),
			Pos:    cam.projectBox(u, xEdge+sign(xEdge)*tickOffset, floor),
			Text:   tick.Label,
			Anchor: ANCHOR_MIDDLE,
			Size:   tickSize,
		})
	}
	for i, tick := range fig.Y.Ticks {
		_, v, _ := cam.normalize(Point3{X: fig.X.Min, Y: tick.Value, Z: fig.Z.Min})
		scene.Ticks = append(scene.Ticks, Label{
			Id:     fmt.Sprintf("y-tick-%d", i),
			Pos:    cam.projectBox(yEdge+sign(yEdge)*tickOffset, v, floor),
			Text:   tick.Label,
			Anchor: ANCHOR_MIDDLE,
			Size:   tickSize,
		})
	}

	// Leftmost vertical edge on screen.
	zu, zv := -0.5, -0.5
	leftmost := math.MaxFloat64
	for _, u := range []float64{-0.5, 0.5} {
		for _, v := range []float64{-0.5, 0.5} {
			if x := cam.projectBox(u, v, 0).X; x < leftmost {
				leftmost, zu, zv = x, u, v
			}
		}
	}
	for i, tick := range fig.Z.Ticks {
		_, _, w := cam.normalize(Point3{X: fig.X.Min, Y: fig.Y.Min, Z: tick.Value})
		pos := cam.projectBox(zu, zv, w)
		pos.X -= 12
		scene.Ticks = append(scene.Ticks, Label{
			Id:     fmt.Sprintf("z-tick-%d", i),
			Pos:    pos,
			Text:   tick.Label,
			Anchor: ANCHOR_END,
			Size:   tickSize,
		})
	}

	zLabelPos := cam.projectBox(zu, zv, 0)
	zLabelPos.X -= 60
	scene.AxisLabels = []Label{
		{
			Id:     "x-label",
			Pos:    cam.projectBox(0, xEdge+sign(xEdge)*labelOffset, floor),
			Text:   fig.X.Label,
			Anchor: ANCHOR_MIDDLE,
			Size:   labelSize,
		},
		{
			Id:     "y-label",
			Pos:    cam.projectBox(yEdge+sign(yEdge)*labelOffset, 0, floor),
			Text:   fig.Y.Label,
			Anchor: ANCHOR_MIDDLE,
			Size:   labelSize,
		},
		{
			Id:     "z-label",
			Pos:    zLabelPos,
			Text:   fig.Z.Label,
			Anchor: ANCHOR_END,
			Size:   labelSize,
		},
	}
}

func (scene *Scene) addMarkers(cam *camera, fig *Figure) {
	for d := 0; d < blackjack.NUM_DEALER_CARDS; d++ {
		for p := 0; p < blackjack.NUM_PLAYER_SUMS; p++ {
			pt := Point3{X: float64(d), Y: float64(p), Z: fig.zAt(d, p)}
			u, v, _ := cam.normalize(pt)
			c := cam.project(pt)
			scene.Markers = append(scene.Markers, Marker{
				Id: MarkerId(d, p),
				Points: [3]Vec2{
					{X: c.X, Y: c.Y - markerSize},
					{X: c.X - markerSize, Y: c.Y + markerSize*0.6},
					{X: c.X + markerSize, Y: c.Y + markerSize*0.6},
				},
				Fill:    "red",
				Visible: fig.Mode == SCATTER,
				Depth:   cam.depth(u, v),
			})
		}
	}
	sort.SliceStable(scene.Markers, func(i, j int) bool {
		return scene.Markers[i].Depth < scene.Markers[j].Depth
	})
}

func (scene *Scene) addQuads(cam *camera, fig *Figure) {
	var cmap *Colormap
	if fig.Mode == SURFACE {
		// Errors only on non-finite data, leaving those quads grey.
		lo, hi := fig.zExtent()
		cmap, _ = NewColormap(fig.Style.Colormap, lo, hi)
	}

	for d := 0; d < blackjack.NUM_DEALER_CARDS-1; d++ {
		for p := 0; p < blackjack.NUM_PLAYER_SUMS-1; p++ {
			corners := [4]Point3{
				{X: float64(d), Y: float64(p), Z: fig.zAt(d, p)},
				{X: float64(d + 1), Y: float64(p), Z: fig.zAt(d+1, p)},
				{X: float64(d + 1), Y: float64(p + 1), Z: fig.zAt(d+1, p+1)},
				{X: float64(d), Y: float64(p + 1), Z: fig.zAt(d, p+1)},
			}
			quad := Quad{
				Id:          QuadId(d, p),
				StrokeWidth: fig.Style.LineWidth,
				Visible:     fig.Mode != SCATTER,
			}
			mean := 0.0
			for i, corner := range corners {
				quad.Points[i] = cam.project(corner)
				mean += corner.Z / 4
			}
			u, v, _ := cam.normalize(Point3{X: float64(d) + 0.5, Y: float64(p) + 0.5})
			quad.Depth = cam.depth(u, v)

			switch {
			case fig.Mode == SURFACE && cmap != nil:
				quad.Fill = cmap.Hex(mean)
				quad.FillOpacity = fig.Style.Alpha
				quad.Stroke = quad.Fill
			case fig.Mode == SURFACE:
				quad.Fill = "#dddddd"
				quad.FillOpacity = fig.Style.Alpha
				quad.Stroke = quad.Fill
			default:
				quad.Fill = "none"
				quad.FillOpacity = 0
				quad.Stroke = fig.Style.Color
			}
			scene.Quads = append(scene.Quads, quad)
		}
	}
	sort.SliceStable(scene.Quads, func(i, j int) bool {
		return scene.Quads[i].Depth < scene.Quads[j].Depth
	})
}
