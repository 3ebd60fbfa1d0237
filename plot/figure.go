// plot builds 3D figures of a Black-Jack state tensor and hands them to a Display.
// A Figure is a declarative description (axes, data, style); NewScene projects it into
// 2D primitives that a concrete display (svg file, browser, desktop window) can draw.
package plot

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"stateplot/blackjack"
)

// Mode is the render mode of a figure.
type Mode string

const (
	SCATTER   Mode = "scatter"
	WIREFRAME Mode = "wireframe"
	SURFACE   Mode = "surface"
)

// ParseMode maps a mode name to a Mode. Unrecognized names fall back to WIREFRAME.
func ParseMode(name string) Mode {
	switch mode := Mode(name); mode {
	case SCATTER, SURFACE, WIREFRAME:
		return mode
	}
	return WIREFRAME
}

// Default figure dimensions: 16x10 inches at 100 dpi.
const (
	DEFAULT_WIDTH  = 1600
	DEFAULT_HEIGHT = 1000
)

// Options are the display options of a PlotStateData call.
type Options struct {
	ZLabel string
	Mode   Mode
	ZMin   float64
	ZMax   float64
	// Width and height of the figure in pixels.
	Width, Height int
	// Camera angles in degrees.
	Azimuth, Elevation float64
}

// DefaultOptions returns options for plotting state values as a wireframe over [-1,1].
func DefaultOptions() Options {
	return Options{
		ZLabel:    "V* (state value)",
		Mode:      WIREFRAME,
		ZMin:      -1,
		ZMax:      1,
		Width:     DEFAULT_WIDTH,
		Height:    DEFAULT_HEIGHT,
		Azimuth:   DEFAULT_AZIMUTH,
		Elevation: DEFAULT_ELEVATION,
	}
}

// Tick is a labelled position along an axis.
type Tick struct {
	Value float64
	Label string
}

// Axis is a fixed display range with its ticks.
type Axis struct {
	Label    string
	Min, Max float64
	Ticks    []Tick
}

// Point3 is a point in data coordinates.
type Point3 struct {
	X, Y, Z float64
}

// Mesh is the coordinate-matrix form of the dealer/player axes. Rows are player sums and
// columns are dealer cards: XS[p][d] = d, YS[p][d] = p, ZS[p][d] = tensor[d][p][ua].
type Mesh struct {
	XS, YS, ZS [blackjack.NUM_PLAYER_SUMS][blackjack.NUM_DEALER_CARDS]float64
}

// Style carries the mode-specific drawing parameters.
type Style struct {
	Color     string  // marker or line color
	Marker    string  // scatter marker glyph
	Colormap  string  // surface colormap name, empty for none
	Alpha     float64 // fill opacity
	LineWidth float64
	Stride    int // rows/cols between grid lines
	Shade     bool
	AntiAlias bool
}

// Figure is one 3D plot: a single usable-ace slice of the tensor.
type Figure struct {
	Title     string
	UsableAce int
	Mode      Mode
	X, Y, Z   Axis
	// Points is set in SCATTER mode: 100 independent points.
	Points []Point3
	// Mesh is set in the grid modes.
	Mesh          *Mesh
	Style         Style
	Width, Height int
	Azimuth       float64
	Elevation     float64
}

func styleFor(mode Mode) Style {
	switch mode {
	case SCATTER:
		return Style{Color: "red", Marker: "^", Alpha: 1, LineWidth: 1, AntiAlias: true}
	case SURFACE:
		return Style{Colormap: COOLWARM, Alpha: 0.7, LineWidth: 1, Stride: 1, Shade: false, AntiAlias: false}
	}
	return Style{Color: "#1f77b4", Alpha: 1, LineWidth: 1, Stride: 1, AntiAlias: true}
}

func dealerAxis() Axis {
	ax := Axis{Label: "dealer showing", Min: 0, Max: blackjack.NUM_DEALER_CARDS - 1}
	for d := 0; d < blackjack.NUM_DEALER_CARDS; d++ {
		ax.Ticks = append(ax.Ticks, Tick{Value: float64(d), Label: blackjack.DealerLabel(d)})
	}
	return ax
}

func playerAxis() Axis {
	ax := Axis{Label: "player sum", Min: 0, Max: blackjack.NUM_PLAYER_SUMS - 1}
	for p := 0; p < blackjack.NUM_PLAYER_SUMS; p++ {
		ax.Ticks = append(ax.Ticks, Tick{Value: float64(p), Label: blackjack.PlayerLabel(p)})
	}
	return ax
}

// NUM_Z_TICKS is the number of evenly spaced ticks on the value axis.
const NUM_Z_TICKS = 5

func valueAxis(label string, zmin, zmax float64) Axis {
	ax := Axis{Label: label, Min: zmin, Max: zmax}
	step := (zmax - zmin) / (NUM_Z_TICKS - 1)
	for i := 0; i < NUM_Z_TICKS; i++ {
		val := zmin + float64(i)*step
		ax.Ticks = append(ax.Ticks, Tick{Value: val, Label: tickLabel(val, step)})
	}
	return ax
}

// tickLabel formats val as a plain decimal, one digit finer than step and without trailing zeros.
func tickLabel(val, step float64) string {
	prec := 0
	if step > 0 {
		prec = int(math.Max(0, math.Ceil(-math.Log10(step))+1))
	}
	label := strconv.FormatFloat(val, 'f', prec, 64)
	if strings.Contains(label, ".") {
		label = strings.TrimRight(strings.TrimRight(label, "0"), ".")
	}
	if label == "-0" {
		return "0"
	}
	return label
}

// BuildFigure builds the figure for one usable-ace slice.
func BuildFigure(t *blackjack.Tensor, ua int, opts Options) *Figure {
	mode := ParseMode(string(opts.Mode))
	fig := &Figure{
		Title:     blackjack.AceTitle(ua),
		UsableAce: ua,
		Mode:      mode,
		X:         dealerAxis(),
		Y:         playerAxis(),
		Z:         valueAxis(opts.ZLabel, opts.ZMin, opts.ZMax),
		Style:     styleFor(mode),
		Width:     opts.Width,
		Height:    opts.Height,
		Azimuth:   opts.Azimuth,
		Elevation: opts.Elevation,
	}
	if fig.Width <= 0 || fig.Height <= 0 {
		fig.Width, fig.Height = DEFAULT_WIDTH, DEFAULT_HEIGHT
	}

	if mode == SCATTER {
		fig.Points = make([]Point3, 0, blackjack.NUM_DEALER_CARDS*blackjack.NUM_PLAYER_SUMS)
		for d := 0; d < blackjack.NUM_DEALER_CARDS; d++ {
			for p := 0; p < blackjack.NUM_PLAYER_SUMS; p++ {
				fig.Points = append(fig.Points, Point3{
					X: float64(d),
					Y: float64(p),
					Z: t.At(d, p, ua),
				})
			}
		}
		return fig
	}

	fig.Mesh = &Mesh{}
	for p := 0; p < blackjack.NUM_PLAYER_SUMS; p++ {
		for d := 0; d < blackjack.NUM_DEALER_CARDS; d++ {
			fig.Mesh.XS[p][d] = float64(d)
			fig.Mesh.YS[p][d] = float64(p)
			fig.Mesh.ZS[p][d] = t.At(d, p, ua)
		}
	}
	return fig
}

// BuildFigures builds both usable-ace figures, no usable ace first.
func BuildFigures(t *blackjack.Tensor, opts Options) (figs [blackjack.NUM_ACE_FLAGS]*Figure) {
	for ua := range figs {
		figs[ua] = BuildFigure(t, ua, opts)
	}
	return
}

// Display shows a figure. Show blocks until the viewer dismisses the figure or ctx is done.
type Display interface {
	Show(ctx context.Context, fig *Figure) error
}

// PlotStateData renders one figure per usable-ace flag and shows each on the display in turn,
// returning after the second figure is dismissed.
func PlotStateData(
	ctx context.Context,
	display Display,
	t *blackjack.Tensor,
	opts Options,
) error {
	for _, fig := range BuildFigures(t, opts) {
		if err := display.Show(ctx, fig); err != nil {
			return fmt.Errorf("show %q (%s): %w", fig.Title, fig.Mode, err)
		}
	}
	return nil
}
