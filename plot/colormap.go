package plot

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
)

// COOLWARM is Moreland's smooth blue-to-red diverging map.
const COOLWARM = "coolwarm"

// Colormap maps values in [lo,hi] onto a diverging palette.
type Colormap struct {
	cmap palette.ColorMap
	lo   float64
	hi   float64
}

// NewColormap returns the named colormap normalized over [lo,hi].
// A degenerate range (e.g. an all-zero tensor) is widened so every value maps to the midpoint.
func NewColormap(name string, lo, hi float64) (*Colormap, error) {
	if name != COOLWARM {
		return nil, fmt.Errorf("unknown colormap %q", name)
	}
	if math.IsNaN(lo) || math.IsNaN(hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return nil, fmt.Errorf("colormap range [%v,%v] is not finite", lo, hi)
	}
	if hi-lo < 1e-12 {
		mid := (lo + hi) / 2
		lo, hi = mid-0.5, mid+0.5
	}

	cmap := moreland.SmoothBlueRed()
	cmap.SetMin(lo)
	cmap.SetMax(hi)
	return &Colormap{cmap: cmap, lo: lo, hi: hi}, nil
}

// At returns the color for val, clamped into the map's range.
func (cm *Colormap) At(val float64) color.RGBA {
	val = math.Max(cm.lo, math.Min(cm.hi, val))
	c, err := cm.cmap.At(val)
	if err != nil {
		// Only NaN reaches here.
		return color.RGBA{R: 0xdd, G: 0xdd, B: 0xdd, A: 0xff}
	}
	return color.RGBAModel.Convert(c).(color.RGBA)
}

// Hex returns the color for val as an #rrggbb string.
func (cm *Colormap) Hex(val float64) string {
	return hexColor(cm.At(val))
}

func hexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
