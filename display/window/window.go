// window shows figures in a desktop window, one at a time, each until the viewer dismisses it.
package window

import (
	"errors"
	"image/color"
	"strconv"
	"strings"

	"stateplot/plot"

	"golang.org/x/image/colornames"
)

// ErrNoCgo is returned by builds without cgo, in which the desktop window is unavailable.
var ErrNoCgo error = errors.New("window display requires cgo (build with CGO_ENABLED=1)")

// ErrWindowClosed is returned by Show once the window has been closed for good.
var ErrWindowClosed error = errors.New("window closed")

const (
	// The debug font's glyph cell, in pixels.
	glyphWidth  = 6
	glyphHeight = 16

	textColor = "#333333"
)

// parseColor converts an svg paint value, either #rrggbb or a named color, to rgba.
// It returns false for "none" and unparseable values, which are not painted.
func parseColor(paint string) (color.RGBA, bool) {
	if strings.HasPrefix(paint, "#") && len(paint) == 7 {
		rgb, err := strconv.ParseUint(paint[1:], 16, 32)
		if err != nil {
			return color.RGBA{}, false
		}
		return color.RGBA{R: uint8(rgb >> 16), G: uint8(rgb >> 8), B: uint8(rgb), A: 0xff}, true
	}
	c, ok := colornames.Map[strings.ToLower(paint)]
	return c, ok
}

// textOrigin returns the top-left corner at which to print a label so that it sits at its
// anchor, vertically centered like the svg rendering.
func textOrigin(label plot.Label) (x, y int) {
	width := float64(len(label.Text) * glyphWidth)
	left := label.Pos.X
	switch label.Anchor {
	case plot.ANCHOR_MIDDLE:
		left -= width / 2
	case plot.ANCHOR_END:
		left -= width
	}
	return int(left), int(label.Pos.Y - glyphHeight/2)
}

// sceneLabels returns every text label of the scene.
func sceneLabels(scene *plot.Scene) []plot.Label {
	labels := append([]plot.Label{scene.Title}, scene.Ticks...)
	return append(labels, scene.AxisLabels...)
}
