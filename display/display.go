// display provides the backends that show figures: svg files, a browser page, or a desktop
// window (see display/window).
package display

import (
	"context"

	"stateplot/plot"
)

// Runner is a display that must be running while figures are shown. Run calls drive, which
// shows figures on the display, and returns once drive has returned and the display is torn down.
type Runner interface {
	plot.Display
	Run(ctx context.Context, drive func(context.Context) error) error
}
