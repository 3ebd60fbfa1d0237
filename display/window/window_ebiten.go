//go:build cgo

package window

import (
	"context"
	"image"
	"image/color"

	"stateplot/plot"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/rs/zerolog"
)

// request is a figure to show and the chan closed when the viewer dismisses it.
type request struct {
	fig       *plot.Figure
	dismissed chan struct{}
}

// Display is a single desktop window. Run owns the window and must be called from the main
// goroutine; Show may be called from the drive func while Run is active.
type Display struct {
	title    string
	logger   zerolog.Logger
	requests chan request
	closed   chan struct{}
}

func NewDisplay(title string, logger zerolog.Logger) *Display {
	return &Display{
		title:    title,
		logger:   logger,
		requests: make(chan request),
		closed:   make(chan struct{}),
	}
}

// Show hands the figure to the window and blocks until it is dismissed.
func (d *Display) Show(ctx context.Context, fig *plot.Figure) error {
	req := request{fig: fig, dismissed: make(chan struct{})}
	select {
	case d.requests <- req:
	case <-d.closed:
		return ErrWindowClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-req.dismissed:
		return nil
	case <-d.closed:
		return ErrWindowClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run opens the window and calls drive, which shows figures, on another goroutine.
// The window closes when drive returns, when ctx is done, or when the viewer closes it with no
// figure pending. Run returns drive's error.
func (d *Display) Run(ctx context.Context, drive func(context.Context) error) error {
	driveCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	finished := make(chan struct{})
	var driveErr error
	go func() {
		defer close(finished)
		driveErr = drive(driveCtx)
	}()

	g := &game{
		display:  d,
		ctx:      ctx,
		finished: finished,
		width:    plot.DEFAULT_WIDTH,
		height:   plot.DEFAULT_HEIGHT,
	}
	ebiten.SetWindowTitle(d.title)
	ebiten.SetWindowSize(plot.DEFAULT_WIDTH*3/4, plot.DEFAULT_HEIGHT*3/4)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowClosingHandled(true)
	ebiten.SetTPS(30)
	runErr := ebiten.RunGame(g)

	// Release a drive blocked in Show, e.g. after the viewer closed the window.
	close(d.closed)
	cancel()
	<-finished

	if runErr != nil {
		return runErr
	}
	return driveErr
}

type game struct {
	display  *Display
	ctx      context.Context
	finished <-chan struct{}

	current       *request
	canvas        *ebiten.Image
	textLayer     *ebiten.Image
	white         *ebiten.Image
	scene         *plot.Scene
	antialias     bool
	dirty         bool
	width, height int
}

func dismissPressed() bool {
	for _, key := range []ebiten.Key{ebiten.KeySpace, ebiten.KeyEnter, ebiten.KeyEscape} {
		if inpututil.IsKeyJustPressed(key) {
			return true
		}
	}
	return inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft)
}

func (g *game) Update() error {
	select {
	case <-g.finished:
		return ebiten.Termination
	default:
	}
	if g.ctx.Err() != nil {
		return ebiten.Termination
	}

	closing := ebiten.IsWindowBeingClosed()
	if g.current == nil {
		if closing {
			return ebiten.Termination
		}
		select {
		case req := <-g.display.requests:
			g.show(&req)
		default:
		}
		return nil
	}

	if closing || dismissPressed() {
		close(g.current.dismissed)
		g.current = nil
	}
	return nil
}

func (g *game) show(req *request) {
	g.current = req
	g.scene = plot.NewScene(req.fig)
	g.antialias = req.fig.Style.AntiAlias
	g.width, g.height = g.scene.Width, g.scene.Height
	g.dirty = true
	ebiten.SetWindowTitle(g.display.title + ": " + req.fig.Title)
	g.display.logger.Debug().
		Str("title", req.fig.Title).
		Str("mode", string(req.fig.Mode)).
		Msg("showing figure")
}

func (g *game) Draw(screen *ebiten.Image) {
	if g.scene == nil {
		screen.Fill(color.White)
		ebitenutil.DebugPrint(screen, "waiting for figure...")
		return
	}
	if g.dirty || g.canvas == nil {
		g.render()
		g.dirty = false
	}
	screen.DrawImage(g.canvas, nil)
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.width, g.height
}

// render paints the scene once onto the canvas, which Draw then blits each frame.
func (g *game) render() {
	scene := g.scene
	if g.canvas == nil || g.canvas.Bounds().Dx() != scene.Width || g.canvas.Bounds().Dy() != scene.Height {
		if g.canvas != nil {
			g.canvas.Deallocate()
			g.textLayer.Deallocate()
		}
		g.canvas = ebiten.NewImage(scene.Width, scene.Height)
		g.textLayer = ebiten.NewImage(scene.Width, scene.Height)
	}
	if g.white == nil {
		g.white = ebiten.NewImage(3, 3)
		g.white.Fill(color.White)
	}

	bg, ok := parseColor(scene.Background)
	if !ok {
		bg = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	}
	g.canvas.Fill(bg)

	for _, edge := range scene.Edges {
		stroke, _ := parseColor(edge.Stroke)
		vector.StrokeLine(g.canvas,
			float32(edge.From.X), float32(edge.From.Y), float32(edge.To.X), float32(edge.To.Y),
			1, stroke, true)
	}

	for _, quad := range scene.Quads {
		if !quad.Visible {
			continue
		}
		if fill, ok := parseColor(quad.Fill); ok {
			g.fillPolygon(quad.Points[:], fill, quad.FillOpacity)
		}
		if stroke, ok := parseColor(quad.Stroke); ok {
			g.strokePolygon(quad.Points[:], stroke, quad.StrokeWidth)
		}
	}

	for _, marker := range scene.Markers {
		if !marker.Visible {
			continue
		}
		if fill, ok := parseColor(marker.Fill); ok {
			g.fillPolygon(marker.Points[:], fill, 1)
		}
	}

	// The debug font prints white glyphs; they are tinted when composited.
	g.textLayer.Clear()
	for _, label := range sceneLabels(scene) {
		x, y := textOrigin(label)
		ebitenutil.DebugPrintAt(g.textLayer, label.Text, x, y)
	}
	tint, _ := parseColor(textColor)
	op := &ebiten.DrawImageOptions{}
	op.ColorScale.ScaleWithColor(tint)
	g.canvas.DrawImage(g.textLayer, op)
}

func (g *game) fillPolygon(pts []plot.Vec2, fill color.RGBA, alpha float64) {
	var path vector.Path
	path.MoveTo(float32(pts[0].X), float32(pts[0].Y))
	for _, pt := range pts[1:] {
		path.LineTo(float32(pt.X), float32(pt.Y))
	}
	path.Close()

	vs, is := path.AppendVerticesAndIndicesForFilling(nil, nil)
	for i := range vs {
		vs[i].SrcX, vs[i].SrcY = 1, 1
		vs[i].ColorR = float32(fill.R) / 0xff
		vs[i].ColorG = float32(fill.G) / 0xff
		vs[i].ColorB = float32(fill.B) / 0xff
		vs[i].ColorA = float32(alpha)
	}
	src := g.white.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image)
	g.canvas.DrawTriangles(vs, is, src, &ebiten.DrawTrianglesOptions{AntiAlias: g.antialias})
}

func (g *game) strokePolygon(pts []plot.Vec2, stroke color.RGBA, width float64) {
	for i := range pts {
		from, to := pts[i], pts[(i+1)%len(pts)]
		vector.StrokeLine(g.canvas,
			float32(from.X), float32(from.Y), float32(to.X), float32(to.Y),
			float32(width), stroke, g.antialias)
	}
}
