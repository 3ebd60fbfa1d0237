// figure_views renders plot scenes as svg: in place-updatable views for the live page, and
// standalone documents for files and downloads.
package figure_views

import (
	"fmt"
	"html/template"
	"io"
	"strings"

	"stateplot/plot"
	"stateplot/server/fastview"

	channerics "github.com/niceyeti/channerics/channels"
)

// FigureView shows one figure at a time as an svg whose elements are updated in place when
// a new figure arrives. Canvas size and camera are fixed when the page is rendered; later
// figures may change data, mode, titles and labels.
type FigureView struct {
	id      string
	updates <-chan []fastview.EleUpdate
}

// NewFigureView returns a view of the figures received on the passed chan.
// The id becomes both the template name and the prefix of element ids, so it must not contain
// hyphens, which interfere with html/template's `template` directive.
func NewFigureView(
	id string,
	done <-chan struct{},
	figures <-chan *plot.Figure,
) (fv *FigureView) {
	fv = &FigureView{id: template.HTMLEscapeString(strings.ReplaceAll(id, "-", "_"))}
	fv.updates = channerics.Convert(done, figures, fv.onUpdate)
	return
}

// Id returns the view's id, which keys its scene in the page data.
func (fv *FigureView) Id() string {
	return fv.id
}

func (fv *FigureView) Updates() <-chan []fastview.EleUpdate {
	return fv.updates
}

func (fv *FigureView) prefix() string {
	return fv.id + "-"
}

func op(key, value string) fastview.Op {
	return fastview.Op{Key: key, Value: value}
}

// onUpdate returns the set of view updates needed for the view to reflect the passed figure.
func (fv *FigureView) onUpdate(fig *plot.Figure) (updates []fastview.EleUpdate) {
	return SceneUpdates(fv.prefix(), plot.NewScene(fig))
}

// SceneUpdates returns the ele-updates that transform any scene's svg, rendered with the same
// prefix and camera, into the passed scene.
func SceneUpdates(prefix string, scene *plot.Scene) (updates []fastview.EleUpdate) {
	text := func(label plot.Label) fastview.EleUpdate {
		return fastview.EleUpdate{
			EleId: prefix + label.Id,
			Ops: []fastview.Op{
				op(fastview.TEXT_CONTENT, label.Text),
				op("x", num(label.Pos.X)),
				op("y", num(label.Pos.Y)),
			},
		}
	}

	updates = append(updates, text(scene.Title))
	for _, label := range scene.Ticks {
		updates = append(updates, text(label))
	}
	for _, label := range scene.AxisLabels {
		updates = append(updates, text(label))
	}

	for _, marker := range scene.Markers {
		updates = append(updates, fastview.EleUpdate{
			EleId: prefix + marker.Id,
			Ops: []fastview.Op{
				op("points", markerPoints(marker)),
				op("fill", marker.Fill),
				op("visibility", visibility(marker.Visible)),
			},
		})
	}

	for _, quad := range scene.Quads {
		updates = append(updates, fastview.EleUpdate{
			EleId: prefix + quad.Id,
			Ops: []fastview.Op{
				op("points", quadPoints(quad)),
				op("fill", quad.Fill),
				op("fill-opacity", num(quad.FillOpacity)),
				op("stroke", quad.Stroke),
				op("stroke-width", num(quad.StrokeWidth)),
				op("visibility", visibility(quad.Visible)),
			},
		})
	}
	return
}

func num(f float64) string {
	return fmt.Sprintf("%.1f", f)
}

func visibility(visible bool) string {
	if visible {
		return "visible"
	}
	return "hidden"
}

func formatPoints(pts []plot.Vec2) string {
	sb := strings.Builder{}
	for i, pt := range pts {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%.1f,%.1f", pt.X, pt.Y)
	}
	return sb.String()
}

func markerPoints(marker plot.Marker) string {
	return formatPoints(marker.Points[:])
}

func quadPoints(quad plot.Quad) string {
	return formatPoints(quad.Points[:])
}

// sceneData is the context of the svg markup.
type sceneData struct {
	Prefix string
	Scene  *plot.Scene
}

var svgFuncs = template.FuncMap{
	"num":          num,
	"visibility":   visibility,
	"markerPoints": markerPoints,
	"quadPoints":   quadPoints,
	"viewScene": func(id string, scenes map[string]*plot.Scene) *sceneData {
		if scene, ok := scenes[id]; ok && scene != nil {
			return &sceneData{Prefix: id + "-", Scene: scene}
		}
		return nil
	},
}

// Note: element order is the painter's order of the scene; later elements obscure earlier ones.
const svgMarkup = `{{ $prefix := .Prefix }}
<svg id="{{ $prefix }}svg" xmlns="http://www.w3.org/2000/svg"
	width="{{ .Scene.Width }}" height="{{ .Scene.Height }}"
	viewBox="0 0 {{ .Scene.Width }} {{ .Scene.Height }}"
	font-family="sans-serif">
	<rect width="{{ .Scene.Width }}" height="{{ .Scene.Height }}" fill="{{ .Scene.Background }}"/>
	<g stroke-width="1">
	{{ range .Scene.Edges }}
		<line x1="{{ num .From.X }}" y1="{{ num .From.Y }}" x2="{{ num .To.X }}" y2="{{ num .To.Y }}" stroke="{{ .Stroke }}"/>
	{{ end }}
	</g>
	<g stroke-linejoin="round">
	{{ range .Scene.Quads }}
		<polygon id="{{ $prefix }}{{ .Id }}"
			points="{{ quadPoints . }}"
			fill="{{ .Fill }}" fill-opacity="{{ num .FillOpacity }}"
			stroke="{{ .Stroke }}" stroke-width="{{ num .StrokeWidth }}"
			visibility="{{ visibility .Visible }}"/>
	{{ end }}
	</g>
	<g>
	{{ range .Scene.Markers }}
		<polygon id="{{ $prefix }}{{ .Id }}"
			points="{{ markerPoints . }}"
			fill="{{ .Fill }}"
			visibility="{{ visibility .Visible }}"/>
	{{ end }}
	</g>
	<g fill="#333333" dominant-baseline="middle">
	{{ range .Scene.Ticks }}
		<text id="{{ $prefix }}{{ .Id }}" x="{{ num .Pos.X }}" y="{{ num .Pos.Y }}" font-size="{{ .Size }}" text-anchor="{{ .Anchor }}">{{ .Text }}</text>
	{{ end }}
	{{ range .Scene.AxisLabels }}
		<text id="{{ $prefix }}{{ .Id }}" x="{{ num .Pos.X }}" y="{{ num .Pos.Y }}" font-size="{{ .Size }}" text-anchor="{{ .Anchor }}">{{ .Text }}</text>
	{{ end }}
	{{ with .Scene.Title }}
		<text id="{{ $prefix }}{{ .Id }}" x="{{ num .Pos.X }}" y="{{ num .Pos.Y }}" font-size="{{ .Size }}" text-anchor="{{ .Anchor }}">{{ .Text }}</text>
	{{ end }}
	</g>
</svg>`

// Parse adds the view's svg to the passed page template and returns its name.
// The page data must be a map[string]*plot.Scene keyed by view id.
func (fv *FigureView) Parse(
	t *template.Template,
) (name string, err error) {
	name = fv.id
	_, err = t.Funcs(svgFuncs).Parse(
		`{{ define "` + name + `" }}
		<div class="figure">
		{{ with viewScene "` + fv.id + `" . }}` + svgMarkup + `{{ end }}
		</div>
		{{ end }}`)
	return
}

var standalone = template.Must(template.New("figure").Funcs(svgFuncs).Parse(svgMarkup))

// WriteSVG writes the scene as a standalone svg document.
func WriteSVG(w io.Writer, scene *plot.Scene) error {
	if err := standalone.Execute(w, &sceneData{Scene: scene}); err != nil {
		return fmt.Errorf("render svg: %w", err)
	}
	return nil
}
