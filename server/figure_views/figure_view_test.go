package figure_views

import (
	"bytes"
	"html/template"
	"strings"
	"testing"

	"stateplot/blackjack"
	"stateplot/plot"
	"stateplot/server/fastview"

	. "github.com/smartystreets/goconvey/convey"
)

func testFigure(mode plot.Mode, ua int) *plot.Figure {
	opts := plot.DefaultOptions()
	opts.Mode = mode
	return plot.BuildFigure(blackjack.Generate(blackjack.STATE_VALUE), ua, opts)
}

func findUpdate(updates []fastview.EleUpdate, id string) (fastview.EleUpdate, bool) {
	for _, update := range updates {
		if update.EleId == id {
			return update, true
		}
	}
	return fastview.EleUpdate{}, false
}

func opValue(update fastview.EleUpdate, key string) string {
	for _, op := range update.Ops {
		if op.Key == key {
			return op.Value
		}
	}
	return ""
}

func TestSceneUpdates(t *testing.T) {
	Convey("Given the scene of a scatter figure", t, func() {
		scene := plot.NewScene(testFigure(plot.SCATTER, blackjack.USABLE_ACE))
		updates := SceneUpdates("fig_1-", scene)

		Convey("Every text, marker and quad element gets one update", func() {
			expected := 1 + len(scene.Ticks) + len(scene.AxisLabels) + len(scene.Markers) + len(scene.Quads)
			So(len(updates), ShouldEqual, expected)
			So(len(scene.Markers), ShouldEqual, 100)
			So(len(scene.Quads), ShouldEqual, 81)
		})

		Convey("Element ids carry the view prefix", func() {
			for _, update := range updates {
				So(strings.HasPrefix(update.EleId, "fig_1-"), ShouldBeTrue)
			}
		})

		Convey("The title is replaced as text", func() {
			title, ok := findUpdate(updates, "fig_1-title")
			So(ok, ShouldBeTrue)
			So(opValue(title, fastview.TEXT_CONTENT), ShouldEqual, "Usable Ace")
		})

		Convey("Markers are shown and quads hidden", func() {
			marker, ok := findUpdate(updates, "fig_1-"+plot.MarkerId(3, 4))
			So(ok, ShouldBeTrue)
			So(opValue(marker, "visibility"), ShouldEqual, "visible")
			So(len(strings.Fields(opValue(marker, "points"))), ShouldEqual, 3)

			quad, ok := findUpdate(updates, "fig_1-"+plot.QuadId(3, 4))
			So(ok, ShouldBeTrue)
			So(opValue(quad, "visibility"), ShouldEqual, "hidden")
			So(len(strings.Fields(opValue(quad, "points"))), ShouldEqual, 4)
		})
	})

	Convey("Given the scene of a surface figure", t, func() {
		scene := plot.NewScene(testFigure(plot.SURFACE, blackjack.NO_USABLE_ACE))
		updates := SceneUpdates("", scene)

		Convey("Quads are filled and translucent and markers hidden", func() {
			quad, ok := findUpdate(updates, plot.QuadId(0, 0))
			So(ok, ShouldBeTrue)
			So(opValue(quad, "visibility"), ShouldEqual, "visible")
			So(opValue(quad, "fill"), ShouldStartWith, "#")
			So(opValue(quad, "fill-opacity"), ShouldEqual, "0.7")

			marker, ok := findUpdate(updates, plot.MarkerId(0, 0))
			So(ok, ShouldBeTrue)
			So(opValue(marker, "visibility"), ShouldEqual, "hidden")
		})
	})
}

func TestFigureView(t *testing.T) {
	Convey("Given a figure view", t, func() {
		done := make(chan struct{})
		defer close(done)
		figures := make(chan *plot.Figure, 1)
		fv := NewFigureView("no-ace", done, figures)

		Convey("Hyphens are removed from its id", func() {
			So(fv.Id(), ShouldEqual, "no_ace")
		})

		Convey("A received figure is converted into prefixed ele-updates", func() {
			figures <- testFigure(plot.WIREFRAME, blackjack.NO_USABLE_ACE)
			updates := <-fv.Updates()
			title, ok := findUpdate(updates, "no_ace-title")
			So(ok, ShouldBeTrue)
			So(opValue(title, fastview.TEXT_CONTENT), ShouldEqual, "No Usable Ace")
		})

		Convey("Parsing adds a template rendering the view's scene from the page data", func() {
			page := template.New("page")
			name, err := fv.Parse(page)
			So(err, ShouldBeNil)
			So(name, ShouldEqual, "no_ace")
			_, err = page.Parse(`{{ template "no_ace" . }}`)
			So(err, ShouldBeNil)

			scene := plot.NewScene(testFigure(plot.WIREFRAME, blackjack.NO_USABLE_ACE))
			buf := bytes.Buffer{}
			err = page.Execute(&buf, map[string]*plot.Scene{"no_ace": scene})
			So(err, ShouldBeNil)

			html := buf.String()
			So(html, ShouldContainSubstring, `id="no_ace-svg"`)
			So(html, ShouldContainSubstring, `id="no_ace-title"`)
			So(html, ShouldContainSubstring, `id="no_ace-`+plot.QuadId(8, 8)+`"`)
			So(html, ShouldContainSubstring, "No Usable Ace")
		})

		Convey("A page without the view's scene renders an empty container", func() {
			page := template.New("page")
			_, err := fv.Parse(page)
			So(err, ShouldBeNil)
			_, err = page.Parse(`{{ template "no_ace" . }}`)
			So(err, ShouldBeNil)

			buf := bytes.Buffer{}
			So(page.Execute(&buf, map[string]*plot.Scene{}), ShouldBeNil)
			So(buf.String(), ShouldNotContainSubstring, "<svg")
		})
	})
}

func TestWriteSVG(t *testing.T) {
	Convey("A standalone svg contains the figure's labels and every element", t, func() {
		scene := plot.NewScene(testFigure(plot.SCATTER, blackjack.USABLE_ACE))
		buf := bytes.Buffer{}
		So(WriteSVG(&buf, scene), ShouldBeNil)

		svg := buf.String()
		So(strings.TrimSpace(svg), ShouldStartWith, "<svg")
		So(svg, ShouldContainSubstring, "Usable Ace")
		So(svg, ShouldContainSubstring, "dealer showing")
		So(svg, ShouldContainSubstring, "player sum")
		So(svg, ShouldContainSubstring, `id="`+plot.MarkerId(9, 9)+`"`)
		So(strings.Count(svg, "<polygon"), ShouldEqual, 181)
		So(strings.HasSuffix(svg, "</svg>"), ShouldBeTrue)
	})
}
