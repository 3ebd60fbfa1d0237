package window

import (
	"image/color"
	"testing"

	"stateplot/blackjack"
	"stateplot/plot"

	. "github.com/smartystreets/goconvey/convey"
)

func TestParseColor(t *testing.T) {
	Convey("Svg paints are converted to rgba", t, func() {
		c, ok := parseColor("#1f77b4")
		So(ok, ShouldBeTrue)
		So(c, ShouldResemble, color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff})

		c, ok = parseColor("red")
		So(ok, ShouldBeTrue)
		So(c, ShouldResemble, color.RGBA{R: 0xff, A: 0xff})

		_, ok = parseColor("none")
		So(ok, ShouldBeFalse)
		_, ok = parseColor("#zzzzzz")
		So(ok, ShouldBeFalse)
	})
}

func TestTextOrigin(t *testing.T) {
	Convey("Labels are offset from their anchor by their printed width", t, func() {
		label := plot.Label{Pos: plot.Vec2{X: 100, Y: 50}, Text: "abcd"}

		label.Anchor = plot.ANCHOR_START
		x, y := textOrigin(label)
		So(x, ShouldEqual, 100)
		So(y, ShouldEqual, 50-glyphHeight/2)

		label.Anchor = plot.ANCHOR_MIDDLE
		x, _ = textOrigin(label)
		So(x, ShouldEqual, 100-2*glyphWidth)

		label.Anchor = plot.ANCHOR_END
		x, _ = textOrigin(label)
		So(x, ShouldEqual, 100-4*glyphWidth)
	})
}

func TestSceneLabels(t *testing.T) {
	Convey("Every label of a scene is printed, title first", t, func() {
		fig := plot.BuildFigure(blackjack.Generate(blackjack.PROB), blackjack.NO_USABLE_ACE, plot.DefaultOptions())
		scene := plot.NewScene(fig)
		labels := sceneLabels(scene)
		So(len(labels), ShouldEqual, 1+len(scene.Ticks)+len(scene.AxisLabels))
		So(labels[0].Text, ShouldEqual, "No Usable Ace")
	})
}
