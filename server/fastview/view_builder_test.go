package fastview

import (
	"context"
	"fmt"
	"html/template"
	"testing"

	channerics "github.com/niceyeti/channerics/channels"
	. "github.com/smartystreets/goconvey/convey"
)

// labelView shows a single label whose text is the latest view-model.
type labelView struct {
	id      string
	updates <-chan []EleUpdate
}

func newLabelView(id string) ViewBuilderFunc[string] {
	return func(done <-chan struct{}, labels <-chan string) ViewComponent {
		return &labelView{
			id: id,
			updates: channerics.Convert(done, labels, func(label string) []EleUpdate {
				return []EleUpdate{{EleId: id, Ops: []Op{{Key: TEXT_CONTENT, Value: label}}}}
			}),
		}
	}
}

func (lv *labelView) Updates() <-chan []EleUpdate {
	return lv.updates
}

func (lv *labelView) Parse(t *template.Template) (string, error) {
	_, err := t.Parse(`{{ define "` + lv.id + `" }}<span id="` + lv.id + `"></span>{{ end }}`)
	return lv.id, err
}

func TestViewBuilder(t *testing.T) {
	Convey("Given a view builder", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		input := make(chan int)

		Convey("Building without views fails", func() {
			_, err := NewViewBuilder[int, string]().
				WithModel(input, func(x int) string { return fmt.Sprint(x) }).
				Build()
			So(err, ShouldEqual, ErrNoViews)
		})

		Convey("Building without a model fails", func() {
			_, err := NewViewBuilder[int, string]().
				WithView(newLabelView("a")).
				Build()
			So(err, ShouldEqual, ErrNoModel)
		})

		Convey("When the builder succeeds", func() {
			views, err := NewViewBuilder[int, string]().
				WithModel(input, func(x int) string { return fmt.Sprintf("value %d", x) }).
				WithView(newLabelView("a")).
				WithView(newLabelView("b")).
				WithContext(ctx).
				Build()
			So(err, ShouldBeNil)
			So(len(views), ShouldEqual, 2)

			Convey("Every view receives each converted data model", func() {
				go func() { input <- 7 }()
				// Broadcast sends to each output in turn, so both views must be drained together.
				got := map[string]string{}
				for len(got) < 2 {
					select {
					case updates := <-views[0].Updates():
						got[updates[0].EleId] = updates[0].Ops[0].Value
					case updates := <-views[1].Updates():
						got[updates[0].EleId] = updates[0].Ops[0].Value
					}
				}
				So(got, ShouldResemble, map[string]string{"a": "value 7", "b": "value 7"})
			})

			Convey("Views are returned in the order added", func() {
				name, err := views[1].Parse(template.New("page"))
				So(err, ShouldBeNil)
				So(name, ShouldEqual, "b")
			})
		})
	})
}
