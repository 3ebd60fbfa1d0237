package root_view

import (
	"bytes"
	"context"
	"html/template"
	"testing"
	"time"

	"stateplot/server/fastview"

	. "github.com/smartystreets/goconvey/convey"
)

type fakeView struct {
	id      string
	updates chan []fastview.EleUpdate
}

func (fv *fakeView) Updates() <-chan []fastview.EleUpdate {
	return fv.updates
}

func (fv *fakeView) Parse(t *template.Template) (string, error) {
	_, err := t.Parse(`{{ define "` + fv.id + `" }}<p id="` + fv.id + `">{{ index . "` + fv.id + `" }}</p>{{ end }}`)
	return fv.id, err
}

func textUpdate(id, text string) []fastview.EleUpdate {
	return []fastview.EleUpdate{{EleId: id, Ops: []fastview.Op{{Key: fastview.TEXT_CONTENT, Value: text}}}}
}

func TestBatchify(t *testing.T) {
	Convey("Given a batched source", t, func() {
		done := make(chan struct{})
		defer close(done)
		source := make(chan []fastview.EleUpdate)
		batches := batchify(done, source, time.Millisecond*50)

		Convey("Updates for the same element within the window are coalesced to the latest", func() {
			source <- textUpdate("a", "1")
			source <- textUpdate("b", "1")
			source <- textUpdate("a", "2")

			batch := <-batches
			So(len(batch), ShouldEqual, 2)
			So(batch[0].EleId, ShouldEqual, "a")
			So(batch[0].Ops[0].Value, ShouldEqual, "2")
			So(batch[1].EleId, ShouldEqual, "b")
		})

		Convey("A lone update is flushed without waiting for another", func() {
			source <- textUpdate("a", "1")
			select {
			case batch := <-batches:
				So(batch, ShouldResemble, textUpdate("a", "1"))
			case <-time.After(time.Second):
				So("batch was never flushed", ShouldBeEmpty)
			}
		})
	})
}

func TestRootView(t *testing.T) {
	Convey("Given a root view of two views", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		views := []fastview.ViewComponent{
			&fakeView{id: "first", updates: make(chan []fastview.EleUpdate)},
			&fakeView{id: "second", updates: make(chan []fastview.EleUpdate)},
		}

		Convey("Updates of every view are fanned into one chan", func() {
			rv := NewRootView(ctx, "Figures", false, views)
			go func() { views[1].(*fakeView).updates <- textUpdate("second", "x") }()

			select {
			case batch := <-rv.Updates():
				So(batch, ShouldResemble, textUpdate("second", "x"))
			case <-time.After(time.Second):
				So("no updates received", ShouldBeEmpty)
			}
		})

		Convey("The page contains each view and the websocket bootstrap", func() {
			rv := NewRootView(ctx, "Figures", true, views)
			page := template.New("index.html")
			name, err := rv.Parse(page)
			So(err, ShouldBeNil)

			buf := bytes.Buffer{}
			err = page.ExecuteTemplate(&buf, name, map[string]string{"first": "one", "second": "two"})
			So(err, ShouldBeNil)

			html := buf.String()
			So(html, ShouldContainSubstring, "<title>Figures</title>")
			So(html, ShouldContainSubstring, `<p id="first">one</p>`)
			So(html, ShouldContainSubstring, `<p id="second">two</p>`)
			So(html, ShouldContainSubstring, "/ws")
			So(html, ShouldContainSubstring, `id="dismiss"`)
		})
	})
}
