package display

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"stateplot/blackjack"
	"stateplot/plot"
	"stateplot/server/fastview"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	. "github.com/smartystreets/goconvey/convey"
)

func TestFileDisplay(t *testing.T) {
	Convey("Given a file display", t, func() {
		dir := filepath.Join(t.TempDir(), "figures")
		fd, err := NewFileDisplay(dir, zerolog.Nop())
		So(err, ShouldBeNil)
		tensor := blackjack.Generate(blackjack.STATE_VALUE)

		Convey("Plotting writes both figures in order", func() {
			opts := plot.DefaultOptions()
			opts.Mode = plot.SURFACE
			err := fd.Run(context.Background(), func(ctx context.Context) error {
				return plot.PlotStateData(ctx, fd, tensor, opts)
			})
			So(err, ShouldBeNil)
			So(fd.Written(), ShouldResemble, []string{
				filepath.Join(dir, "01-surface-noace.svg"),
				filepath.Join(dir, "02-surface-ace.svg"),
			})

			data, err := os.ReadFile(fd.Written()[1])
			So(err, ShouldBeNil)
			So(string(data), ShouldContainSubstring, "Usable Ace")
			So(string(data), ShouldContainSubstring, "V* (state value)")
		})

		Convey("Nothing is written once the context is done", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			err := plot.PlotStateData(ctx, fd, tensor, plot.DefaultOptions())
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
			So(fd.Written(), ShouldBeEmpty)
		})
	})
}

func TestBrowserDisplay(t *testing.T) {
	Convey("A page loaded before any figure is shown has the figure's elements", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		bd, err := NewBrowserDisplay(ctx, "127.0.0.1:0", zerolog.Nop())
		So(err, ShouldBeNil)

		ts := httptest.NewServer(bd.server.Handler())
		defer ts.Close()
		resp, err := http.Get(ts.URL + "/")
		So(err, ShouldBeNil)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		So(err, ShouldBeNil)

		page := string(body)
		So(page, ShouldContainSubstring, `id="figure-svg"`)
		So(page, ShouldContainSubstring, "Waiting for a figure")
		So(page, ShouldContainSubstring, `id="`+FIGURE_VIEW+"-"+plot.QuadId(0, 0)+`"`)
		So(strings.Count(page, "<polygon"), ShouldBeGreaterThan, 0)
	})

	Convey("Given a browser display with a connected page", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		bd, err := NewBrowserDisplay(ctx, "127.0.0.1:0", zerolog.Nop())
		So(err, ShouldBeNil)

		ts := httptest.NewServer(bd.server.Handler())
		defer ts.Close()
		conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
		So(err, ShouldBeNil)
		defer conn.Close()

		fig := plot.BuildFigure(blackjack.Generate(blackjack.PROB), blackjack.NO_USABLE_ACE, plot.DefaultOptions())
		shown := make(chan error, 1)
		go func() { shown <- bd.Show(ctx, fig) }()

		Convey("The figure is pushed to the page and Show returns on dismissal", func() {
			title := ""
			So(conn.SetReadDeadline(time.Now().Add(3*time.Second)), ShouldBeNil)
			for title == "" {
				var updates []fastview.EleUpdate
				if err := conn.ReadJSON(&updates); err != nil {
					break
				}
				for _, update := range updates {
					if update.EleId == FIGURE_VIEW+"-title" {
						title = update.Ops[0].Value
					}
				}
			}
			So(title, ShouldEqual, "No Usable Ace")

			msg, _ := json.Marshal(fastview.ClientMessage{Kind: fastview.DISMISS})
			So(conn.WriteMessage(websocket.TextMessage, msg), ShouldBeNil)
			select {
			case err := <-shown:
				So(err, ShouldBeNil)
			case <-time.After(3 * time.Second):
				So("Show did not return", ShouldBeEmpty)
			}
		})

		Convey("A page loaded while showing renders the current figure", func() {
			// Show sets the figure before pushing it, so once an update arrives the page has it too.
			So(conn.SetReadDeadline(time.Now().Add(3*time.Second)), ShouldBeNil)
			var updates []fastview.EleUpdate
			So(conn.ReadJSON(&updates), ShouldBeNil)

			resp, err := http.Get(ts.URL + "/")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			body, err := io.ReadAll(resp.Body)
			So(err, ShouldBeNil)
			So(string(body), ShouldContainSubstring, `id="figure-svg"`)
			So(string(body), ShouldContainSubstring, "No Usable Ace")
			So(string(body), ShouldContainSubstring, `id="dismiss"`)
		})

		Convey("Show returns when the context ends", func() {
			cancel()
			select {
			case err := <-shown:
				So(err, ShouldEqual, context.Canceled)
			case <-time.After(3 * time.Second):
				So("Show did not return", ShouldBeEmpty)
			}
		})
	})
}
