package root_view

import (
	"context"
	"html/template"
	"time"

	"stateplot/server/fastview"

	channerics "github.com/niceyeti/channerics/channels"
)

// batchRate is the window within which ele-updates for the same element are coalesced.
const batchRate = time.Millisecond * 20

// RootView is the main page's index.html: the container for all the view components,
// the wiring for their channels, and the client bootstrap code.
type RootView struct {
	title       string
	dismissable bool
	views       []fastview.ViewComponent
	updates     <-chan []fastview.EleUpdate
}

// NewRootView creates the main page from the passed views. A dismissable page shows a button
// by which the viewer tells the server it is done with the displayed figure.
func NewRootView(
	ctx context.Context,
	title string,
	dismissable bool,
	views []fastview.ViewComponent,
) *RootView {
	return &RootView{
		title:       title,
		dismissable: dismissable,
		views:       views,
		updates:     fanIn(ctx.Done(), views),
	}
}

// Updates returns the main ele-update channel for all the views.
func (rv *RootView) Updates() <-chan []fastview.EleUpdate {
	return rv.updates
}

// Parse builds the main page's template, with websocket bootstrap code, and returns its name.
// It also sets up the func-map that child components may depend on.
func (rv *RootView) Parse(
	parent *template.Template,
) (name string, err error) {
	rt := parent.Funcs(
		template.FuncMap{
			"add":  func(i, j int) int { return i + j },
			"sub":  func(i, j int) int { return i - j },
			"mult": func(i, j int) int { return i * j },
			"div":  func(i, j int) int { return i / j },
		})

	var bodySpec string
	for _, vc := range rv.views {
		tname, parseErr := vc.Parse(rt)
		if parseErr != nil {
			return "", parseErr
		}
		bodySpec += `{{ template "` + tname + `" . }}`
	}

	var dismissSpec string
	if rv.dismissable {
		dismissSpec = `<button id="dismiss" type="button" onclick="dismiss()">Dismiss</button>`
	}

	// The main template bootstraps the rest: sets up client websocket and updates, aggregates views.
	name = "mainpage"
	indexTemplate := `
	{{ define "` + name + `" }}
	<!DOCTYPE html>
	<html>
		<head>
			<title>` + template.HTMLEscapeString(rv.title) + `</title>
			<link rel="icon" href="data:,">
			<!--This is the client bootstrap code by which the server pushes new data to the view via websocket.-->
			<script>
				const ws = new WebSocket("ws://" + window.location.host + "/ws");
				ws.onopen = function (event) {
					console.log("Web socket opened")
				};

				ws.onerror = function (event) {
					console.log('WebSocket error: ', event);
				};

				// When the server pushes view updates, find these eles and update them.
				ws.onmessage = function (event) {
					const items = JSON.parse(event.data)
					for (const update of items) {
						const ele = document.getElementById(update.EleId)
						if (ele === null) {
							continue
						}
						for (const op of update.Ops) {
							if (op.Key === "textContent") {
								ele.textContent = op.Value;
							} else {
								ele.setAttribute(op.Key, op.Value)
							}
						}
					}
				}

				function dismiss() {
					ws.send(JSON.stringify({kind: "dismiss"}))
				}
			</script>
		</head>
		<body>
		` + dismissSpec + `
		` + bodySpec + `
		</body></html>
	{{ end }}
	`

	_, err = rt.Parse(indexTemplate)
	return
}

// fanIn aggregates the views' ele-update channels into a single channel and throttles its output.
func fanIn(
	done <-chan struct{},
	views []fastview.ViewComponent,
) <-chan []fastview.EleUpdate {
	inputs := make([]<-chan []fastview.EleUpdate, len(views))
	for i, view := range views {
		inputs[i] = view.Updates()
	}
	return batchify(
		done,
		channerics.Merge(done, inputs...),
		batchRate)
}

// batchify batches within the passed time frame before sending, over-writing previously
// received values for the same ele-id. This ensures that redundant updates for the
// same ele-id are not sent, and only the latest values are sent.
// A pending batch is flushed when the next update arrives or after the rate elapses, so the
// last figure of a burst is never held back indefinitely.
func batchify(
	done <-chan struct{},
	source <-chan []fastview.EleUpdate,
	rate time.Duration,
) <-chan []fastview.EleUpdate {
	output := make(chan []fastview.EleUpdate)

	go func() {
		defer close(output)

		data := map[string]fastview.EleUpdate{}
		order := []string{}
		var flush <-chan time.Time
		last := time.Now()

		add := func(updates []fastview.EleUpdate) {
			for _, update := range updates {
				if _, seen := data[update.EleId]; !seen {
					order = append(order, update.EleId)
				}
				// Intentionally overwrites pre-existing values for an ele-id within this batch's time frame.
				data[update.EleId] = update
			}
		}

		for {
			if len(data) > 0 && time.Since(last) >= rate {
				select {
				case output <- slicedVals(data, order):
					data = map[string]fastview.EleUpdate{}
					order = order[:0]
					last = time.Now()
					flush = nil
					continue
				case updates, ok := <-source:
					if !ok {
						return
					}
					add(updates)
					continue
				case <-done:
					return
				}
			}

			select {
			case updates, ok := <-source:
				if !ok {
					return
				}
				add(updates)
				if flush == nil && len(data) > 0 {
					flush = time.After(rate)
				}
			case <-flush:
				flush = nil
			case <-done:
				return
			}
		}
	}()

	return output
}

// slicedVals returns the values of a map as a slice, in the passed key order.
func slicedVals[T1 comparable, T2 any](mp map[T1]T2, order []T1) (sliced []T2) {
	for _, k := range order {
		sliced = append(sliced, mp[k])
	}
	return
}
