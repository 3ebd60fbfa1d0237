package server

import (
	"context"
	"net/http"

	"stateplot/blackjack"
	"stateplot/plot"
	"stateplot/server/fastview"
	"stateplot/server/figure_views"

	channerics "github.com/niceyeti/channerics/channels"
	"github.com/rs/zerolog"
)

// Maximum accepted size of a PUT /tensor body.
const maxTensorBytes = 1 << 20

// AceFigures are the figures of both usable-ace flags.
type AceFigures = [blackjack.NUM_ACE_FLAGS]*plot.Figure

// AceViewId returns the view id of the figure for the passed usable-ace flag.
func AceViewId(ua int) string {
	if ua == blackjack.USABLE_ACE {
		return "usable_ace"
	}
	return "no_usable_ace"
}

// TensorFeed publishes a live tensor: writers replace it through the server, and both ace
// figures of the page follow its changes.
type TensorFeed struct {
	tensor  *blackjack.LiveTensor
	opts    plot.Options
	changed chan struct{}
}

func NewTensorFeed(tensor *blackjack.LiveTensor, opts plot.Options) *TensorFeed {
	return &TensorFeed{
		tensor:  tensor,
		opts:    opts,
		changed: make(chan struct{}, 1),
	}
}

// Notify signals that the tensor changed. It never blocks: pending notifications coalesce,
// and the snapshot taken for them is taken after the latest change.
func (feed *TensorFeed) Notify() {
	select {
	case feed.changed <- struct{}{}:
	default:
	}
}

// Store replaces the tensor and notifies the page.
func (feed *TensorFeed) Store(t *blackjack.Tensor) {
	feed.tensor.Store(t)
	feed.Notify()
}

// Figures returns the figures of the current tensor, keyed by view id.
func (feed *TensorFeed) Figures() map[string]*plot.Figure {
	figs := plot.BuildFigures(feed.tensor.Snapshot(), feed.opts)
	figures := map[string]*plot.Figure{}
	for ua, fig := range figs {
		figures[AceViewId(ua)] = fig
	}
	return figures
}

// snapshots emits a snapshot of the tensor per coalesced change notification.
func (feed *TensorFeed) snapshots(ctx context.Context) <-chan *blackjack.Tensor {
	output := make(chan *blackjack.Tensor)
	var changed <-chan struct{} = feed.changed
	go func() {
		defer close(output)
		for range channerics.OrDone(ctx.Done(), changed) {
			select {
			case output <- feed.tensor.Snapshot():
			case <-ctx.Done():
				return
			}
		}
	}()
	return output
}

// aceView builds the view of one of the two ace figures.
func aceView(ua int) fastview.ViewBuilderFunc[AceFigures] {
	return func(done <-chan struct{}, figs <-chan AceFigures) fastview.ViewComponent {
		return figure_views.NewFigureView(
			AceViewId(ua),
			done,
			channerics.Convert(done, figs, func(pair AceFigures) *plot.Figure {
				return pair[ua]
			}))
	}
}

// Page builds the page showing both ace figures, updated whenever the feed is notified.
func (feed *TensorFeed) Page(ctx context.Context, title string) (page Page, err error) {
	builder := fastview.NewViewBuilder[*blackjack.Tensor, AceFigures]().
		WithModel(feed.snapshots(ctx), func(t *blackjack.Tensor) AceFigures {
			return plot.BuildFigures(t, feed.opts)
		}).
		WithContext(ctx)
	for ua := 0; ua < blackjack.NUM_ACE_FLAGS; ua++ {
		builder = builder.WithView(aceView(ua))
	}

	var views []fastview.ViewComponent
	if views, err = builder.Build(); err != nil {
		return
	}

	page = Page{
		Title:   title,
		Views:   views,
		Figures: feed.Figures,
	}
	return
}

// getTensor writes the current tensor as a StateTensor yaml document.
func (server *Server) getTensor(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	if err := blackjack.Encode(w, server.feed.tensor.Snapshot()); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("encode tensor")
	}
}

// putTensor replaces the tensor from a yaml or json body. Bodies of the wrong shape are rejected
// and the tensor is left unchanged.
func (server *Server) putTensor(w http.ResponseWriter, r *http.Request) {
	t, err := blackjack.Decode(http.MaxBytesReader(w, r.Body, maxTensorBytes))
	if err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("rejected tensor")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	server.feed.Store(t)
	w.WriteHeader(http.StatusNoContent)
}
