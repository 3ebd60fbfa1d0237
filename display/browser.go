package display

import (
	"context"
	"sync"

	"stateplot/blackjack"
	"stateplot/plot"
	"stateplot/server"
	"stateplot/server/fastview"
	"stateplot/server/figure_views"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// FIGURE_VIEW is the view id of the figure shown by a BrowserDisplay.
const FIGURE_VIEW = "figure"

// BrowserDisplay serves a page showing one figure at a time. Show pushes the figure to the page
// over its websocket and blocks until the viewer presses the page's Dismiss button.
type BrowserDisplay struct {
	addr    string
	server  *server.Server
	figures chan *plot.Figure
	logger  zerolog.Logger

	mu     sync.Mutex
	latest *plot.Figure
}

// placeholder is rendered until the first Show, so the page carries every element id that
// later figure updates target.
func placeholder() *plot.Figure {
	fig := plot.BuildFigure(&blackjack.Tensor{}, blackjack.NO_USABLE_ACE, plot.DefaultOptions())
	fig.Title = "Waiting for a figure"
	return fig
}

func NewBrowserDisplay(
	ctx context.Context,
	addr string,
	logger zerolog.Logger,
) (*BrowserDisplay, error) {
	bd := &BrowserDisplay{
		addr:    addr,
		figures: make(chan *plot.Figure, 1),
		logger:  logger,
		latest:  placeholder(),
	}

	view := figure_views.NewFigureView(FIGURE_VIEW, ctx.Done(), bd.figures)
	srv, err := server.NewServer(ctx, addr, logger, server.Page{
		Title:       "State values",
		Dismissable: true,
		Views:       []fastview.ViewComponent{view},
		Figures:     bd.current,
	})
	if err != nil {
		return nil, err
	}
	bd.server = srv
	return bd, nil
}

// current returns the figure being shown, or the placeholder, from which the page is rendered on load.
func (bd *BrowserDisplay) current() map[string]*plot.Figure {
	bd.mu.Lock()
	defer bd.mu.Unlock()
	return map[string]*plot.Figure{FIGURE_VIEW: bd.latest}
}

// Show displays the figure and waits for the viewer to dismiss it.
func (bd *BrowserDisplay) Show(ctx context.Context, fig *plot.Figure) error {
	// Dismissals sent before this figure was shown are stale.
	for drained := false; !drained; {
		select {
		case <-bd.server.Messages():
		default:
			drained = true
		}
	}

	bd.mu.Lock()
	bd.latest = fig
	bd.mu.Unlock()

	// Only the latest figure matters to the page; replace one not yet taken by the view.
	select {
	case bd.figures <- fig:
	default:
		select {
		case <-bd.figures:
		default:
		}
		bd.figures <- fig
	}
	bd.logger.Info().Str("title", fig.Title).Str("url", "http://"+bd.addr).Msg("showing figure, dismiss it in the browser")

	for {
		select {
		case msg := <-bd.server.Messages():
			if msg.Kind == fastview.DISMISS {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Run serves the page while drive runs, and shuts the server down once it returns.
func (bd *BrowserDisplay) Run(ctx context.Context, drive func(context.Context) error) error {
	serveCtx, stop := context.WithCancel(ctx)
	defer stop()

	group, groupCtx := errgroup.WithContext(serveCtx)
	group.Go(func() error {
		return bd.server.Serve(groupCtx)
	})
	group.Go(func() error {
		defer stop()
		return drive(groupCtx)
	})
	return group.Wait()
}
