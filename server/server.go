package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"time"

	"stateplot/plot"
	"stateplot/server/fastview"
	"stateplot/server/figure_views"
	"stateplot/server/root_view"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

const (
	shutdownGracePeriod = 5 * time.Second
	// Page messages are few (dismissals), a small buffer suffices.
	messageBuffer = 8
)

// Page is the content served at the root: its views and the figures they show.
type Page struct {
	Title string
	// Dismissable pages show a Dismiss button whose clicks are delivered on Server.Messages.
	Dismissable bool
	Views       []fastview.ViewComponent
	// Figures returns the current figure of every view, keyed by view id. The page is rendered
	// from these, and later figures arrive through the views' update chans.
	Figures func() map[string]*plot.Figure
}

// Server serves a single page and its websocket. The page's ele-update channel is consumed by
// whichever websocket client is connected; a second tab competes with the first for updates.
type Server struct {
	addr     string
	logger   zerolog.Logger
	page     Page
	rootView *root_view.RootView
	index    *template.Template
	indexFn  string
	messages chan fastview.ClientMessage
	feed     *TensorFeed
}

// NewServer initializes the page's views and returns a server. The page template is parsed
// here, so template errors surface before serving.
func NewServer(
	ctx context.Context,
	addr string,
	logger zerolog.Logger,
	page Page,
) (*Server, error) {
	if page.Figures == nil {
		return nil, errors.New("page has no figure source")
	}

	rootView := root_view.NewRootView(ctx, page.Title, page.Dismissable, page.Views)
	index := template.New("index.html")
	name, err := rootView.Parse(index)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	return &Server{
		addr:     addr,
		logger:   logger,
		page:     page,
		rootView: rootView,
		index:    index,
		indexFn:  name,
		messages: make(chan fastview.ClientMessage, messageBuffer),
	}, nil
}

// WithTensorFeed exposes the feed's tensor for reading and writing at /tensor.
func (server *Server) WithTensorFeed(feed *TensorFeed) *Server {
	server.feed = feed
	return server
}

// Messages returns the messages sent by the page, such as dismissals.
func (server *Server) Messages() <-chan fastview.ClientMessage {
	return server.messages
}

// Handler returns the server's routes, wrapped in request logging.
func (server *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/", server.serveIndex).Methods(http.MethodGet)
	router.HandleFunc("/ws", server.serveWebsocket).Methods(http.MethodGet)
	router.HandleFunc("/figures/{view:[A-Za-z0-9_]+}.svg", server.serveFigure).Methods(http.MethodGet)
	if server.feed != nil {
		router.HandleFunc("/tensor", server.getTensor).Methods(http.MethodGet)
		router.HandleFunc("/tensor", server.putTensor).Methods(http.MethodPut)
	}
	router.Use(requestLogger(server.logger))
	return router
}

// Serve listens until ctx is done, then shuts down gracefully. Request contexts derive from ctx,
// so open websockets are torn down with it.
func (server *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              server.addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errs := make(chan error, 1)
	go func() {
		server.logger.Info().Str("addr", server.addr).Msg("serving")
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// scenes projects the page's current figures.
func (server *Server) scenes() map[string]*plot.Scene {
	scenes := map[string]*plot.Scene{}
	for id, fig := range server.page.Figures() {
		if fig != nil {
			scenes[id] = plot.NewScene(fig)
		}
	}
	return scenes
}

// Serve the index.html main page.
func (server *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	if err := server.index.ExecuteTemplate(w, server.indexFn, server.scenes()); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("render index")
	}
}

// serveWebsocket publishes view updates to the client and receives its messages until either
// side closes.
func (server *Server) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())
	cli, err := fastview.NewClient(server.rootView.Updates(), server.messages, *logger, w, r)
	if err != nil {
		logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	logger.Debug().Msg("websocket opened")
	if err = cli.Sync(); err != nil {
		logger.Warn().Err(err).Msg("websocket closed")
		return
	}
	logger.Debug().Msg("websocket closed")
}

// serveFigure renders a view's current figure as a standalone svg.
func (server *Server) serveFigure(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["view"]
	fig, ok := server.page.Figures()[id]
	if !ok || fig == nil {
		http.Error(w, fmt.Sprintf("no figure %q", id), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	if err := figure_views.WriteSVG(w, plot.NewScene(fig)); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("view", id).Msg("render figure")
	}
}
