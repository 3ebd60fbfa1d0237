package fastview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	channerics "github.com/niceyeti/channerics/channels"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 1 * time.Second
	// Maximum message size allowed from peer.
	maxMessageSize = 8192

	// The rate at which ele-updates will be sent to the client, so as not to overburden.
	pubResolution  = time.Millisecond * 100
	pingResolution = time.Millisecond * 200
	// The number of pings to tolerate losing before concluding the peer is gone.
	pongWait = pingResolution * 4
)

var upgrader = websocket.Upgrader{}

// Client publishes view updates unidirectionally to a web page via websocket, and
// forwards the page's messages (such as dismissing the displayed figure) to the server.
type Client[T any] struct {
	updates  <-chan T
	messages chan<- ClientMessage
	ws       *websock
	rootCtx  context.Context
	logger   zerolog.Logger
}

// NewClient upgrades the request to a websocket and returns a publisher of the passed updates.
// Items in the updates chan should represent idempotent update objects, such that intervening
// updates can be discarded when they are received too quickly (> pub-rate), and only sending
// the latest update is sufficient to specify the new client state.
// Messages received from the page are sent on messages without blocking, so it should be buffered;
// a nil chan discards them.
func NewClient[T any](
	updates <-chan T,
	messages chan<- ClientMessage,
	logger zerolog.Logger,
	w http.ResponseWriter,
	r *http.Request,
) (*Client[T], error) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		return nil, err
	}
	ws.SetReadLimit(maxMessageSize)

	return &Client[T]{
		updates:  updates,
		messages: messages,
		ws:       newWebSocket(ws),
		rootCtx:  r.Context(),
		logger:   logger,
	}, nil
}

// Sync starts routines to publish incoming updates, read page messages and check liveness.
// Updates are published at a compiled rate; of those received faster than that, only the latest is sent.
// Sync returns nil upon client disconnect or an error if an unexpected error occurred.
func (cli *Client[T]) Sync() error {
	// The pong handler is installed before the reader starts, since it runs on the reader's goroutine.
	pong := make(chan struct{}, 1)
	cli.ws.Conn().SetPongHandler(func(_ string) error {
		select {
		case pong <- struct{}{}:
		default:
		}
		return nil
	})

	group, groupCtx := errgroup.WithContext(cli.rootCtx)

	// Closing the socket is what unblocks a pending read once any routine has finished in error.
	group.Go(func() error {
		<-groupCtx.Done()
		cli.ws.Close()
		return nil
	})

	group.Go(func() error {
		return cli.readMessages(groupCtx)
	})
	group.Go(func() error {
		return cli.pingPong(groupCtx, pong)
	})
	group.Go(func() error {
		return cli.publish(groupCtx)
	})

	err := group.Wait()
	if isClosure(err) {
		return nil
	}
	return err
}

var ErrPongDeadlineExceeded error = errors.New("client disconnect, pong deadline exceeded")

// pingPong runs the client liveness check.
// NOTE: This function requires that readMessages is running to ensure the pong handler is called.
func (cli *Client[T]) pingPong(ctx context.Context, pong <-chan struct{}) error {
	pinger := channerics.NewTicker(ctx.Done(), pingResolution)
	lastPong := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-pinger:
			if time.Since(lastPong) > pongWait {
				return ErrPongDeadlineExceeded
			}

			if err := cli.ping(ctx); err != nil {
				return err
			}
		case <-pong:
			lastPong = time.Now()
		}
	}
}

func (cli *Client[T]) ping(ctx context.Context) error {
	return cli.ws.Write(
		ctx,
		func(ws *websocket.Conn) (err error) {
			if err = ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				if isError(err) {
					err = fmt.Errorf("ping failed: %T %w", err, err)
				}
			}
			return
		})
}

// readMessages monitors for messages from the page and forwards them.
// Errors returned by websocket Read methods are permanent, hence any error
// must trigger full teardown.
func (cli *Client[T]) readMessages(ctx context.Context) error {
	for {
		var data []byte
		err := cli.ws.Read(
			ctx,
			func(ws *websocket.Conn) (readErr error) {
				_, data, readErr = ws.ReadMessage()
				return
			})
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}

		msg := ClientMessage{}
		if err = json.Unmarshal(data, &msg); err != nil {
			cli.logger.Warn().Err(err).Msg("dropping malformed client message")
			continue
		}
		if cli.messages == nil {
			continue
		}

		// Never block the reader, which also services pongs.
		select {
		case cli.messages <- msg:
		default:
			cli.logger.Warn().Str("kind", msg.Kind).Msg("dropping client message, no receiver")
		}
	}
}

// publish sends updates to the page. Updates arriving within pubResolution of the last send are
// held back, and only the latest of them is sent once the resolution has elapsed.
func (cli *Client[T]) publish(ctx context.Context) error {
	lastSync := time.Time{}
	var pending *T
	var flush <-chan time.Time

	send := func(updates T) error {
		lastSync = time.Now()
		return cli.ws.Write(
			ctx,
			func(ws *websocket.Conn) (writeErr error) {
				if writeErr = ws.SetWriteDeadline(time.Now().Add(writeWait)); writeErr != nil {
					writeErr = fmt.Errorf("failed to set deadline: %T %w", writeErr, writeErr)
					return
				}

				if writeErr = ws.WriteJSON(updates); writeErr != nil {
					if isError(writeErr) {
						writeErr = fmt.Errorf("publish failed: %T %w", writeErr, writeErr)
					}
				}
				return
			})
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case updates, ok := <-cli.updates:
			// Graceful input channel closure
			if !ok {
				return nil
			}
			if wait := pubResolution - time.Since(lastSync); wait > 0 {
				pending = &updates
				if flush == nil {
					flush = time.After(wait)
				}
				break
			}
			if err := send(updates); err != nil {
				return err
			}
		case <-flush:
			flush = nil
			if pending == nil {
				break
			}
			updates := *pending
			pending = nil
			if err := send(updates); err != nil {
				return err
			}
		}
	}
}

func isError(err error) bool {
	return err != nil && websocket.IsUnexpectedCloseError(
		err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway)
}

func isClosure(err error) bool {
	return err != nil && websocket.IsCloseError(
		err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway)
}

// ErrSockCongestion indicates there are too many waiters on the socket for a given op.
var ErrSockCongestion = errors.New("sock op failed due to congestion")

const (
	opDeadline       = time.Second
	closeGracePeriod = 100 * time.Millisecond
)

// websock merely serializes reads and writes to the websocket, whose requirements
// are that there may be only one concurrent reader and writer at a time.
type websock struct {
	// These are merely mutexes, but channel semantics are cleaner.
	readSem  chan struct{}
	writeSem chan struct{}
	ws       *websocket.Conn
}

func newWebSocket(ws *websocket.Conn) *websock {
	return &websock{
		readSem:  make(chan struct{}, 1),
		writeSem: make(chan struct{}, 1),
		ws:       ws,
	}
}

// Conn returns the underlying websocket.
// This should only be used non-concurrently for setup, e.g. adding handlers.
func (sock *websock) Conn() *websocket.Conn {
	return sock.ws
}

// Close sends a close frame and closes the websocket. Closing the connection unblocks any
// pending reader, so only the write side is serialized here.
func (sock *websock) Close() {
	sock.writeSem <- struct{}{}
	defer func() { <-sock.writeSem }()

	_ = sock.ws.SetWriteDeadline(time.Now().Add(writeWait))
	_ = sock.ws.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	time.Sleep(closeGracePeriod)
	sock.ws.Close()
}

// Read serializes read operations on the internal web socket.
// A read blocks until a message arrives, so unlike writes it is not bounded by opDeadline;
// the ping-pong check tears the connection down if the peer disappears.
func (sock *websock) Read(
	ctx context.Context,
	readFn func(*websocket.Conn) error,
) error {
	select {
	case <-ctx.Done():
		return nil
	case sock.readSem <- struct{}{}:
		defer func() { <-sock.readSem }()
		return readFn(sock.ws)
	}
}

// Write serializes write operations to the websocket.
func (sock *websock) Write(
	ctx context.Context,
	writeFn func(*websocket.Conn) error,
) error {
	select {
	case <-ctx.Done():
		return nil
	case sock.writeSem <- struct{}{}:
		defer func() { <-sock.writeSem }()
		return writeFn(sock.ws)
	case <-time.After(opDeadline):
		return ErrSockCongestion
	}
}
