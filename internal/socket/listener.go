// Package socket subscribes to the commitment push channel
package socket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/tgienger/deck/internal/api"
	"github.com/tgienger/deck/internal/errors"
	"github.com/tgienger/deck/internal/logging"
	"github.com/tgienger/deck/internal/models"
)

const eventPrefix = "commitment."

// Handler receives each recognised event. It runs on the listener's read goroutine and must not call Close.
type Handler func(models.CommitmentEvent, models.Commitment)

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Listener holds at most one open connection to the push channel
type Listener struct {
	url     string
	handler Handler
	tokens  api.TokenSource
	dialer  *websocket.Dialer
	log     *logrus.Entry

	mu   sync.Mutex
	conn *websocket.Conn
	done chan struct{}
}

// Option configures a Listener
type Option func(*Listener)

// WithTokenSource sends the bearer token on the upgrade request
func WithTokenSource(ts api.TokenSource) Option {
	return func(l *Listener) { l.tokens = ts }
}

// WithDialer replaces the websocket dialer
func WithDialer(d *websocket.Dialer) Option {
	return func(l *Listener) { l.dialer = d }
}

// URL derives the websocket address from the API origin: http becomes ws and https becomes wss
func URL(origin, namespace string) (string, error) {
	u, err := url.Parse(strings.TrimRight(origin, "/"))
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeConfigInvalid, "invalid API origin")
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", errors.New(errors.ErrCodeConfigInvalid, "API origin must be http or https").
			WithDetail("origin", origin)
	}
	if !strings.HasPrefix(namespace, "/") {
		namespace = "/" + namespace
	}
	u.Path = strings.TrimRight(u.Path, "/") + namespace
	return u.String(), nil
}

// New creates a closed listener for the websocket address
func New(wsURL string, handler Handler, opts ...Option) *Listener {
	l := &Listener{
		url:     wsURL,
		handler: handler,
		dialer:  &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		log:     logging.NewLogger("socket"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Open dials the channel and starts forwarding events. Opening an open listener is a no-op.
// Cancelling ctx closes the connection.
func (l *Listener) Open(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn != nil {
		return nil
	}

	header := http.Header{}
	if l.tokens != nil {
		if token := l.tokens.Token(); token != "" {
			header.Set("Authorization", "Bearer "+token)
		}
	}

	conn, _, err := l.dialer.DialContext(ctx, l.url, header)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeNetwork, "failed to connect to push channel").
			WithDetail("url", l.url)
	}
	l.conn = conn
	l.done = make(chan struct{})
	l.log.WithField("url", l.url).Info("Push channel connected")

	go l.read(conn, l.done)
	go func(done chan struct{}) {
		select {
		case <-ctx.Done():
			_ = l.closeIf(done)
		case <-done:
		}
	}(l.done)
	return nil
}

// Close closes the connection and clears the reference. Closing a closed listener is a no-op.
func (l *Listener) Close() error {
	return l.closeIf(nil)
}

// closeIf closes the connection whose reader signals want. A connection opened later is left
// alone. A nil want matches any connection.
func (l *Listener) closeIf(want chan struct{}) error {
	l.mu.Lock()
	conn, done := l.conn, l.done
	if conn == nil || (want != nil && done != want) {
		l.mu.Unlock()
		return nil
	}
	l.conn, l.done = nil, nil
	l.mu.Unlock()

	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	err := conn.Close()
	<-done
	return err
}

// Connected reports whether a connection is held
func (l *Listener) Connected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.conn != nil
}

// Done returns a channel closed when the current connection stops reading, or nil when closed
func (l *Listener) Done() <-chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.done
}

func (l *Listener) read(conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				l.log.WithError(err).Debug("Push channel read stopped")
			}
			l.forget(conn)
			return
		}
		l.dispatch(data)
	}
}

// forget drops the reference when the server side went away
func (l *Listener) forget(conn *websocket.Conn) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn == conn {
		l.conn, l.done = nil, nil
		_ = conn.Close()
	}
}

func (l *Listener) dispatch(data []byte) {
	event, c, ok := Decode(data)
	if !ok {
		return
	}
	l.log.WithFields(logrus.Fields{"event": event, "id": c.ID}).Debug("Push event")
	if l.handler != nil {
		l.handler(event, c)
	}
}

// Decode parses a push frame. ok is false for malformed frames and unknown events.
func Decode(data []byte) (models.CommitmentEvent, models.Commitment, bool) {
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		return "", models.Commitment{}, false
	}
	if !strings.HasPrefix(f.Event, eventPrefix) {
		return "", models.Commitment{}, false
	}
	event := models.CommitmentEvent(strings.TrimPrefix(f.Event, eventPrefix))
	if !event.Valid() {
		return "", models.Commitment{}, false
	}
	var c models.Commitment
	if len(f.Data) > 0 {
		if err := json.Unmarshal(f.Data, &c); err != nil {
			return "", models.Commitment{}, false
		}
	}
	if c.ID == "" {
		return "", models.Commitment{}, false
	}
	return event, c, true
}
