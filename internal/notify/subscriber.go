package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"operator-console/internal/backend"

	"github.com/gorilla/websocket"
)

// EventUpdateCall carries an updated call record on the operator channel.
const EventUpdateCall = "update-call"

// envelope is the wire frame on the push channel.
type envelope struct {
	Event   string          `json:"event"`
	Channel string          `json:"channel,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Subscriber maintains one private-channel subscription for live call
// updates. Delivery is at most once per connected session: no buffering, no
// replay of events missed while disconnected. Reconnection is the caller's
// decision.
type Subscriber struct {
	url     string
	channel string
	tokens  backend.TokenSource
	dialer  *websocket.Dialer
	log     *slog.Logger
}

// New builds a subscriber for the push endpoint at url. Channel
// authorization is delegated upstream: the dial carries the operator's
// bearer credential and the endpoint decides whether the private channel may
// be joined.
func New(url, channel string, tokens backend.TokenSource, log *slog.Logger) *Subscriber {
	if log == nil {
		log = slog.Default()
	}
	return &Subscriber{
		url:     url,
		channel: channel,
		tokens:  tokens,
		dialer:  websocket.DefaultDialer,
		log:     log,
	}
}

// Subscribe dials the push endpoint, joins the private channel and invokes
// fn for every matching event until ctx is canceled or the connection drops.
// It blocks for the life of the subscription.
func (s *Subscriber) Subscribe(ctx context.Context, event string, fn func(backend.Call)) error {
	header := http.Header{}
	if tok := s.tokens.AccessToken(); tok != "" {
		header.Set("Authorization", "Bearer "+tok)
	}

	conn, resp, err := s.dialer.DialContext(ctx, s.url, header)
	if err != nil {
		if resp != nil && (resp.StatusCode == 401 || resp.StatusCode == 403) {
			return fmt.Errorf("notify: channel authorization: %w", backend.ErrUnauthorized)
		}
		return fmt.Errorf("notify: dial %s: %w", s.url, err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(envelope{Event: "subscribe", Channel: s.channel}); err != nil {
		return fmt.Errorf("notify: subscribe %s: %w", s.channel, err)
	}
	s.log.Info("push channel subscribed", "channel", s.channel, "event", event)

	// Unblock the read loop when ctx ends.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		var env envelope
		if err := conn.ReadJSON(&env); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("notify: read: %w", err)
		}
		if env.Event != event {
			continue
		}
		if env.Channel != "" && env.Channel != s.channel {
			continue
		}
		var call backend.Call
		if err := json.Unmarshal(env.Data, &call); err != nil {
			s.log.Warn("malformed push payload dropped", "event", env.Event, "err", err)
			continue
		}
		fn(call)
	}
}
