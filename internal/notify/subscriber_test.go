package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"operator-console/internal/backend"

	"github.com/gorilla/websocket"
)

type staticTokens string

func (s staticTokens) AccessToken() string { return string(s) }

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestSubscribe_DeliversMatchingEvents(t *testing.T) {
	upgrader := websocket.Upgrader{}
	var gotAuth string
	var gotSubscribe envelope

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		if err := conn.ReadJSON(&gotSubscribe); err != nil {
			t.Errorf("read subscribe: %v", err)
			return
		}

		// An unrelated event first; it must be skipped.
		_ = conn.WriteJSON(envelope{Event: "ping"})

		raw, _ := json.Marshal(backend.Call{ID: "c42", IsArchived: true})
		_ = conn.WriteJSON(envelope{Event: EventUpdateCall, Channel: "private-operator-calls", Data: raw})

		// Hold the connection open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := New(wsURL(srv), "private-operator-calls", staticTokens("tok-9"), nil)
	received := make(chan backend.Call, 1)
	done := make(chan error, 1)
	go func() {
		done <- sub.Subscribe(ctx, EventUpdateCall, func(c backend.Call) { received <- c })
	}()

	select {
	case call := <-received:
		if call.ID != "c42" || !call.IsArchived {
			t.Fatalf("unexpected payload: %+v", call)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no event delivered")
	}

	if gotAuth != "Bearer tok-9" {
		t.Fatalf("expected bearer on dial, got %q", gotAuth)
	}
	if gotSubscribe.Event != "subscribe" || gotSubscribe.Channel != "private-operator-calls" {
		t.Fatalf("unexpected subscribe frame: %+v", gotSubscribe)
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("subscribe did not stop on cancel")
	}
}

func TestSubscribe_SkipsForeignChannels(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		var sub envelope
		_ = conn.ReadJSON(&sub)

		raw, _ := json.Marshal(backend.Call{ID: "foreign"})
		_ = conn.WriteJSON(envelope{Event: EventUpdateCall, Channel: "private-someone-else", Data: raw})

		raw, _ = json.Marshal(backend.Call{ID: "mine"})
		_ = conn.WriteJSON(envelope{Event: EventUpdateCall, Channel: "private-operator-calls", Data: raw})

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := New(wsURL(srv), "private-operator-calls", staticTokens("t"), nil)
	received := make(chan backend.Call, 2)
	go func() {
		_ = sub.Subscribe(ctx, EventUpdateCall, func(c backend.Call) { received <- c })
	}()

	select {
	case call := <-received:
		if call.ID != "mine" {
			t.Fatalf("foreign-channel event delivered: %+v", call)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no event delivered")
	}
}

func TestSubscribe_UnauthorizedDial(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusUnauthorized)
	}))
	defer srv.Close()

	sub := New(wsURL(srv), "private-operator-calls", staticTokens(""), nil)
	err := sub.Subscribe(context.Background(), EventUpdateCall, func(backend.Call) {})
	if !errors.Is(err, backend.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}
