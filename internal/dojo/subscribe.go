package dojo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const graphQLTransportWS = "graphql-transport-ws"

const entityUpdatedSubscription = "subscription { entityUpdated { id keys } }"

var ErrSubscriptionClosed = errors.New("subscription closed by server")

// EntityUpdate identifies an entity that changed.
type EntityUpdate struct {
	ID   string   `json:"id"`
	Keys []string `json:"keys"`
}

// Subscriber streams entity updates from Torii over a websocket.
type Subscriber struct {
	url    string
	dialer *websocket.Dialer
}

// NewSubscriber derives the websocket endpoint from the indexer base URL.
func NewSubscriber(baseURL string) *Subscriber {
	u := strings.TrimRight(baseURL, "/")
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return &Subscriber{
		url: u + "/graphql/ws",
		dialer: &websocket.Dialer{
			Proxy:        http.ProxyFromEnvironment,
			Subprotocols: []string{graphQLTransportWS},
		},
	}
}

type wsMessage struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Subscribe blocks, calling onUpdate for every entity update, until ctx is
// done or the connection fails.
func (s *Subscriber) Subscribe(ctx context.Context, onUpdate func(EntityUpdate)) error {
	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", s.url, err)
	}
	defer conn.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			_ = conn.Close()
		case <-stop:
		}
	}()

	if err := conn.WriteJSON(wsMessage{Type: "connection_init"}); err != nil {
		return fmt.Errorf("connection_init: %w", err)
	}
	subID := uuid.NewString()
	payload, _ := json.Marshal(map[string]string{"query": entityUpdatedSubscription})
	acked := false

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read: %w", err)
		}
		switch msg.Type {
		case "connection_ack":
			if acked {
				continue
			}
			acked = true
			if err := conn.WriteJSON(wsMessage{ID: subID, Type: "subscribe", Payload: payload}); err != nil {
				return fmt.Errorf("subscribe: %w", err)
			}
		case "ping":
			if err := conn.WriteJSON(wsMessage{Type: "pong"}); err != nil {
				return fmt.Errorf("pong: %w", err)
			}
		case "next":
			if msg.ID != subID {
				continue
			}
			var next struct {
				Data struct {
					EntityUpdated EntityUpdate `json:"entityUpdated"`
				} `json:"data"`
			}
			if err := json.Unmarshal(msg.Payload, &next); err != nil {
				return fmt.Errorf("decode update: %w", err)
			}
			onUpdate(next.Data.EntityUpdated)
		case "error":
			return fmt.Errorf("subscription error: %s", string(msg.Payload))
		case "complete":
			return ErrSubscriptionClosed
		}
	}
}
