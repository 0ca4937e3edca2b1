// ABOUTME: GraphQL subscription client speaking the graphql-transport-ws protocol
// ABOUTME: Streams created, updated and deleted events for one resource per connection
package live

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
	"github.com/harperreed/crmlink/crmerr"
	"github.com/harperreed/crmlink/gqlclient"
	"github.com/harperreed/crmlink/objects"
	"github.com/rs/zerolog"
)

// Subprotocol is the websocket subprotocol negotiated with the server.
const Subprotocol = "graphql-transport-ws"

const (
	msgConnectionInit = "connection_init"
	msgConnectionAck  = "connection_ack"
	msgPing           = "ping"
	msgPong           = "pong"
	msgSubscribe      = "subscribe"
	msgNext           = "next"
	msgError          = "error"
	msgComplete       = "complete"
)

// EventKind is the kind of remote change.
type EventKind string

const (
	EventCreated EventKind = "created"
	EventUpdated EventKind = "updated"
	EventDeleted EventKind = "deleted"
)

// Event is one remote change.
type Event struct {
	Kind     EventKind
	Resource string
	Record   objects.Record
}

// Handler receives events on the connection's read goroutine.
type Handler func(Event)

// Subscriber streams events for a resource until ctx ends.
type Subscriber interface {
	Subscribe(ctx context.Context, resource string, handler Handler) error
}

var typeNames = map[string]string{
	"companies":  "Company",
	"contacts":   "Contact",
	"deals":      "Deal",
	"tasks":      "Task",
	"users":      "User",
	"events":     "Event",
	"dealStages": "DealStage",
	"taskStages": "TaskStage",
}

type message struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type subscription struct {
	kind  EventKind
	field string
}

// Client dials the websocket endpoint.
type Client struct {
	url        string
	tokens     gqlclient.TokenSource
	dialer     *websocket.Dialer
	ackTimeout time.Duration
	log        zerolog.Logger
}

func NewClient(url string, tokens gqlclient.TokenSource, log zerolog.Logger) *Client {
	return &Client{
		url:    url,
		tokens: tokens,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 10 * time.Second,
			Subprotocols:     []string{Subprotocol},
		},
		ackTimeout: 10 * time.Second,
		log:        log,
	}
}

// Subscribe opens a connection and streams events for resource. It returns
// nil when ctx is cancelled and an error when the connection fails.
func (c *Client) Subscribe(ctx context.Context, resource string, handler Handler) error {
	typeName, ok := typeNames[resource]
	if !ok {
		return crmerr.Configuration("subscribe", "unknown resource %q", resource)
	}

	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return crmerr.Network("subscribe "+resource, err)
	}
	defer func() { _ = conn.Close() }()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			_ = conn.Close()
		case <-done:
		}
	}()

	if err := c.handshake(conn); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	subs := map[string]subscription{}
	for _, kind := range []EventKind{EventCreated, EventUpdated, EventDeleted} {
		id := uuid.NewString()
		field, query := subscriptionDocument(kind, typeName)
		subs[id] = subscription{kind: kind, field: field}

		payload, _ := json.Marshal(map[string]any{"query": query})
		if err := conn.WriteJSON(message{ID: id, Type: msgSubscribe, Payload: payload}); err != nil {
			return crmerr.Network("subscribe "+resource, err)
		}
	}
	c.log.Debug().Str("resource", resource).Msg("live subscription started")

	for {
		var msg message
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return crmerr.Network("subscribe "+resource, err)
		}

		switch msg.Type {
		case msgPing:
			if err := conn.WriteJSON(message{Type: msgPong}); err != nil {
				return crmerr.Network("subscribe "+resource, err)
			}
		case msgNext:
			sub, ok := subs[msg.ID]
			if !ok {
				continue
			}
			rec, err := decodeNext(msg.Payload, sub.field)
			if err != nil {
				c.log.Warn().Err(err).Str("resource", resource).Msg("dropping malformed live event")
				continue
			}
			handler(Event{Kind: sub.kind, Resource: resource, Record: rec})
		case msgError:
			return subscriptionError(resource, msg.Payload)
		case msgComplete:
			delete(subs, msg.ID)
			if len(subs) == 0 {
				return nil
			}
		}
	}
}

func (c *Client) handshake(conn *websocket.Conn) error {
	payload := map[string]any{}
	if c.tokens != nil {
		tok, err := c.tokens.AccessToken()
		if err != nil {
			return fmt.Errorf("failed to read access token: %w", err)
		}
		if tok != "" {
			payload["headers"] = map[string]string{"Authorization": "Bearer " + tok}
		}
	}
	raw, _ := json.Marshal(payload)
	if err := conn.WriteJSON(message{Type: msgConnectionInit, Payload: raw}); err != nil {
		return crmerr.Network("connection_init", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(c.ackTimeout))
	defer func() { _ = conn.SetReadDeadline(time.Time{}) }()

	for {
		var msg message
		if err := conn.ReadJSON(&msg); err != nil {
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) && closeErr.Code == 4403 {
				return crmerr.Authentication("connection_init", "forbidden")
			}
			return crmerr.Network("connection_init", err)
		}
		switch msg.Type {
		case msgConnectionAck:
			return nil
		case msgPing:
			if err := conn.WriteJSON(message{Type: msgPong}); err != nil {
				return crmerr.Network("connection_init", err)
			}
		}
	}
}

// subscriptionDocument follows nestjs-query naming: createdTask,
// updatedOneTask, deletedOneTask. Only ids are selected; consumers refetch.
func subscriptionDocument(kind EventKind, typeName string) (string, string) {
	var field string
	switch kind {
	case EventCreated:
		field = "created" + typeName
	case EventUpdated:
		field = "updatedOne" + typeName
	case EventDeleted:
		field = "deletedOne" + typeName
	}
	op := strings.ToUpper(field[:1]) + field[1:]
	return field, fmt.Sprintf("subscription %s {\n  %s(input: { filter: {} }) {\n    id\n  }\n}", op, field)
}

func decodeNext(payload json.RawMessage, field string) (objects.Record, error) {
	var body struct {
		Data map[string]objects.Record `json:"data"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, err
	}
	rec, ok := body.Data[field]
	if !ok || rec == nil {
		return nil, fmt.Errorf("event has no %q field", field)
	}
	return rec, nil
}

func subscriptionError(resource string, payload json.RawMessage) error {
	var errs []gqlclient.GraphQLError
	_ = json.Unmarshal(payload, &errs)

	messages := make([]string, 0, len(errs))
	for _, e := range errs {
		if code, _ := e.Extensions["code"].(string); code == "UNAUTHENTICATED" {
			return crmerr.Authentication("subscribe "+resource, e.Message)
		}
		messages = append(messages, e.Message)
	}
	if len(messages) == 0 {
		messages = append(messages, "subscription rejected")
	}
	return crmerr.Validation("subscribe "+resource, strings.Join(messages, "; "), nil)
}
