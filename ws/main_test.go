package ws

import (
	"encoding/json"
	"testing"

	"github.com/judgegodwins/chess-relay/game"
	"github.com/judgegodwins/chess-relay/rules"
	"github.com/judgegodwins/chess-relay/util"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testConfig = &util.Config{
	Port:            "8080",
	ClockSeconds:    util.DefaultClockSeconds,
	MaxMessageBytes: 4096,
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()

	registry := game.NewRegistry(rules.NewChessEngine(), game.WithStartingClock(testConfig.ClockSeconds))
	return NewManager(testConfig, registry, nil, nil, zap.NewNop())
}

// newTestClient registers a client without a socket; tests read its egress.
func newTestClient(m *Manager, id string) *Client {
	c := &Client{
		ID:       id,
		Username: id,
		manager:  m,
		egress:   make(chan Event, egressSize),
		done:     make(chan struct{}),
		logger:   m.logger,
	}
	m.register(c)
	return c
}

func newInbound(t *testing.T, evtType string, payload any) Event {
	t.Helper()

	evt, err := NewEvent(evtType, payload)
	require.NoError(t, err)
	evt.TraceID = "trace-" + evtType
	return evt
}

// drain returns everything queued for c.
func drain(c *Client) []Event {
	var events []Event
	for {
		select {
		case evt := <-c.egress:
			events = append(events, evt)
		default:
			return events
		}
	}
}

func types(events []Event) []string {
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.Type)
	}
	return out
}

func payloadOf[T any](t *testing.T, evt Event) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(evt.Payload, &v))
	return v
}

func move(roomID, from, to string) map[string]any {
	return map[string]any{
		"roomId": roomID,
		"move":   map[string]string{"from": from, "to": to},
	}
}
