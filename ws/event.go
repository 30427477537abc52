package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/judgegodwins/chess-relay/http_utils"
	"github.com/judgegodwins/chess-relay/util"
)

type Event struct {
	Type    string          `json:"type"`
	TraceID string          `json:"trace_id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type EventHandler func(ctx context.Context, evt Event, c *Client) error

// client -> server
const (
	EventCreateRoom = "createRoom"
	EventJoinRoom   = "joinRoom"
	EventMove       = "move"
	EventTimeUpdate = "timeUpdate"
)

// server -> client
const (
	EventAssignColor  = "assignColor"
	EventSetMode      = "setMode"
	EventGameState    = "gameState"
	EventStartGame    = "startGame"
	EventTimeSync     = "timeSync"
	EventOpponentMove = "opponentMove"
	EventGameOver     = "gameOver"
	EventErrorMsg     = "errorMsg"
	EventOpponentLeft = "opponentLeft"
)

var (
	ErrMalformedEvent = errors.New("malformed event")
	ErrUnknownEvent   = errors.New("there is no such event type")
)

type PayloadCreateRoom struct {
	RoomID string `json:"roomId" validate:"required,roomid"`
	Mode   string `json:"mode" validate:"required"`
}

type PayloadRoom struct {
	RoomID string `json:"roomId" validate:"required,roomid"`
}

type PayloadMove struct {
	RoomID string          `json:"roomId" validate:"required,roomid"`
	Move   json.RawMessage `json:"move" validate:"required"`
}

type PayloadTimeUpdate struct {
	RoomID    string `json:"roomId" validate:"required,roomid"`
	WhiteTime *int   `json:"whiteTime" validate:"required,gte=0"`
	BlackTime *int   `json:"blackTime" validate:"required,gte=0"`
}

type PayloadGameState struct {
	FEN string `json:"fen"`
}

type PayloadStartGame struct {
	White string `json:"white"`
	Black string `json:"black"`
}

type PayloadTimeSync struct {
	WhiteTime int `json:"whiteTime"`
	BlackTime int `json:"blackTime"`
}

type PayloadGameOver struct {
	Winner string `json:"winner,omitempty"`
	Reason string `json:"reason"`
}

type PayloadError struct {
	Message string `json:"message"`
}

func NewEvent(evtType string, payload any) (Event, error) {
	b, err := json.Marshal(payload)

	if err != nil {
		return Event{}, err
	}

	return NewEventStruct(evtType, b, ""), nil
}

func NewErrorEvent(traceId, message string) (Event, error) {
	evt, err := NewEvent(EventErrorMsg, PayloadError{Message: message})
	if err != nil {
		return Event{}, err
	}

	evt.TraceID = traceId
	return evt, nil
}

func NewEventStruct(evtType string, payload []byte, traceId string) Event {
	return Event{
		Type:    evtType,
		TraceID: traceId,
		Payload: payload,
	}
}

// decodePayload unmarshals and validates an inbound payload. Any failure is
// reported as ErrMalformedEvent.
func decodePayload(e Event, v any) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("%w: missing payload", ErrMalformedEvent)
	}

	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	if err := util.Validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return fmt.Errorf("%w: %s", ErrMalformedEvent, strings.Join(http_utils.ValidationMessages(verrs), "; "))
		}
		return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	return nil
}
