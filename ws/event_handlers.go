package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/judgegodwins/chess-relay/game"
	"github.com/judgegodwins/chess-relay/rules"
	"go.uber.org/zap"
)

// CreateRoomHandler seats the sender as white in a new room.
func CreateRoomHandler(ctx context.Context, e Event, c *Client) error {
	var payload PayloadCreateRoom

	if err := decodePayload(e, &payload); err != nil {
		return err
	}

	mode, err := game.ParseMode(payload.Mode)
	if err != nil {
		return err
	}

	m := c.manager

	room, err := m.registry.Create(payload.RoomID, mode, c.ID)
	if err != nil {
		return err
	}

	room.ModeName = strings.TrimSpace(payload.Mode)

	if err := c.PushEventToEgress(EventAssignColor, rules.White); err != nil {
		return err
	}

	if err := c.PushEventToEgress(EventSetMode, room.ModeName); err != nil {
		return err
	}

	m.publish(payload.RoomID)

	c.logger.Info("room created",
		zap.String("room_id", payload.RoomID),
		zap.String("mode", string(mode)),
		zap.String("mode_name", room.ModeName))

	return nil
}

// JoinRoomHandler seats the sender as black and starts the game.
func JoinRoomHandler(ctx context.Context, e Event, c *Client) error {
	var payload PayloadRoom

	if err := decodePayload(e, &payload); err != nil {
		return err
	}

	m := c.manager

	res, err := m.registry.Join(payload.RoomID, c.ID)
	if err != nil {
		return err
	}

	if err := c.PushEventToEgress(EventAssignColor, res.Color); err != nil {
		return err
	}

	if err := c.PushEventToEgress(EventSetMode, res.ModeName); err != nil {
		return err
	}

	if err := c.PushEventToEgress(EventGameState, PayloadGameState{FEN: res.FEN}); err != nil {
		return err
	}

	if res.Started {
		m.emit(res.Players, EventStartGame, PayloadStartGame{
			White: m.username(res.Players[0]),
			Black: m.username(res.Players[1]),
		})

		if res.Clock != nil {
			m.emit(res.Players, EventTimeSync, PayloadTimeSync{
				WhiteTime: res.Clock.White,
				BlackTime: res.Clock.Black,
			})
		}

		c.logger.Info("game started", zap.String("room_id", payload.RoomID))
	}

	m.publish(payload.RoomID)

	return nil
}

// MoveHandler applies the sender's move and relays it, unchanged, to the
// opponent. The mover is not echoed.
func MoveHandler(ctx context.Context, e Event, c *Client) error {
	var payload PayloadMove

	if err := decodePayload(e, &payload); err != nil {
		return err
	}

	var mv rules.Move
	if err := json.Unmarshal(payload.Move, &mv); err != nil {
		return fmt.Errorf("%w: move: %v", ErrMalformedEvent, err)
	}

	m := c.manager

	res, err := m.registry.SubmitMove(payload.RoomID, c.ID, mv)

	if errors.Is(err, game.ErrInvalidMove) {
		// the client already played the move locally; send the position back
		c.PushError(e.TraceID, userMessage(err))
		c.logger.Debug("move rejected", zap.String("room_id", payload.RoomID), zap.Error(err))

		if room, lookupErr := m.registry.Lookup(payload.RoomID); lookupErr == nil {
			return c.PushEventToEgress(EventGameState, PayloadGameState{FEN: room.FEN()})
		}
		return nil
	}

	if err != nil {
		return err
	}

	if res.Opponent != "" {
		m.emit([]string{res.Opponent}, EventOpponentMove, payload.Move)
	}

	if res.Terminal != rules.None {
		room, err := m.registry.Lookup(payload.RoomID)
		if err != nil {
			return err
		}

		m.emit(room.Players(), EventGameOver, PayloadGameOver{
			Winner: string(res.Winner),
			Reason: string(res.Terminal),
		})

		c.logger.Info("game over",
			zap.String("room_id", payload.RoomID),
			zap.String("reason", string(res.Terminal)),
			zap.String("winner", string(res.Winner)))
	}

	m.publish(payload.RoomID)

	return nil
}

// TimeUpdateHandler stores client-reported clocks and re-broadcasts them to
// both members.
func TimeUpdateHandler(ctx context.Context, e Event, c *Client) error {
	var payload PayloadTimeUpdate

	if err := decodePayload(e, &payload); err != nil {
		return err
	}

	m := c.manager

	clk, err := m.registry.UpdateClock(payload.RoomID, c.ID, *payload.WhiteTime, *payload.BlackTime)
	if err != nil {
		return err
	}

	room, err := m.registry.Lookup(payload.RoomID)
	if err != nil {
		return err
	}

	m.emit(room.Players(), EventTimeSync, PayloadTimeSync{
		WhiteTime: clk.White,
		BlackTime: clk.Black,
	})

	// flag fall is reported by clients only; it does not end the game here
	if color, flagged := clk.Flagged(); flagged {
		c.logger.Info("clock reached zero",
			zap.String("room_id", payload.RoomID),
			zap.String("color", string(color)))
	}

	m.publish(payload.RoomID)

	return nil
}
