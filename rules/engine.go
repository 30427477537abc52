package rules

import (
	"bytes"
	"encoding/json"
	"errors"
)

// ErrIllegalMove is returned by an Engine when a move cannot be played from
// the given position.
var ErrIllegalMove = errors.New("illegal move")

type Color string

const (
	White Color = "white"
	Black Color = "black"
)

// Opponent returns the other color.
func (c Color) Opponent() Color {
	if c == White {
		return Black
	}
	return White
}

type Terminal string

const (
	None      Terminal = ""
	Checkmate Terminal = "checkmate"
	Draw      Terminal = "draw"
	Stalemate Terminal = "stalemate"
)

// Move is a candidate move as submitted by a client. From/To (with optional
// promotion piece) take precedence; SAN is used when they are absent.
type Move struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
	SAN       string `json:"san,omitempty"`
}

// UnmarshalJSON accepts either a move object or a bare SAN string ("e4").
func (m *Move) UnmarshalJSON(data []byte) error {
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '"' {
		var san string
		if err := json.Unmarshal(trimmed, &san); err != nil {
			return err
		}
		*m = Move{SAN: san}
		return nil
	}

	type plain Move
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*m = Move(p)
	return nil
}

// Position is engine-owned game state. Implementations must be immutable from
// the caller's point of view.
type Position interface {
	FEN() string
	Turn() Color
}

type Result struct {
	Position Position
	Terminal Terminal
}

// Engine validates and applies moves. Apply must not mutate pos and must not
// block on I/O.
type Engine interface {
	Start() Position
	Load(fen string) (Position, error)
	Apply(pos Position, mv Move) (Result, error)
}
