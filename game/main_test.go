package game

import (
	"fmt"
	"time"

	"github.com/judgegodwins/chess-relay/rules"
)

// stubEngine plays any move except the scripted failures below. The SAN
// field selects a terminal outcome.
type stubEngine struct{}

type stubPosition struct {
	ply int
}

func (p stubPosition) FEN() string {
	return fmt.Sprintf("stub %d", p.ply)
}

func (p stubPosition) Turn() rules.Color {
	if p.ply%2 == 0 {
		return rules.White
	}
	return rules.Black
}

func (stubEngine) Start() rules.Position {
	return stubPosition{}
}

func (stubEngine) Load(fen string) (rules.Position, error) {
	var p stubPosition
	_, err := fmt.Sscanf(fen, "stub %d", &p.ply)
	return p, err
}

func (stubEngine) Apply(pos rules.Position, mv rules.Move) (rules.Result, error) {
	switch mv.From {
	case "bad":
		return rules.Result{}, rules.ErrIllegalMove
	case "panic":
		panic("engine exploded")
	case "nil":
		return rules.Result{}, nil
	}

	next := stubPosition{ply: pos.(stubPosition).ply + 1}

	terminal := rules.None
	switch mv.SAN {
	case "mate":
		terminal = rules.Checkmate
	case "draw":
		terminal = rules.Draw
	case "stale":
		terminal = rules.Stalemate
	}

	return rules.Result{Position: next, Terminal: terminal}, nil
}

var epoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func newTestRegistry(opts ...Option) *Registry {
	opts = append([]Option{WithNow(func() time.Time { return epoch })}, opts...)
	return NewRegistry(stubEngine{}, opts...)
}

var legal = rules.Move{From: "e2", To: "e4"}
