package game

import (
	"fmt"
	"time"

	"github.com/judgegodwins/chess-relay/clock"
	"github.com/judgegodwins/chess-relay/rules"
	"github.com/samber/lo"
)

const maxPlayers = 2

// Room is a two-player game session. The first player is always white and
// the second black. A Room is not safe for concurrent use; callers serialise
// access (see ws.Manager).
type Room struct {
	ID   string
	Mode Mode
	// ModeName is the mode as the creator spelled it ("rapid", "timed", ...).
	// Clients key their timers off this name, so it is echoed back verbatim.
	ModeName  string
	CreatedAt time.Time

	players  []string
	colorOf  map[string]rules.Color
	started  bool
	over     bool
	position rules.Position
	clock    *clock.Clock
	engine   rules.Engine
}

type JoinResult struct {
	Color    rules.Color
	Mode     Mode
	ModeName string
	FEN      string
	// Started is true only for the join that completed the room.
	Started bool
	Players []string
	// Clock is set when Started is true and the room is timed.
	Clock *clock.Clock
}

type MoveResult struct {
	Mover    rules.Color
	Opponent string
	FEN      string
	Terminal rules.Terminal
	// Winner is set on checkmate only.
	Winner rules.Color
}

func newRoom(id string, mode Mode, creator string, engine rules.Engine, startingClock int, now time.Time) *Room {
	r := &Room{
		ID:        id,
		Mode:      mode,
		ModeName:  string(mode),
		CreatedAt: now,
		players:   []string{creator},
		colorOf:   map[string]rules.Color{creator: rules.White},
		position:  engine.Start(),
		engine:    engine,
	}

	if mode.Timed() {
		r.clock = clock.New(startingClock, now)
	}

	return r
}

// Players returns the connection ids in seat order (white first).
func (r *Room) Players() []string {
	return append([]string(nil), r.players...)
}

func (r *Room) Has(connID string) bool {
	_, ok := r.colorOf[connID]
	return ok
}

func (r *Room) ColorOf(connID string) (rules.Color, bool) {
	color, ok := r.colorOf[connID]
	return color, ok
}

// Opponent returns the other member's connection id, or "" when alone.
func (r *Room) Opponent(connID string) string {
	others := lo.Without(r.players, connID)
	if len(others) == 0 || len(others) == len(r.players) {
		return ""
	}
	return others[0]
}

func (r *Room) Full() bool {
	return len(r.players) >= maxPlayers
}

func (r *Room) Started() bool {
	return r.started
}

func (r *Room) Over() bool {
	return r.over
}

func (r *Room) FEN() string {
	return r.position.FEN()
}

func (r *Room) Turn() rules.Color {
	return r.position.Turn()
}

// Clock returns a copy of the room clock, or nil for untimed rooms.
func (r *Room) Clock() *clock.Clock {
	if r.clock == nil {
		return nil
	}
	c := *r.clock
	return &c
}

// Join seats connID as black. It starts the game when the room becomes full.
func (r *Room) Join(connID string, now time.Time) (JoinResult, error) {
	if r.Has(connID) {
		return JoinResult{}, ErrAlreadyInRoom
	}

	if r.Full() {
		return JoinResult{}, ErrRoomFull
	}

	r.players = append(r.players, connID)
	r.colorOf[connID] = rules.Black

	res := JoinResult{
		Color:    rules.Black,
		Mode:     r.Mode,
		ModeName: r.ModeName,
		FEN:      r.position.FEN(),
		Players:  r.Players(),
	}

	if r.Full() && !r.started {
		r.started = true
		res.Started = true

		if r.clock != nil {
			r.clock.Sync(r.clock.White, r.clock.Black, now)
			res.Clock = r.Clock()
		}
	}

	return res, nil
}

// Move validates turn ownership and delegates to the rules engine. The room
// is unchanged on any error. White may not move until black has been seated,
// so a game never starts with a move the second player did not see.
func (r *Room) Move(connID string, mv rules.Move) (MoveResult, error) {
	color, member := r.colorOf[connID]
	if !member {
		return MoveResult{}, ErrNotYourTurn
	}

	if !r.started {
		return MoveResult{}, ErrGameNotStarted
	}

	if r.over {
		return MoveResult{}, ErrGameOver
	}

	if color != r.position.Turn() {
		return MoveResult{}, ErrNotYourTurn
	}

	res, err := r.apply(mv)
	if err != nil {
		return MoveResult{}, err
	}

	r.position = res.Position

	out := MoveResult{
		Mover:    color,
		Opponent: r.Opponent(connID),
		FEN:      r.position.FEN(),
		Terminal: res.Terminal,
	}

	if res.Terminal != rules.None {
		r.over = true
		if res.Terminal == rules.Checkmate {
			out.Winner = color
		}
	}

	return out, nil
}

// apply shields the room from engine faults: any panic or engine error is
// reported as ErrInvalidMove.
func (r *Room) apply(mv rules.Move) (res rules.Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			res = rules.Result{}
			err = fmt.Errorf("%w: engine fault: %v", ErrInvalidMove, p)
		}
	}()

	res, err = r.engine.Apply(r.position, mv)
	if err != nil {
		return rules.Result{}, fmt.Errorf("%w: %v", ErrInvalidMove, err)
	}

	if res.Position == nil {
		return rules.Result{}, fmt.Errorf("%w: engine returned no position", ErrInvalidMove)
	}

	return res, nil
}

// SyncClock stores client-reported clock values. Any member may report
// either color's time.
func (r *Room) SyncClock(connID string, white, black int, now time.Time) (clock.Clock, error) {
	if !r.Has(connID) {
		return clock.Clock{}, ErrNotInRoom
	}

	if r.clock == nil {
		return clock.Clock{}, ErrUntimedRoom
	}

	r.clock.Sync(white, black, now)
	return *r.clock, nil
}
