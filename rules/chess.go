package rules

import (
	"errors"
	"fmt"
	"strings"

	"github.com/corentings/chess/v2"
)

// ChessEngine implements Engine for standard chess. Positions carry their
// move history so repetition draws are detected across moves.
type ChessEngine struct{}

func NewChessEngine() *ChessEngine {
	return &ChessEngine{}
}

type chessPosition struct {
	game *chess.Game
}

func (p *chessPosition) FEN() string {
	return p.game.FEN()
}

func (p *chessPosition) Turn() Color {
	if p.game.Position().Turn() == chess.White {
		return White
	}
	return Black
}

func (e *ChessEngine) Start() Position {
	return &chessPosition{game: chess.NewGame()}
}

func (e *ChessEngine) Load(fen string) (Position, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("loading fen %q: %w", fen, err)
	}
	return &chessPosition{game: chess.NewGame(opt)}, nil
}

func (e *ChessEngine) Apply(pos Position, mv Move) (Result, error) {
	current, ok := pos.(*chessPosition)
	if !ok {
		loaded, err := e.Load(pos.FEN())
		if err != nil {
			return Result{}, err
		}
		current = loaded.(*chessPosition)
	}

	// work on a copy so the caller's position is never touched
	game := current.game.Clone()

	if err := playMove(game, mv); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrIllegalMove, err)
	}

	return Result{
		Position: &chessPosition{game: game},
		Terminal: terminalOf(game),
	}, nil
}

// playMove plays the first encoding of mv the game accepts. A promotion
// piece only counts when a pawn actually promotes; clients send one on every
// move, so a from/to pair is retried without it.
func playMove(game *chess.Game, mv Move) error {
	candidates, err := encodings(mv)
	if err != nil {
		return err
	}

	var lastErr error
	for _, decode := range candidates {
		m, err := decode(game.Position())
		if err != nil {
			lastErr = err
			continue
		}

		if err := game.Move(m, nil); err != nil {
			lastErr = err
			continue
		}

		return nil
	}

	return lastErr
}

type decoder func(pos *chess.Position) (*chess.Move, error)

func encodings(mv Move) ([]decoder, error) {
	if mv.From != "" && mv.To != "" {
		uci := strings.ToLower(mv.From + mv.To)

		plain := func(pos *chess.Position) (*chess.Move, error) {
			return chess.UCINotation{}.Decode(pos, uci)
		}

		if mv.Promotion == "" || !lastRank(uci) {
			return []decoder{plain}, nil
		}

		promoted := func(pos *chess.Position) (*chess.Move, error) {
			return chess.UCINotation{}.Decode(pos, uci+strings.ToLower(mv.Promotion[:1]))
		}
		return []decoder{promoted, plain}, nil
	}

	if mv.SAN != "" {
		return []decoder{func(pos *chess.Position) (*chess.Move, error) {
			return chess.AlgebraicNotation{}.Decode(pos, strings.TrimSpace(mv.SAN))
		}}, nil
	}

	return nil, errors.New("move has neither from/to squares nor san")
}

// lastRank reports whether a from/to string lands on rank 1 or 8.
func lastRank(uci string) bool {
	if len(uci) < 4 {
		return false
	}
	rank := uci[3]
	return rank == '1' || rank == '8'
}

func terminalOf(game *chess.Game) Terminal {
	switch game.Method() {
	case chess.Checkmate:
		return Checkmate
	case chess.Stalemate:
		return Stalemate
	case chess.InsufficientMaterial, chess.FivefoldRepetition, chess.SeventyFiveMoveRule:
		return Draw
	}

	// threefold and fifty-move are claimable in chess; clients expect them
	// to end the game outright
	for _, method := range game.EligibleDraws() {
		if method == chess.ThreefoldRepetition || method == chess.FiftyMoveRule {
			return Draw
		}
	}

	return None
}
