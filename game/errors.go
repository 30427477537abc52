package game

import "errors"

var (
	ErrRoomNotFound   = errors.New("room does not exist")
	ErrRoomFull       = errors.New("room is full")
	ErrDuplicateRoom  = errors.New("room already exists")
	ErrNotYourTurn    = errors.New("not your turn")
	ErrInvalidMove    = errors.New("invalid move")
	ErrAlreadyInRoom  = errors.New("already in room")
	ErrNotInRoom      = errors.New("not a member of this room")
	ErrGameNotStarted = errors.New("game has not started")
	ErrGameOver       = errors.New("game is over")
	ErrUntimedRoom    = errors.New("room has no clock")
	ErrInvalidMode    = errors.New("invalid game mode")
)
