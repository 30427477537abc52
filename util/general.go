package util

import "fmt"

// Field names of the room hash mirrored to redis.
const (
	RoomIDKey          = "id"
	RoomPlayer1Key     = "player1"
	RoomPlayer2Key     = "player2"
	RoomGameStateKey   = "game_state"
	RoomGameStartedKey = "active"
	RoomModeKey        = "mode"
	RoomWhiteTimeKey   = "white_time"
	RoomBlackTimeKey   = "black_time"
)

// DefaultClockSeconds is what each color starts with in a timed room.
const DefaultClockSeconds = 300

const AnonymousUsername = "anonymous"

type GameStartedEnum int

const (
	GameStartedFalse GameStartedEnum = iota // 0
	GameStartedTrue                         // 1
)

func (n GameStartedEnum) String() string {
	return []string{"no", "yes"}[n]
}

func StartedEnum(started bool) GameStartedEnum {
	if started {
		return GameStartedTrue
	}
	return GameStartedFalse
}

func GetRoomKey(room string) string {
	return fmt.Sprintf("room:%v", room)
}
