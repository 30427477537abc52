package game

import (
	"fmt"
	"sort"
	"time"

	"github.com/judgegodwins/chess-relay/clock"
	"github.com/judgegodwins/chess-relay/rules"
	"github.com/judgegodwins/chess-relay/util"
	"github.com/samber/lo"
)

// Registry maps room ids to live rooms. It holds no lock: the owner must
// serialise every call.
type Registry struct {
	rooms         map[string]*Room
	engine        rules.Engine
	startingClock int
	now           func() time.Time
}

type Option func(*Registry)

// WithStartingClock sets the seconds each color starts with in timed rooms.
func WithStartingClock(seconds int) Option {
	return func(r *Registry) {
		r.startingClock = seconds
	}
}

// WithNow overrides the time source.
func WithNow(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

func NewRegistry(engine rules.Engine, opts ...Option) *Registry {
	r := &Registry{
		rooms:         make(map[string]*Room),
		engine:        engine,
		startingClock: util.DefaultClockSeconds,
		now:           time.Now,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Departure describes a room torn down because a member disconnected.
type Departure struct {
	RoomID    string
	Remaining []string
}

// Create inserts a room with creator seated as white.
func (r *Registry) Create(roomID string, mode Mode, creator string) (*Room, error) {
	if _, ok := r.rooms[roomID]; ok {
		return nil, fmt.Errorf("%w: %v", ErrDuplicateRoom, roomID)
	}

	room := newRoom(roomID, mode, creator, r.engine, r.startingClock, r.now())
	r.rooms[roomID] = room

	return room, nil
}

func (r *Registry) Lookup(roomID string) (*Room, error) {
	room, ok := r.rooms[roomID]
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrRoomNotFound, roomID)
	}
	return room, nil
}

// Delete removes a room. Deleting an absent room is a no-op.
func (r *Registry) Delete(roomID string) {
	delete(r.rooms, roomID)
}

func (r *Registry) Join(roomID, connID string) (JoinResult, error) {
	room, err := r.Lookup(roomID)
	if err != nil {
		return JoinResult{}, err
	}
	return room.Join(connID, r.now())
}

func (r *Registry) SubmitMove(roomID, connID string, mv rules.Move) (MoveResult, error) {
	room, err := r.Lookup(roomID)
	if err != nil {
		return MoveResult{}, err
	}
	return room.Move(connID, mv)
}

func (r *Registry) UpdateClock(roomID, connID string, white, black int) (clock.Clock, error) {
	room, err := r.Lookup(roomID)
	if err != nil {
		return clock.Clock{}, err
	}
	return room.SyncClock(connID, white, black, r.now())
}

// Disconnect deletes every room connID belongs to and reports who is left
// behind in each.
func (r *Registry) Disconnect(connID string) []Departure {
	var departures []Departure

	for _, id := range r.IDs() {
		room := r.rooms[id]
		if !room.Has(connID) {
			continue
		}

		departures = append(departures, Departure{
			RoomID:    id,
			Remaining: lo.Without(room.Players(), connID),
		})
		r.Delete(id)
	}

	return departures
}

func (r *Registry) Len() int {
	return len(r.rooms)
}

// IDs returns live room ids in sorted order.
func (r *Registry) IDs() []string {
	ids := lo.Keys(r.rooms)
	sort.Strings(ids)
	return ids
}

func (r *Registry) Now() time.Time {
	return r.now()
}
