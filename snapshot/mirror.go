// Package snapshot mirrors live room state into redis hashes so operators
// and other processes can see which rooms exist. Entries are removed when a
// room ends; nothing here is read back by the server.
package snapshot

import (
	"context"
	"strconv"
	"time"

	"github.com/judgegodwins/chess-relay/util"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const queueSize = 256

// Snapshot is the mirrored view of a room.
type Snapshot struct {
	RoomID    string
	Mode      string
	Player1   string
	Player2   string
	FEN       string
	Started   bool
	WhiteTime *int
	BlackTime *int
}

// Fields renders the snapshot as redis hash fields.
func (s Snapshot) Fields() map[string]any {
	fields := map[string]any{
		util.RoomIDKey:          s.RoomID,
		util.RoomModeKey:        s.Mode,
		util.RoomPlayer1Key:     s.Player1,
		util.RoomPlayer2Key:     s.Player2,
		util.RoomGameStateKey:   s.FEN,
		util.RoomGameStartedKey: util.StartedEnum(s.Started).String(),
	}

	if s.WhiteTime != nil && s.BlackTime != nil {
		fields[util.RoomWhiteTimeKey] = strconv.Itoa(*s.WhiteTime)
		fields[util.RoomBlackTimeKey] = strconv.Itoa(*s.BlackTime)
	}

	return fields
}

// Mirror receives room updates. Implementations must not block the caller.
type Mirror interface {
	Publish(s Snapshot)
	Remove(roomID string)
}

// Nop discards everything.
type Nop struct{}

func (Nop) Publish(Snapshot) {}
func (Nop) Remove(string)    {}

// hashStore is the subset of *redis.Client the mirror writes with.
type hashStore interface {
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type op struct {
	snapshot Snapshot
	remove   bool
}

// RedisMirror queues updates and writes them from a single worker, so a
// room's updates land in the order they were published.
type RedisMirror struct {
	store  hashStore
	ttl    time.Duration
	logger *zap.Logger
	queue  chan op
}

func NewRedisMirror(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisMirror {
	return newRedisMirror(rdb, ttl, logger)
}

func newRedisMirror(store hashStore, ttl time.Duration, logger *zap.Logger) *RedisMirror {
	return &RedisMirror{
		store:  store,
		ttl:    ttl,
		logger: logger.Named("snapshot"),
		queue:  make(chan op, queueSize),
	}
}

func (m *RedisMirror) Publish(s Snapshot) {
	m.enqueue(op{snapshot: s})
}

func (m *RedisMirror) Remove(roomID string) {
	m.enqueue(op{snapshot: Snapshot{RoomID: roomID}, remove: true})
}

func (m *RedisMirror) enqueue(o op) {
	select {
	case m.queue <- o:
	default:
		m.logger.Warn("snapshot queue full, dropping update",
			zap.String("room_id", o.snapshot.RoomID),
			zap.Bool("remove", o.remove))
	}
}

// Run drains the queue until ctx is cancelled.
func (m *RedisMirror) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case o := <-m.queue:
			if err := m.write(ctx, o); err != nil {
				m.logger.Error("snapshot write failed",
					zap.String("room_id", o.snapshot.RoomID),
					zap.Error(err))
			}
		}
	}
}

func (m *RedisMirror) write(ctx context.Context, o op) error {
	key := util.GetRoomKey(o.snapshot.RoomID)

	if o.remove {
		return m.store.Del(ctx, key).Err()
	}

	if err := m.store.HSet(ctx, key, o.snapshot.Fields()).Err(); err != nil {
		return err
	}

	return m.store.Expire(ctx, key, m.ttl).Err()
}
