package ws

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/judgegodwins/chess-relay/game"
	"github.com/judgegodwins/chess-relay/http_utils"
	"github.com/judgegodwins/chess-relay/snapshot"
	"github.com/judgegodwins/chess-relay/tokens"
	"github.com/judgegodwins/chess-relay/util"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const opsSize = 256

var ErrManagerStopped = errors.New("manager stopped")

type ClientList map[string]*Client

// Manager is the session gateway. Every inbound event, connect and
// disconnect runs as an op on a single goroutine (Run), which is the only
// code that touches the registry or the client list.
type Manager struct {
	clients  ClientList
	handlers map[string]EventHandler
	registry *game.Registry
	mirror   snapshot.Mirror
	tokens   tokens.Maker
	logger   *zap.Logger

	requireAuth     bool
	maxMessageBytes int64
	upgrader        websocket.Upgrader

	ops     chan func()
	stopped chan struct{}
}

func NewManager(config *util.Config, registry *game.Registry, mirror snapshot.Mirror, maker tokens.Maker, logger *zap.Logger) *Manager {
	if mirror == nil {
		mirror = snapshot.Nop{}
	}

	m := &Manager{
		clients:         make(ClientList),
		handlers:        make(map[string]EventHandler),
		registry:        registry,
		mirror:          mirror,
		tokens:          maker,
		logger:          logger.Named("ws"),
		requireAuth:     config.RequireAuth,
		maxMessageBytes: config.MaxMessageBytes,
		ops:             make(chan func(), opsSize),
		stopped:         make(chan struct{}),
	}

	m.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     checkOrigin(config.AllowedOrigins),
	}

	m.setupEventHandlers()

	return m
}

func (m *Manager) setupEventHandlers() {
	m.handlers[EventCreateRoom] = CreateRoomHandler
	m.handlers[EventJoinRoom] = JoinRoomHandler
	m.handlers[EventMove] = MoveHandler
	m.handlers[EventTimeUpdate] = TimeUpdateHandler
}

// Run executes ops until ctx is cancelled, then closes every client.
func (m *Manager) Run(ctx context.Context) {
	defer close(m.stopped)

	for {
		select {
		case <-ctx.Done():
			for _, client := range m.clients {
				client.close()
			}
			m.logger.Info("dispatch loop stopped", zap.Int("rooms", m.registry.Len()))
			return
		case op := <-m.ops:
			op()
		}
	}
}

// submit queues op for the dispatch loop. It reports false once the loop
// has stopped.
func (m *Manager) submit(op func()) bool {
	select {
	case <-m.stopped:
		return false
	default:
	}

	select {
	case m.ops <- op:
		return true
	case <-m.stopped:
		return false
	}
}

// do runs op on the dispatch loop and waits for it to finish.
func (m *Manager) do(ctx context.Context, op func()) error {
	done := make(chan struct{})

	if !m.submit(func() {
		op()
		close(done)
	}) {
		return ErrManagerStopped
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-m.stopped:
		return ErrManagerStopped
	}
}

func (m *Manager) routeEvent(ctx context.Context, evt Event, c *Client) error {
	if handler, ok := m.handlers[evt.Type]; ok {
		return handler(ctx, evt, c)
	}

	return fmt.Errorf("%w: %q", ErrUnknownEvent, evt.Type)
}

// dispatch routes one event. Handler errors go back to the sender only.
func (m *Manager) dispatch(evt Event, c *Client) {
	err := m.routeEvent(context.Background(), evt, c)
	if err == nil {
		return
	}

	c.logger.Debug("event rejected",
		zap.String("type", evt.Type),
		zap.String("trace_id", evt.TraceID),
		zap.Error(err))

	c.PushError(evt.TraceID, userMessage(err))
}

// userMessage maps an error to what the client is shown.
func userMessage(err error) string {
	for _, known := range []error{
		game.ErrRoomNotFound,
		game.ErrRoomFull,
		game.ErrDuplicateRoom,
		game.ErrNotYourTurn,
		game.ErrInvalidMove,
		game.ErrAlreadyInRoom,
		game.ErrNotInRoom,
		game.ErrGameNotStarted,
		game.ErrGameOver,
		game.ErrUntimedRoom,
		game.ErrInvalidMode,
	} {
		if errors.Is(err, known) {
			return capitalize(known.Error())
		}
	}

	if errors.Is(err, ErrMalformedEvent) || errors.Is(err, ErrUnknownEvent) {
		return err.Error()
	}

	return "Something went wrong!"
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func (m *Manager) register(c *Client) {
	m.clients[c.ID] = c
	c.logger.Info("client connected", zap.String("username", c.Username))
}

// unregister drops the client and ends every room it was seated in.
func (m *Manager) unregister(c *Client) {
	if _, ok := m.clients[c.ID]; !ok {
		return
	}

	delete(m.clients, c.ID)
	c.close()

	for _, departure := range m.registry.Disconnect(c.ID) {
		m.mirror.Remove(departure.RoomID)
		m.emit(departure.Remaining, EventOpponentLeft, PayloadRoom{RoomID: departure.RoomID})

		c.logger.Info("room closed by disconnect", zap.String("room_id", departure.RoomID))
	}

	c.logger.Info("client disconnected")
}

// emit sends one event to each listed connection that is still registered.
func (m *Manager) emit(connIDs []string, evtType string, payload any) {
	evt, err := NewEvent(evtType, payload)
	if err != nil {
		m.logger.Error("building event", zap.String("type", evtType), zap.Error(err))
		return
	}

	for _, id := range connIDs {
		if client, ok := m.clients[id]; ok {
			client.PushToEgress(evt)
		}
	}
}

func (m *Manager) username(connID string) string {
	if client, ok := m.clients[connID]; ok {
		return client.Username
	}
	return util.AnonymousUsername
}

// publish mirrors the current state of roomID.
func (m *Manager) publish(roomID string) {
	room, err := m.registry.Lookup(roomID)
	if err != nil {
		m.mirror.Remove(roomID)
		return
	}

	players := room.Players()
	s := snapshot.Snapshot{
		RoomID:  room.ID,
		Mode:    string(room.Mode),
		Player1: players[0],
		FEN:     room.FEN(),
		Started: room.Started(),
	}

	if len(players) > 1 {
		s.Player2 = players[1]
	}

	if clk := room.Clock(); clk != nil {
		s.WhiteTime, s.BlackTime = &clk.White, &clk.Black
	}

	m.mirror.Publish(s)
}

type wsQuery struct {
	Token string `form:"token"`
}

// ServeWS upgrades the request and serves the connection until it closes.
func (m *Manager) ServeWS(c *gin.Context) {
	var query wsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, http_utils.NewBaseResponse(false, "invalid query"))
		return
	}

	playerID, username := "", util.AnonymousUsername

	if query.Token != "" && m.tokens != nil {
		payload, err := m.tokens.VerifyToken(query.Token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, http_utils.NewBaseResponse(false, "unauthorized"))
			return
		}
		playerID, username = payload.ID.String(), payload.Username
	} else if m.requireAuth {
		c.JSON(http.StatusUnauthorized, http_utils.NewBaseResponse(false, "token not sent"))
		return
	}

	conn, err := m.upgrader.Upgrade(c.Writer, c.Request, nil)

	if err != nil {
		m.logger.Warn("error upgrading to websocket connection", zap.Error(err))
		return
	}

	client := NewClient(conn, m, playerID, username)

	if err := m.do(c.Request.Context(), func() { m.register(client) }); err != nil {
		conn.Close()
		return
	}

	go client.writeMessages()
	client.readMessages()

	m.submit(func() { m.unregister(client) })
}

// RoomInfo is a read-only view of a live room.
type RoomInfo struct {
	ID        string `json:"id"`
	Mode      string `json:"mode"`
	Full      bool   `json:"full"`
	Started   bool   `json:"started"`
	Over      bool   `json:"over"`
	Turn      string `json:"turn"`
	WhiteTime *int   `json:"white_time,omitempty"`
	BlackTime *int   `json:"black_time,omitempty"`
}

// Inspect describes a room. Clocks are projected to the current time for the
// side to move; the stored values are not changed.
func (m *Manager) Inspect(ctx context.Context, roomID string) (RoomInfo, error) {
	var (
		info RoomInfo
		err  error
	)

	doErr := m.do(ctx, func() {
		var room *game.Room
		room, err = m.registry.Lookup(roomID)
		if err != nil {
			return
		}

		info = RoomInfo{
			ID:      room.ID,
			Mode:    string(room.Mode),
			Full:    room.Full(),
			Started: room.Started(),
			Over:    room.Over(),
			Turn:    string(room.Turn()),
		}

		if clk := room.Clock(); clk != nil {
			if room.Started() && !room.Over() {
				projected := clk.Project(room.Turn(), m.registry.Now())
				clk = &projected
			}
			info.WhiteTime, info.BlackTime = &clk.White, &clk.Black
		}
	})

	if doErr != nil {
		return RoomInfo{}, doErr
	}

	return info, err
}

type Stats struct {
	Rooms   int      `json:"rooms"`
	Clients int      `json:"clients"`
	RoomIDs []string `json:"room_ids"`
}

func (m *Manager) Stats(ctx context.Context) (Stats, error) {
	var stats Stats

	err := m.do(ctx, func() {
		stats = Stats{
			Rooms:   m.registry.Len(),
			Clients: len(m.clients),
			RoomIDs: m.registry.IDs(),
		}
	})

	return stats, err
}

// checkOrigin allows the listed origins. An empty list, or a request
// without an Origin header, is allowed.
func checkOrigin(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		return lo.Contains(allowed, origin)
	}
}
