package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/judgegodwins/chess-relay/game"
	"github.com/judgegodwins/chess-relay/rules"
	"github.com/judgegodwins/chess-relay/tokens"
	"github.com/judgegodwins/chess-relay/util"
	"github.com/judgegodwins/chess-relay/ws"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestServer(t *testing.T, withTokens bool, setup func(r *game.Registry)) (*Server, tokens.Maker) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	config := &util.Config{
		Port:            "8080",
		ClockSeconds:    util.DefaultClockSeconds,
		MaxMessageBytes: 4096,
		TokenTTL:        time.Hour,
		AllowedOrigins:  []string{"https://chess.example"},
	}

	var maker tokens.Maker
	if withTokens {
		jwtMaker, err := tokens.NewJWTMaker(testSecret)
		require.NoError(t, err)
		maker = jwtMaker
	}

	registry := game.NewRegistry(rules.NewChessEngine())
	if setup != nil {
		setup(registry)
	}

	manager := ws.NewManager(config, registry, nil, maker, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go manager.Run(ctx)

	return NewServer(config, manager, maker, zap.NewNop()), maker
}

func serve(s *Server, method, path string, body any, header http.Header) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  []string        `json:"errors"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, false, func(r *game.Registry) {
		_, err := r.Create("ABCD", game.Timed, "a")
		require.NoError(t, err)
	})

	rec := serve(s, http.MethodGet, "/healthz", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	env := decode(t, rec)
	require.True(t, env.Success)
	require.JSONEq(t, `{"rooms":1,"clients":0,"room_ids":["ABCD"]}`, string(env.Data))
}

func TestCheckRoom(t *testing.T) {
	s, _ := newTestServer(t, false, func(r *game.Registry) {
		_, err := r.Create("OPEN", game.Timed, "a")
		require.NoError(t, err)

		_, err = r.Create("FULL", game.Untimed, "b")
		require.NoError(t, err)
		_, err = r.Join("FULL", "c")
		require.NoError(t, err)
	})

	t.Run("waiting room", func(t *testing.T) {
		rec := serve(s, http.MethodGet, "/rooms/OPEN", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var info ws.RoomInfo
		require.NoError(t, json.Unmarshal(decode(t, rec).Data, &info))
		require.Equal(t, "OPEN", info.ID)
		require.Equal(t, "timed", info.Mode)
		require.False(t, info.Full)
		require.False(t, info.Started)
		require.Equal(t, 300, *info.WhiteTime)
	})

	t.Run("started untimed room", func(t *testing.T) {
		rec := serve(s, http.MethodGet, "/rooms/FULL", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var info ws.RoomInfo
		require.NoError(t, json.Unmarshal(decode(t, rec).Data, &info))
		require.True(t, info.Full)
		require.True(t, info.Started)
		require.Equal(t, "white", info.Turn)
		require.Nil(t, info.WhiteTime)
	})

	t.Run("missing", func(t *testing.T) {
		rec := serve(s, http.MethodGet, "/rooms/NOPE", nil, nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.False(t, decode(t, rec).Success)
	})

	t.Run("invalid id", func(t *testing.T) {
		rec := serve(s, http.MethodGet, "/rooms/lower", nil, nil)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		require.NotEmpty(t, decode(t, rec).Errors)
	})
}

func TestTokenGenerator(t *testing.T) {
	t.Run("issues a verifiable token", func(t *testing.T) {
		s, maker := newTestServer(t, true, nil)

		rec := serve(s, http.MethodPost, "/auth/username", map[string]string{"username": "magnus"}, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var data tokenResponse
		require.NoError(t, json.Unmarshal(decode(t, rec).Data, &data))
		require.Equal(t, "magnus", data.Username)

		payload, err := maker.VerifyToken(data.Token)
		require.NoError(t, err)
		require.Equal(t, data.ID, payload.ID.String())
	})

	t.Run("empty username", func(t *testing.T) {
		s, _ := newTestServer(t, true, nil)

		rec := serve(s, http.MethodPost, "/auth/username", map[string]string{"username": ""}, nil)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		require.NotEmpty(t, decode(t, rec).Errors)
	})

	t.Run("not configured", func(t *testing.T) {
		s, _ := newTestServer(t, false, nil)

		rec := serve(s, http.MethodPost, "/auth/username", map[string]string{"username": "magnus"}, nil)
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestAuthMiddleware(t *testing.T) {
	s, maker := newTestServer(t, true, nil)

	token, _, err := maker.CreateToken("hikaru", time.Minute)
	require.NoError(t, err)

	cases := map[string]struct {
		header string
		status int
	}{
		"no header":    {"", http.StatusUnauthorized},
		"no scheme":    {token, http.StatusUnauthorized},
		"bad token":    {"Bearer nope", http.StatusUnauthorized},
		"valid bearer": {"Bearer " + token, http.StatusOK},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			header := http.Header{}
			if tc.header != "" {
				header.Set("Authorization", tc.header)
			}

			rec := serve(s, http.MethodGet, "/auth/me", nil, header)
			require.Equal(t, tc.status, rec.Code)

			if tc.status == http.StatusOK {
				require.Contains(t, string(decode(t, rec).Data), `"username":"hikaru"`)
			}
		})
	}
}

func TestCORS(t *testing.T) {
	s, _ := newTestServer(t, false, nil)

	header := http.Header{}
	header.Set("Origin", "https://chess.example")

	rec := serve(s, http.MethodGet, "/healthz", nil, header)
	require.Equal(t, "https://chess.example", rec.Header().Get("Access-Control-Allow-Origin"))

	header.Set("Origin", "https://evil.example")

	rec = serve(s, http.MethodGet, "/healthz", nil, header)
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
