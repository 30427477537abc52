package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/judgegodwins/chess-relay/tokens"
	"github.com/judgegodwins/chess-relay/util"
	"github.com/judgegodwins/chess-relay/ws"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

type Server struct {
	config    *util.Config
	wsManager *ws.Manager
	tokens    tokens.Maker
	router    *gin.Engine
	handler   http.Handler
	http      *http.Server
	logger    *zap.Logger
}

// NewServer wires the HTTP routes. maker may be nil, in which case token
// issuance is unavailable.
func NewServer(config *util.Config, manager *ws.Manager, maker tokens.Maker, logger *zap.Logger) *Server {
	router := gin.New()

	server := &Server{
		config:    config,
		wsManager: manager,
		tokens:    maker,
		router:    router,
		logger:    logger.Named("api"),
	}

	router.Use(gin.Recovery(), server.RequestLogger)

	router.GET("/ws", server.wsManager.ServeWS)
	router.GET("/healthz", server.Health)
	router.GET("/rooms/:id", server.CheckRoom)
	router.POST("/auth/username", server.TokenGenerator)
	router.GET("/auth/me", server.AuthMiddleware, server.GetTokenData)

	server.handler = cors.New(cors.Options{
		AllowedOrigins:   config.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler(router)

	return server
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.http = &http.Server{
		Addr:              s.config.Addr(),
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("listening", zap.String("addr", s.http.Addr))

	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}
