package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/judgegodwins/chess-relay/game"
	"github.com/judgegodwins/chess-relay/http_utils"
	"github.com/judgegodwins/chess-relay/util"
	"go.uber.org/zap"
)

type usernameRequest struct {
	Username string `json:"username" validate:"required,min=1,max=32"`
}

type tokenResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

// Generates a token using the username passed as request body
func (s *Server) TokenGenerator(c *gin.Context) {
	if s.tokens == nil {
		c.JSON(http.StatusServiceUnavailable, http_utils.NewBaseResponse(false, "authentication is not configured"))
		return
	}

	var data usernameRequest

	if err := c.ShouldBindJSON(&data); err != nil {
		c.JSON(http.StatusUnprocessableEntity, http_utils.NewBaseResponse(false, "invalid body"))
		return
	}

	if err := util.Validate.Struct(data); err != nil {
		c.JSON(http.StatusUnprocessableEntity, http_utils.NewValidationErrorResponse(err))
		return
	}

	token, payload, err := s.tokens.CreateToken(data.Username, s.config.TokenTTL)

	if err != nil {
		s.logger.Error("creating token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, http_utils.NewBaseResponse(false, ErrorMessage500))
		return
	}

	c.JSON(http.StatusOK, http_utils.NewDataResponse("Auth data", tokenResponse{
		ID:       payload.ID.String(),
		Username: payload.Username,
		Token:    token,
	}))
}

func (s *Server) GetTokenData(c *gin.Context) {
	payload, ok := GetPayload(c)

	if !ok {
		s.logger.Error("auth payload missing from request context")
		c.JSON(http.StatusInternalServerError, http_utils.NewBaseResponse(false, ErrorMessage500))
		return
	}

	c.JSON(http.StatusOK, http_utils.NewDataResponse("success", payload))
}

type checkRoomRequest struct {
	RoomID string `uri:"id" validate:"required,roomid"`
}

// CheckRoom reports whether a room exists and whether it can still be joined.
func (s *Server) CheckRoom(c *gin.Context) {
	var data checkRoomRequest

	if err := c.ShouldBindUri(&data); err != nil {
		c.JSON(http.StatusUnprocessableEntity, http_utils.NewBaseResponse(false, "invalid room id"))
		return
	}

	if err := util.Validate.Struct(data); err != nil {
		c.JSON(http.StatusUnprocessableEntity, http_utils.NewValidationErrorResponse(err))
		return
	}

	info, err := s.wsManager.Inspect(c.Request.Context(), data.RoomID)

	if errors.Is(err, game.ErrRoomNotFound) {
		c.JSON(http.StatusNotFound, http_utils.NewBaseResponse(false, "room not found"))
		return
	}

	if err != nil {
		s.logger.Error("inspecting room", zap.String("room_id", data.RoomID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, http_utils.NewBaseResponse(false, ErrorMessage500))
		return
	}

	c.JSON(http.StatusOK, http_utils.NewDataResponse("room data", info))
}

func (s *Server) Health(c *gin.Context) {
	stats, err := s.wsManager.Stats(c.Request.Context())

	if err != nil {
		c.JSON(http.StatusServiceUnavailable, http_utils.NewBaseResponse(false, err.Error()))
		return
	}

	c.JSON(http.StatusOK, http_utils.NewDataResponse("ok", stats))
}
