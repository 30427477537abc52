package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/judgegodwins/chess-relay/http_utils"
	"go.uber.org/zap"
)

type contextkey string

const authContextKey contextkey = "auth_payload"

func (s *Server) AuthMiddleware(c *gin.Context) {
	if s.tokens == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, http_utils.NewBaseResponse(false, "authentication is not configured"))
		return
	}

	header := c.Request.Header.Get("authorization")

	if header == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, http_utils.NewBaseResponse(false, "unauthorized"))
		return
	}

	sArr := strings.Fields(header)

	if len(sArr) != 2 || !strings.EqualFold(sArr[0], "bearer") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, http_utils.NewBaseResponse(false, "unauthorized"))
		return
	}

	payload, err := s.tokens.VerifyToken(sArr[1])

	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, http_utils.NewBaseResponse(false, "invalid bearer token"))
		return
	}

	c.Set(string(authContextKey), payload)

	c.Next()
}

// RequestLogger logs every request once it completes.
func (s *Server) RequestLogger(c *gin.Context) {
	start := time.Now()

	c.Next()

	s.logger.Debug("request",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", c.Writer.Status()),
		zap.Duration("took", time.Since(start)))
}
