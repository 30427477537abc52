package api

import (
	"github.com/gin-gonic/gin"
	"github.com/judgegodwins/chess-relay/tokens"
)

const (
	ErrorMessage500 = "Something went wrong!"
)

func GetPayload(ctx *gin.Context) (*tokens.Payload, bool) {
	v, ok := ctx.Get(string(authContextKey))

	if !ok {
		return nil, ok
	}

	payload, ok := v.(*tokens.Payload)

	return payload, ok
}
