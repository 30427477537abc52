package tokens

import (
	"fmt"
	"time"

	"github.com/judgegodwins/chess-relay/util"
)

// Maker issues and verifies player tokens.
type Maker interface {
	CreateToken(username string, duration time.Duration) (string, *Payload, error)
	VerifyToken(token string) (*Payload, error)
}

// NewMaker returns the maker configured by kind, or nil when no key is set.
func NewMaker(config *util.Config) (Maker, error) {
	if !config.TokensEnabled() {
		return nil, nil
	}

	switch config.TokenKind {
	case util.TokenKindJWT:
		return NewJWTMaker(config.JWTSecret)
	case util.TokenKindPaseto:
		return NewPasetoMaker(config.PasetoKey)
	}

	return nil, fmt.Errorf("unknown token kind %q", config.TokenKind)
}
