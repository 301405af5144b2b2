package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/99minutos/auth-service/internal/core/domain"
	"github.com/99minutos/auth-service/internal/core/ports"
)

// AccessVerifier is the part of the token service the gate needs.
type AccessVerifier interface {
	VerifyAccess(token string) (*domain.Claims, error)
}

// Requirement narrows what a verified caller must hold. The zero value
// accepts any authenticated caller.
type Requirement struct {
	Admin      bool
	Capability string
}

// Gate runs the per-request authorization pipeline.
type Gate struct {
	tokens    AccessVerifier
	blacklist ports.Blacklist
	log       zerolog.Logger
}

func NewGate(tokens AccessVerifier, blacklist ports.Blacklist, log zerolog.Logger) *Gate {
	return &Gate{tokens: tokens, blacklist: blacklist, log: log}
}

// Authorize extracts the bearer token from header, verifies it, checks the
// blacklist, then applies req. Capability checks use the claims snapshot.
func (g *Gate) Authorize(ctx context.Context, header string, req Requirement) (*domain.Claims, error) {
	token, ok := ExtractBearer(header)
	if !ok {
		return nil, domain.ErrMissingToken
	}

	claims, err := g.tokens.VerifyAccess(token)
	if err != nil {
		return nil, err
	}

	revoked, err := g.blacklist.IsBlacklisted(ctx, claims.ID)
	if err != nil {
		// fail closed
		g.log.Error().Err(err).Str("jti", claims.ID).Msg("blacklist lookup failed")
		return nil, fmt.Errorf("%w: blacklist unavailable", domain.ErrTokenRevoked)
	}
	if revoked {
		return nil, domain.ErrTokenRevoked
	}

	if req.Admin && !claims.IsAdmin {
		return nil, domain.ErrNotAdmin
	}
	if req.Capability != "" && !claims.HasCapability(req.Capability) {
		return nil, fmt.Errorf("%w: %s", domain.ErrMissingCapability, req.Capability)
	}
	return claims, nil
}
