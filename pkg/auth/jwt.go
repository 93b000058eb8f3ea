package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/okatech-org/consulat-scheduling/internal/config"
	"github.com/okatech-org/consulat-scheduling/internal/model"
)

// ActorClaims are the token claims this service consumes. Token issuance
// lives in the identity service; this side only validates and, for tests,
// generates.
type ActorClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

type TokenService struct {
	secret []byte
	expiry time.Duration
}

func NewTokenService(cfg config.JWTConfig) *TokenService {
	return &TokenService{
		secret: []byte(cfg.Secret),
		expiry: time.Duration(cfg.ExpiryHours) * time.Hour,
	}
}

// Generate signs a token for the actor. Used by tests and tooling; the
// production issuer is external.
func (s *TokenService) Generate(actor model.Actor) (string, error) {
	now := time.Now()
	claims := ActorClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
		Role: actor.Role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Validate parses and verifies the token and returns the actor it carries.
func (s *TokenService) Validate(tokenString string) (model.Actor, error) {
	var claims ActorClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return model.Actor{}, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return model.Actor{}, fmt.Errorf("invalid token")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return model.Actor{}, fmt.Errorf("invalid subject claim: %w", err)
	}

	return model.Actor{ID: userID, Role: claims.Role}, nil
}
