package v1

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/adanyl0v/go-task-assign/internal/models"
)

const actorCtxKey = "actor"

// actorClaims are issued by the identity service. The subject is the
// user id.
type actorClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (h *handlerImpl) HandleAuthMiddleware(c *gin.Context) {
	const authHeader = "Authorization"
	header := c.GetHeader(authHeader)
	if header == "" {
		h.logger.Debug().Msg("authorization header required")
		abort(c, newUnauthorizedError("authorization header required"))
		return
	}

	const bearerPrefix = "Bearer"
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != bearerPrefix {
		h.logger.Debug().Msg("invalid authorization header")
		abort(c, newUnauthorizedError("invalid authorization header"))
		return
	}

	actor, err := h.parseActor(parts[1])
	if err != nil {
		h.logger.Info().
			Err(err).
			Msg("failed to parse token")
		abort(c, newUnauthorizedError("invalid token"))
		return
	}

	c.Set(actorCtxKey, actor)
	c.Next()
}

func (h *handlerImpl) parseActor(tokenString string) (models.Actor, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if h.jwtIssuer != "" {
		opts = append(opts, jwt.WithIssuer(h.jwtIssuer))
	}

	claims := &actorClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return h.jwtSigningKey, nil
	}, opts...)
	if err != nil {
		return models.Actor{}, fmt.Errorf("invalid token: %w", err)
	}

	if claims.Subject == "" {
		return models.Actor{}, errors.New("token has no subject")
	}

	role := models.Role(claims.Role)
	switch role {
	case "":
		role = models.RoleUser
	case models.RoleUser, models.RoleAdmin:
	default:
		return models.Actor{}, fmt.Errorf("unknown role %q", claims.Role)
	}
	return models.Actor{ID: claims.Subject, Role: role}, nil
}

func actorFromContext(c *gin.Context) (models.Actor, bool) {
	value, exists := c.Get(actorCtxKey)
	if !exists {
		return models.Actor{}, false
	}
	actor, ok := value.(models.Actor)
	return actor, ok
}
