package auth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/timebank/internal/domain"
	apperrors "github.com/spec-kit/timebank/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	UserID   string
	UserType domain.UserType
	Token    string
}

// Refresher validates a bearer token and slides its expiry.
type Refresher interface {
	ValidateAndRefresh(ctx context.Context, token string) (*domain.Token, error)
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	tokens Refresher
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens Refresher) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return apperrors.NewAuthenticationRequired()
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
		return apperrors.NewAuthenticationRequired()
	}
	tokenStr := strings.TrimSpace(parts[1])

	token, err := m.tokens.ValidateAndRefresh(c.UserContext(), tokenStr)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if token == nil {
		return apperrors.NewInvalidToken()
	}

	c.Locals(principalKey, &Principal{
		UserID:   token.UserID,
		UserType: token.UserType,
		Token:    token.Token,
	})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok && principal != nil
}
