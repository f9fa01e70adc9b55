package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/murmurhq/murmur/internal/auth"
	"github.com/murmurhq/murmur/internal/identity"
)

// RequireAuth is the access guard: it validates the presented session token,
// resolves it to a live identity, and stashes user_id and role in the request
// locals. It establishes identity only; it does not authorize operations.
func RequireAuth(signer *auth.Signer, repo identity.Repository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, auth.ErrMissingToken.Error())
		}
		tokenStr := strings.TrimSpace(authz[len("Bearer "):])

		claims, err := signer.Verify(tokenStr)
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				return fiber.NewError(http.StatusUnauthorized, auth.ErrTokenExpired.Error())
			}
			return fiber.NewError(http.StatusUnauthorized, auth.ErrInvalidToken.Error())
		}

		// A signed token for a deleted identity no longer resolves.
		user, err := repo.FindByID(c.UserContext(), claims.Subject)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, auth.ErrInvalidToken.Error())
		}

		c.Locals("user_id", user.ID)
		c.Locals("role", user.Role)
		return c.Next()
	}
}
