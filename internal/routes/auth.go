package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/murmurhq/murmur/internal/auth"
)

// RegisterAuthRoutes wires the passwordless authentication endpoints. The
// resend endpoint carries the server-side cooldown.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, cooldown fiber.Handler) {
	group := r.Group("/auth")
	group.Post("/register", h.Register)
	group.Post("/verify-email", h.Verify)
	group.Post("/login", h.Login)
	group.Post("/verify-login", h.Verify)
	if cooldown != nil {
		group.Post("/resend-otp", cooldown, h.Resend)
	} else {
		group.Post("/resend-otp", h.Resend)
	}
}
