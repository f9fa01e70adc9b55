package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/murmurhq/murmur/internal/graph"
)

// RegisterGraphRoutes wires the follow/unfollow endpoints.
func RegisterGraphRoutes(r fiber.Router, h *graph.Handler) {
	r.Post("/follow", h.Follow)
	r.Post("/unfollow", h.Unfollow)
}
