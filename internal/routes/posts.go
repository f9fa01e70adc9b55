package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/murmurhq/murmur/internal/post"
)

// RegisterPublicPostRoutes wires the unauthenticated post feeds.
func RegisterPublicPostRoutes(r fiber.Router, h *post.Handler) {
	r.Get("/posts", h.List)
	r.Get("/posts/user/:userID", h.ByAuthor)
	r.Get("/posts/:id/comments", h.Comments)
}

// RegisterPostRoutes wires the authenticated post mutations.
func RegisterPostRoutes(r fiber.Router, h *post.Handler) {
	r.Post("/posts", h.Create)
	r.Get("/posts/mine", h.Mine)
	r.Put("/posts/:id", h.Update)
	r.Delete("/posts/:id", h.Delete)
	r.Post("/posts/:id/like", h.Like)
	r.Post("/posts/:id/comments", h.Comment)
}
