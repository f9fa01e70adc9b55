package routes

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/murmurhq/murmur/internal/identity"
	"github.com/murmurhq/murmur/internal/post"
)

// RegisterProfileRoutes wires the public profile endpoints. Public views never
// include contact details or challenge state.
func RegisterProfileRoutes(r fiber.Router, ids *identity.Service, posts *post.Service) {
	r.Get("/profiles", func(c *fiber.Ctx) error {
		users, err := ids.List(c.UserContext())
		if err != nil {
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
		out := make([]identity.ProfileResponse, 0, len(users))
		for _, user := range users {
			out = append(out, identity.NewProfileResponse(user, false))
		}
		return c.Status(http.StatusOK).JSON(fiber.Map{"profiles": out})
	})

	r.Get("/profiles/:id", func(c *fiber.Ctx) error {
		user, err := ids.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			if errors.Is(err, identity.ErrNotFound) {
				return fiber.NewError(http.StatusNotFound, err.Error())
			}
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
		authored, err := posts.ListByAuthor(c.UserContext(), user.ID)
		if err != nil {
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"profile": identity.NewProfileResponse(user, false),
			"posts":   post.NewListResponse(authored),
		})
	})
}

// RegisterMeRoutes wires the authenticated self-profile endpoints.
func RegisterMeRoutes(r fiber.Router, h *identity.Handler) {
	r.Get("/me", h.Me)
	r.Put("/me", h.UpdateMe)
	r.Delete("/me", h.DeleteMe)
}
