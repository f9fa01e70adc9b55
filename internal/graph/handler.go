package graph

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/murmurhq/murmur/internal/identity"
)

// Handler exposes follow/unfollow endpoints. The actor is the authenticated
// caller resolved by the access guard.
type Handler struct {
	coord *Coordinator
}

// NewHandler builds a follow-graph HTTP handler.
func NewHandler(coord *Coordinator) *Handler {
	return &Handler{coord: coord}
}

type edgeRequest struct {
	TargetID string `json:"target_id"`
}

// Follow adds an edge from the caller to the target user.
func (h *Handler) Follow(c *fiber.Ctx) error {
	actorID, _ := c.Locals("user_id").(string)
	var req edgeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.TargetID == "" {
		return fiber.NewError(http.StatusBadRequest, "target_id is required")
	}
	if err := h.coord.Follow(c.UserContext(), actorID, req.TargetID); err != nil {
		return edgeError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": "ok"})
}

// Unfollow removes the edge from the caller to the target user.
func (h *Handler) Unfollow(c *fiber.Ctx) error {
	actorID, _ := c.Locals("user_id").(string)
	var req edgeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.TargetID == "" {
		return fiber.NewError(http.StatusBadRequest, "target_id is required")
	}
	if err := h.coord.Unfollow(c.UserContext(), actorID, req.TargetID); err != nil {
		return edgeError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": "ok"})
}

func edgeError(err error) error {
	switch {
	case errors.Is(err, ErrSelfFollow),
		errors.Is(err, identity.ErrAlreadyFollowing),
		errors.Is(err, identity.ErrNotFollowing):
		return fiber.NewError(http.StatusConflict, err.Error())
	case errors.Is(err, identity.ErrNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
