package identity

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/murmurhq/murmur/internal/media"
)

// ProfileResponse is the wire shape of a user. Challenge state is never
// serialized. Email and phone appear only on private views.
type ProfileResponse struct {
	ID          string    `json:"id"`
	Handle      string    `json:"handle"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	BannerURL   string    `json:"banner_url,omitempty"`
	Role        string    `json:"role"`
	Verified    bool      `json:"verified"`
	Following   []string  `json:"following"`
	Followers   []string  `json:"followers"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewProfileResponse converts a user to its wire shape. private controls
// whether contact fields are included.
func NewProfileResponse(user User, private bool) ProfileResponse {
	resp := ProfileResponse{
		ID:          user.ID,
		Handle:      user.Handle,
		DisplayName: user.DisplayName,
		AvatarURL:   user.AvatarURL,
		BannerURL:   user.BannerURL,
		Role:        user.Role,
		Verified:    user.Verified,
		Following:   user.Following,
		Followers:   user.Followers,
		CreatedAt:   user.CreatedAt,
	}
	if resp.Following == nil {
		resp.Following = []string{}
	}
	if resp.Followers == nil {
		resp.Followers = []string{}
	}
	if private {
		resp.Email = user.Email
		resp.Phone = user.Phone
	}
	return resp
}

// Handler exposes the authenticated profile endpoints.
type Handler struct {
	svc *Service
}

// NewHandler builds a profile HTTP handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Me returns the caller's own profile.
func (h *Handler) Me(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	user, err := h.svc.Get(c.UserContext(), userID)
	if err != nil {
		return profileError(err)
	}
	return c.Status(http.StatusOK).JSON(NewProfileResponse(user, true))
}

// UpdateMe edits profile fields and accepts multipart avatar/banner uploads.
func (h *Handler) UpdateMe(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)

	update := ProfileUpdate{
		Handle:      c.FormValue("handle"),
		DisplayName: c.FormValue("display_name"),
		Phone:       c.FormValue("phone"),
	}

	avatar, err := formFileBytes(c, "avatar")
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	banner, err := formFileBytes(c, "banner")
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	user, err := h.svc.UpdateProfile(c.UserContext(), userID, update, avatar, banner)
	if err != nil {
		return profileError(err)
	}
	return c.Status(http.StatusOK).JSON(NewProfileResponse(user, true))
}

// DeleteMe removes the caller's profile, posts, and follow edges.
func (h *Handler) DeleteMe(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if err := h.svc.Delete(c.UserContext(), userID); err != nil {
		return profileError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": "deleted"})
}

func formFileBytes(c *fiber.Ctx, field string) ([]byte, error) {
	header, err := c.FormFile(field)
	if err != nil {
		// Absent file means no change requested.
		return nil, nil
	}
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func profileError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrHandleTaken), errors.Is(err, ErrEmailTaken):
		return fiber.NewError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidInput):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, media.ErrUploadFailed):
		return fiber.NewError(http.StatusBadGateway, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
