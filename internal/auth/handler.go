package auth

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/murmurhq/murmur/internal/identity"
	"github.com/murmurhq/murmur/internal/otp"
)

// Handler exposes the passwordless auth endpoints.
type Handler struct {
	svc *Service
}

// NewHandler builds an auth HTTP handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type registerRequest struct {
	Handle      string `json:"handle"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
}

// Register creates an unverified profile and emails its first OTP.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	user, err := h.svc.Register(c.UserContext(), identity.RegisterInput{
		Handle:      req.Handle,
		DisplayName: req.DisplayName,
		Email:       req.Email,
		Phone:       req.Phone,
	})
	if err != nil {
		return flowError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"status":  "pending",
		"user_id": user.ID,
		"message": "verification code sent to your email",
	})
}

type verifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// Verify consumes a pending OTP (either flow) and returns a session token.
func (h *Handler) Verify(c *fiber.Ctx) error {
	var req verifyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	session, err := h.svc.Verify(c.UserContext(), req.Email, req.Code)
	if err != nil {
		return flowError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"token": session.Token,
		"flow":  session.Flow,
		"user":  identity.NewProfileResponse(session.User, true),
	})
}

type loginRequest struct {
	Email string `json:"email"`
}

// Login issues a login challenge for a verified profile.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Login(c.UserContext(), req.Email); err != nil {
		return flowError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"status":  "pending",
		"message": "login code sent to your email",
	})
}

type resendRequest struct {
	Email string `json:"email"`
	Flow  string `json:"flow"`
}

// Resend supersedes the pending challenge with a fresh code.
func (h *Handler) Resend(c *fiber.Ctx) error {
	var req resendRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Resend(c.UserContext(), req.Email, req.Flow); err != nil {
		return flowError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": "pending", "message": "code resent"})
}

// Logout acknowledges a client-side token discard. Tokens are stateless, so
// there is nothing to revoke server-side.
func (h *Handler) Logout(c *fiber.Ctx) error {
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": "logged_out"})
}

func flowError(err error) error {
	switch {
	case errors.Is(err, identity.ErrInvalidInput):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, identity.ErrEmailTaken), errors.Is(err, identity.ErrHandleTaken),
		errors.Is(err, otp.ErrAlreadyVerified):
		return fiber.NewError(http.StatusConflict, err.Error())
	case errors.Is(err, identity.ErrNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, otp.ErrUnverified):
		return fiber.NewError(http.StatusForbidden, err.Error())
	case errors.Is(err, otp.ErrNoActiveChallenge), errors.Is(err, otp.ErrChallengeExpired),
		errors.Is(err, otp.ErrCodeMismatch):
		return fiber.NewError(http.StatusUnauthorized, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
