package middleware

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/murmurhq/murmur/internal/auth"
	"github.com/murmurhq/murmur/internal/identity"
)

func guardedApp(t *testing.T, signer *auth.Signer, repo identity.Repository) *fiber.App {
	t.Helper()
	app := fiber.New()
	app.Get("/me", RequireAuth(signer, repo), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"user_id": c.Locals("user_id"), "role": c.Locals("role")})
	})
	return app
}

func seedGuardUser(t *testing.T, repo identity.Repository) identity.User {
	t.Helper()
	user := identity.User{
		ID:       uuid.NewString(),
		Handle:   "nadia",
		Email:    "nadia@example.com",
		Role:     identity.RoleUser,
		Verified: true,
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func TestRequireAuthRejectsMissingHeader(t *testing.T) {
	repo := identity.NewMemoryRepository()
	app := guardedApp(t, auth.NewSigner("topsecret", time.Hour), repo)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/me", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected %d got %d", fiber.StatusUnauthorized, resp.StatusCode)
	}
}

func TestRequireAuthRejectsGarbageToken(t *testing.T) {
	repo := identity.NewMemoryRepository()
	app := guardedApp(t, auth.NewSigner("topsecret", time.Hour), repo)

	req := httptest.NewRequest(fiber.MethodGet, "/me", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer not-a-token")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected %d got %d", fiber.StatusUnauthorized, resp.StatusCode)
	}
}

func TestRequireAuthRejectsExpiredToken(t *testing.T) {
	repo := identity.NewMemoryRepository()
	user := seedGuardUser(t, repo)
	signer := auth.NewSigner("topsecret", -time.Minute)
	app := guardedApp(t, signer, repo)

	token, err := signer.Issue(user.ID, user.Role)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	req := httptest.NewRequest(fiber.MethodGet, "/me", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected %d got %d", fiber.StatusUnauthorized, resp.StatusCode)
	}
}

func TestRequireAuthRejectsDeletedUser(t *testing.T) {
	repo := identity.NewMemoryRepository()
	signer := auth.NewSigner("topsecret", time.Hour)
	app := guardedApp(t, signer, repo)

	// Valid signature, but the subject never existed in the store.
	token, err := signer.Issue(uuid.NewString(), identity.RoleUser)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	req := httptest.NewRequest(fiber.MethodGet, "/me", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected %d got %d", fiber.StatusUnauthorized, resp.StatusCode)
	}
}

func TestRequireAuthAdmitsValidToken(t *testing.T) {
	repo := identity.NewMemoryRepository()
	user := seedGuardUser(t, repo)
	signer := auth.NewSigner("topsecret", time.Hour)
	app := guardedApp(t, signer, repo)

	token, err := signer.Issue(user.ID, user.Role)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	req := httptest.NewRequest(fiber.MethodGet, "/me", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected %d got %d", fiber.StatusOK, resp.StatusCode)
	}
}
