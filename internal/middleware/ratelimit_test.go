package middleware

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

func cooldownApp(t *testing.T, window time.Duration) (*fiber.App, *miniredis.Miniredis, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	app := fiber.New()
	app.Post("/resend", ResendCooldown(cache, window), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"sent": true})
	})

	cleanup := func() {
		cache.Close()
		mr.Close()
	}
	return app, mr, cleanup
}

func postResend(t *testing.T, app *fiber.App, body string) int {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, "/resend", strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	return resp.StatusCode
}

func TestResendCooldownThrottlesRepeats(t *testing.T) {
	app, _, cleanup := cooldownApp(t, 30*time.Second)
	defer cleanup()

	body := `{"email":"nadia@example.com","flow":"register"}`
	if status := postResend(t, app, body); status != fiber.StatusOK {
		t.Fatalf("first request: expected %d got %d", fiber.StatusOK, status)
	}
	if status := postResend(t, app, body); status != fiber.StatusTooManyRequests {
		t.Fatalf("second request: expected %d got %d", fiber.StatusTooManyRequests, status)
	}
}

func TestResendCooldownExpires(t *testing.T) {
	app, mr, cleanup := cooldownApp(t, 30*time.Second)
	defer cleanup()

	body := `{"email":"nadia@example.com","flow":"login"}`
	if status := postResend(t, app, body); status != fiber.StatusOK {
		t.Fatalf("first request: expected %d got %d", fiber.StatusOK, status)
	}

	mr.FastForward(31 * time.Second)

	if status := postResend(t, app, body); status != fiber.StatusOK {
		t.Fatalf("after window: expected %d got %d", fiber.StatusOK, status)
	}
}

func TestResendCooldownScopesByFlowAndEmail(t *testing.T) {
	app, _, cleanup := cooldownApp(t, 30*time.Second)
	defer cleanup()

	if status := postResend(t, app, `{"email":"nadia@example.com","flow":"register"}`); status != fiber.StatusOK {
		t.Fatalf("register: expected %d got %d", fiber.StatusOK, status)
	}
	// Same email on a different flow has its own window.
	if status := postResend(t, app, `{"email":"nadia@example.com","flow":"login"}`); status != fiber.StatusOK {
		t.Fatalf("login: expected %d got %d", fiber.StatusOK, status)
	}
	// Another address is never throttled by the first one.
	if status := postResend(t, app, `{"email":"bob@example.com","flow":"register"}`); status != fiber.StatusOK {
		t.Fatalf("other email: expected %d got %d", fiber.StatusOK, status)
	}
}

func TestResendCooldownFailsOpenWithoutCache(t *testing.T) {
	app := fiber.New()
	app.Post("/resend", ResendCooldown(nil, 30*time.Second), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"sent": true})
	})

	body := `{"email":"nadia@example.com"}`
	for i := 0; i < 3; i++ {
		if status := postResend(t, app, body); status != fiber.StatusOK {
			t.Fatalf("request %d: expected %d got %d", i, fiber.StatusOK, status)
		}
	}
}
