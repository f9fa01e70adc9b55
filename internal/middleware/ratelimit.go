package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// ResendCooldown throttles OTP issuance per email and flow using Redis. The
// first request within the window wins; later ones get 429 until the key
// expires. Without Redis, or on cache errors, the limiter fails open — the
// cooldown is a hardening layer, not a correctness requirement.
func ResendCooldown(cache *redis.Client, window time.Duration) fiber.Handler {
	if window <= 0 {
		window = 30 * time.Second
	}
	return func(c *fiber.Ctx) error {
		if cache == nil {
			return c.Next()
		}
		var req struct {
			Email string `json:"email"`
			Flow  string `json:"flow"`
		}
		_ = c.BodyParser(&req)
		email := strings.ToLower(strings.TrimSpace(req.Email))
		if email == "" {
			return c.Next() // handler will reject the malformed request
		}
		flow := req.Flow
		if flow == "" {
			flow = "login"
		}

		key := "otp:cooldown:" + flow + ":" + email
		ok, err := cache.SetNX(c.UserContext(), key, 1, window).Result()
		if err != nil {
			return c.Next() // fail-open on cache errors
		}
		if !ok {
			return fiber.NewError(http.StatusTooManyRequests, "a code was sent recently, wait before requesting another")
		}
		return c.Next()
	}
}
