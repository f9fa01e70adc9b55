package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/murmurhq/murmur/internal/auth"
	"github.com/murmurhq/murmur/internal/config"
	"github.com/murmurhq/murmur/internal/graph"
	"github.com/murmurhq/murmur/internal/identity"
	"github.com/murmurhq/murmur/internal/mailer"
	"github.com/murmurhq/murmur/internal/media"
	"github.com/murmurhq/murmur/internal/middleware"
	"github.com/murmurhq/murmur/internal/otp"
	"github.com/murmurhq/murmur/internal/post"
)

// Deps aggregates shared dependencies required to wire routes. Notifier and
// Blobs may be preset (tests inject recorders); when nil they are derived
// from the config.
type Deps struct {
	Cfg      config.Config
	DB       *pgxpool.Pool
	Cache    *redis.Client
	Logger   *slog.Logger
	Notifier mailer.Notifier
	Blobs    media.Store
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though config also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))

	// Health
	RegisterHealthRoutes(app, d)

	// Repositories
	var users identity.Repository
	if d.DB != nil {
		users = identity.NewPostgresRepository(d.DB)
	} else {
		users = identity.NewMemoryRepository()
	}
	var posts post.Repository
	if d.DB != nil {
		posts = post.NewPostgresRepository(d.DB)
	} else {
		posts = post.NewMemoryRepository()
	}

	// Collaborators
	blobs := d.Blobs
	if blobs == nil {
		blobs = media.NewStaticStore(d.Cfg.MediaBaseURL)
	}
	notifier := d.Notifier
	if notifier == nil {
		if d.Cfg.SMTPHost != "" {
			notifier = mailer.NewSMTPNotifier(d.Cfg.SMTPHost, d.Cfg.SMTPPort,
				d.Cfg.SMTPUser, d.Cfg.SMTPPass, d.Cfg.SenderEmail)
		} else {
			notifier = mailer.NewLogNotifier(d.Logger)
		}
	}

	// Services and handlers
	engine := otp.NewEngine(users, notifier, d.Cfg.OTPTTL, d.Logger)
	signer := auth.NewSigner(d.Cfg.JWTSecret, d.Cfg.SessionTTL)
	idsSvc := identity.NewService(users, blobs, posts)
	authSvc := auth.NewService(idsSvc, users, engine, signer)
	postSvc := post.NewService(posts, blobs)
	coordinator := graph.NewCoordinator(users)

	authHandler := auth.NewHandler(authSvc)
	profileHandler := identity.NewHandler(idsSvc)
	graphHandler := graph.NewHandler(coordinator)
	postHandler := post.NewHandler(postSvc)

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Public routes
	cooldown := middleware.ResendCooldown(d.Cache, d.Cfg.ResendCooldown)
	RegisterAuthRoutes(api, authHandler, cooldown)
	RegisterProfileRoutes(api, idsSvc, postSvc)
	RegisterPublicPostRoutes(api, postHandler)

	// Protected routes
	guard := middleware.RequireAuth(signer, users)
	protected := api.Group("", guard, middleware.Audit(d.Logger))
	if d.Cache != nil {
		protected.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}
	protected.Post("/auth/logout", authHandler.Logout)
	RegisterMeRoutes(protected, profileHandler)
	RegisterGraphRoutes(protected, graphHandler)
	RegisterPostRoutes(protected, postHandler)

	return nil
}
