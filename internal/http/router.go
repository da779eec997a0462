// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/xandme/xandme-backend/internal/cache"
	"github.com/xandme/xandme-backend/internal/config"
	"github.com/xandme/xandme-backend/internal/domain"
	"github.com/xandme/xandme-backend/internal/http/handlers"
	"github.com/xandme/xandme-backend/internal/http/middleware"
	"github.com/xandme/xandme-backend/internal/repo"
	"github.com/xandme/xandme-backend/internal/services"
)

// chatRepoShim adapts the repository free functions to the services.ChatRepo
// interface expected by the ChatService. This keeps services decoupled from
// the concrete repo package while reusing existing functions.
type chatRepoShim struct{}

// CreateChat proxies repo.CreateChat.
func (chatRepoShim) CreateChat(ctx context.Context, db *gorm.DB, userID, title, focusMode string) (*domain.Chat, error) {
	return repo.CreateChat(ctx, db, userID, title, focusMode)
}

// ListChats proxies repo.ListChats.
func (chatRepoShim) ListChats(ctx context.Context, db *gorm.DB, userID string) ([]domain.Chat, error) {
	return repo.ListChats(ctx, db, userID)
}

// GetChat proxies repo.GetChat.
func (chatRepoShim) GetChat(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Chat, error) {
	return repo.GetChat(ctx, db, id, userID)
}

// UpdateChatTitle proxies repo.UpdateChatTitle.
func (chatRepoShim) UpdateChatTitle(ctx context.Context, db *gorm.DB, id, userID, title string) error {
	return repo.UpdateChatTitle(ctx, db, id, userID, title)
}

// DeleteChat proxies repo.DeleteChat.
func (chatRepoShim) DeleteChat(ctx context.Context, db *gorm.DB, id, userID string) error {
	return repo.DeleteChat(ctx, db, id, userID)
}

// CountChats proxies repo.CountChats (pagination support).
func (chatRepoShim) CountChats(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	return repo.CountChats(ctx, db, userID)
}

// ListChatsPage proxies repo.ListChatsPage (pagination support).
func (chatRepoShim) ListChatsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Chat, error) {
	return repo.ListChatsPage(ctx, db, userID, offset, limit)
}

// Dependencies carries the external collaborators the HTTP layer needs beyond
// the database: the reasoning backend, the directory cache, object storage,
// the payments gateway and webhook verifiers. Nil members leave the matching
// endpoints in "not configured" mode; the services handle that themselves.
type Dependencies struct {
	Assistant services.AssistantClient
	Cache     *cache.Store
	Objects   services.ObjectStore
	Gateway   services.PaymentGateway
	Stripe    services.EventVerifier
	Identity  services.WebhookVerifier
	Log       zerolog.Logger
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), idempotency and rate
// limiting, CORS and security headers, health and metrics endpoints, and then
// mounts the versioned public API under /api/v* plus the provider webhooks at
// the root.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Response compression
//  7. Metrics
//  8. Idempotency validator (before rate limiter to allow bypass on replay)
//  9. Rate limiter (per user/IP, bypass on replay)
//  10. CORS and Security headers
//  11. Bearer-token auth (no-op without a configured secret)
func RegisterRoutes(r *gin.Engine, db *gorm.DB, deps Dependencies, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{
			"X-API-Key", // project-specific sensitive header example
		},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (document uploads go up to 20 MiB, plus
	// multipart overhead)
	r.Use(limitBody(21 << 20))

	// 6) Compress responses (directory listings are large and repetitive)
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	// 7) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 8) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{
			MaxLen: 200,
		},
		func(ctx context.Context, userID, scope, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, userID, scope, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))

	// 9) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 10) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// 11) Bearer-token verification; a no-op when JWT_SECRET is unset so dev
	// setups keep working with the X-User-ID fallback.
	r.Use(middleware.Auth(cfg.JWTSecret))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Swagger UI (explicitly opt-in, never in production by default).
	// Requires the docs generated by `swag init -g cmd/server/main.go`.
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db/collaborators
	chatSvc := services.NewChatService(db, chatRepoShim{})
	msgSvc := &services.MessageService{
		DB:             db,
		Assistant:      deps.Assistant,
		MaxPromptRunes: 2000,
		TitleMaxLen:    60,
		TitleLocale:    language.French,
	}
	dirSvc := services.NewDirectoryService(db, deps.Cache)
	contactSvc := services.NewContactService(db, dirSvc, deps.Log)
	appSvc := services.NewApplicationService(db)
	wizardSvc := services.NewWizardService(db, deps.Assistant, chatRepoShim{}, deps.Log)
	paySvc := services.NewPaymentService(db, deps.Gateway, deps.Stripe, deps.Log)
	identitySvc := services.NewIdentityService(db, deps.Identity, deps.Log)
	uploadSvc := services.NewUploadService(db, deps.Objects, cfg.BlockedCountries, deps.Log)
	profileSvc := services.NewProfileService(db)

	h := handlers.New(handlers.Services{
		Chats:       chatSvc,
		Messages:    msgSvc,
		Directory:   dirSvc,
		Contacts:    contactSvc,
		Application: appSvc,
		Wizard:      wizardSvc,
		Payments:    paySvc,
		Identity:    identitySvc,
		Uploads:     uploadSvc,
		Profiles:    profileSvc,
	})

	// Provider webhooks live outside the versioned API: the URLs are
	// registered with Stripe/the identity provider and must stay stable.
	r.POST("/webhooks/stripe", h.StripeWebhook)
	r.POST("/webhooks/identity", h.IdentityWebhook)

	// Public API
	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	api := groupWithPrefix(r, apiBase)
	{
		// Expert directory (public). /experts/facets is served by GetExpert,
		// which special-cases the literal segment.
		api.GET("/experts", h.ListExperts)
		api.GET("/experts/:idExpert", h.GetExpert)

		// Expert onboarding (public form)
		api.POST("/applications", h.SubmitApplication)

		// Research wizard catalogs (public; running one is gated below)
		api.GET("/research/catalog", h.ResearchCatalog)

		// Everything below acts on behalf of a user. With a configured JWT
		// secret the group demands a verified identity; without one the
		// handlers fall back to the demo identity header.
		authed := api.Group("")
		if cfg.JWTSecret != "" {
			authed.Use(middleware.RequireAuth())
		}
		{
			// Contact requests
			authed.POST("/experts/:idExpert/contact", h.ContactExpert)
			authed.GET("/contacts", h.ListContacts)

			// Chats
			authed.POST("/chats", h.CreateChat)
			authed.GET("/chats", h.ListChats)
			authed.PUT("/chats/:id/title", h.UpdateChatTitle)
			authed.DELETE("/chats/:id", h.DeleteChat)

			// Messages
			authed.GET("/chats/:id/messages", h.ListMessages)
			authed.POST("/chats/:id/messages", h.PostMessage)

			// Research wizard
			authed.POST("/research", h.RunResearch)

			// Billing and credits
			authed.POST("/billing/checkout", h.Checkout)
			authed.GET("/me/credits", h.MyCredits)

			// Documents
			authed.POST("/documents", h.UploadDocument)
			authed.GET("/documents", h.ListDocuments)
		}
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
