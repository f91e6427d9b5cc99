package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/Hackeries/AlgoRise-sub002/app/controllers"
	"github.com/Hackeries/AlgoRise-sub002/internal/pkg/middleware"
	"github.com/Hackeries/AlgoRise-sub002/internal/pkg/ratelimit"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	// The webhook endpoint carries its own sliding-window limiter so that a
	// retry storm from the payment provider cannot starve the rest of the API.
	controllers.InitializeWebhookController(nil, ratelimit.NewFromEnv(time.Minute, 100), nil)

	api := app.Group("/api", limiter.New(limiter.Config{
		Max:        300,
		Expiration: time.Minute,
	}))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	// Documented external paths. The payment provider dashboard and search
	// clients are configured against these; the v1 group carries the same
	// handlers for API consumers that version their calls.
	api.Post("/webhooks/razorpay", controllers.HandleRazorpayWebhook)
	api.Get("/search", controllers.HandleSearch)

	v1 := api.Group("/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.Post("/register", controllers.HandleRegister)
	auth.Post("/login", controllers.HandleLogin)
	auth.Get("/activate", controllers.HandleActivate)

	v1.Post("/payments/webhook/razorpay", controllers.HandleRazorpayWebhook)
	v1.Get("/plans", controllers.HandleListPlans)
	v1.Get("/search", controllers.HandleSearch)
	v1.Get("/leaderboard", controllers.HandleLeaderboard)

	// Routes behind API key auth
	authed := v1.Group("", middleware.APIKeyAuthMiddleware(), middleware.RequireAPIAuth)
	authed.Get("/me", controllers.HandleMe)
	authed.Post("/auth/revoke", controllers.HandleRevokeAPIKey)
	authed.Get("/leaderboard/me", controllers.HandleLeaderboardMe)

	authed.Post("/checkout/order", controllers.HandleCreateOrder)
	authed.Post("/checkout/subscription", controllers.HandleCreateSubscription)

	arena := authed.Group("/arena")
	arena.Post("/queue", controllers.HandleArenaEnqueue)
	arena.Get("/queue/:id", controllers.HandleArenaTicket)
	arena.Delete("/queue/:id", controllers.HandleArenaLeave)
	arena.Get("/matches", controllers.HandleArenaHistory)
	arena.Get("/matches/:id", controllers.HandleArenaMatch)
	arena.Post("/matches/:id/result", controllers.HandleArenaResult)
	arena.Post("/matches/:id/abort", controllers.HandleArenaAbort)

	practice := authed.Group("/practice")
	practice.Get("/recommendations", controllers.HandleRecommendations)
	practice.Post("/attempts", controllers.HandleRecordAttempt)

	authed.Post("/hints", controllers.HandleHint)
	authed.Post("/judge/verify", controllers.HandleVerifyCFHandle)

	// Admin-only maintenance routes
	admin := v1.Group("/admin", middleware.APIKeyAuthMiddleware(), middleware.RequireAdmin)
	admin.Post("/problems/sync", controllers.HandleSyncProblems)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
