package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-assessment-api/internal/config"
	"github.com/noah-isme/gema-assessment-api/internal/grading"
	"github.com/noah-isme/gema-assessment-api/internal/handler"
	"github.com/noah-isme/gema-assessment-api/internal/middleware"
	"github.com/noah-isme/gema-assessment-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	SubmissionHandler *handler.SubmissionHandler
	AttemptHandler    *handler.AttemptHandler
	StatsHandler      *handler.StatsHandler
	ActivityHandler   *handler.ActivityHandler
	HealthProbes      map[string]handler.HealthProbe
	Logger            zerolog.Logger
	JWTMiddleware     fiber.Handler
	WriteLimiter      fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes, deps.Logger))

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = middleware.JWTProtected(cfg.JWTSecret)
	}
	writeLimiter := deps.WriteLimiter
	if writeLimiter == nil {
		writeLimiter = middleware.RateLimit("grading-write", cfg.SubmitRateLimit, rateWindow(cfg))
	}

	students := middleware.RequireRole(grading.RoleStudent)
	graders := middleware.RequireRole(grading.RoleTeacher, grading.RoleAdmin)

	if h := deps.SubmissionHandler; h != nil {
		api.Post("/assignments/:id/submission", jwtMiddleware, students, writeLimiter, h.Submit)
		api.Get("/assignments/:id/submissions", jwtMiddleware, graders, h.ListByAssignment)
		api.Get("/submissions/:id", jwtMiddleware, h.Get)
		api.Patch("/submissions/:id/grade", jwtMiddleware, graders, h.Grade)
	}

	if h := deps.AttemptHandler; h != nil {
		api.Post("/quizzes/:id/attempts", jwtMiddleware, students, writeLimiter, h.StartOrSubmit)
		api.Get("/quizzes/:id/attempts", jwtMiddleware, graders, h.ListByQuiz)
		api.Get("/attempts/:id", jwtMiddleware, h.Get)
		api.Patch("/attempts/:id/grade", jwtMiddleware, graders, h.Grade)
	}

	if h := deps.StatsHandler; h != nil {
		api.Get("/assignments/:id/stats", jwtMiddleware, graders, h.Assignment)
		api.Get("/quizzes/:id/stats", jwtMiddleware, graders, h.Quiz)
	}

	if h := deps.ActivityHandler; h != nil {
		api.Get("/activity", jwtMiddleware, middleware.RequireRole(grading.RoleAdmin), h.List)
	}
}

func rateWindow(cfg config.Config) time.Duration {
	if cfg.RateLimitWindow > 0 {
		return cfg.RateLimitWindow
	}
	return time.Minute
}
