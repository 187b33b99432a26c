package api

import (
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/venu630/bequest/engine"
)

// DefaultBodyLimit caps request bodies, uploads included.
const DefaultBodyLimit = 20 << 20

// API wires the HTTP handlers of the navigation surface to an Engine.
type API struct {
	eng       *engine.Engine
	validate  *validator.Validate
	logger    *slog.Logger
	origin    string
	bodyLimit int
}

// Option configures an API.
type Option func(*API)

// WithLogger sets the access and error logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *API) { a.logger = l }
}

// WithCORSOrigin sets the single browser origin allowed to call the API.
func WithCORSOrigin(origin string) Option {
	return func(a *API) { a.origin = origin }
}

// WithBodyLimit sets the maximum request body size in bytes.
func WithBodyLimit(n int) Option {
	return func(a *API) {
		if n > 0 {
			a.bodyLimit = n
		}
	}
}

// New creates an API from a bequest Engine.
func New(eng *engine.Engine, opts ...Option) *API {
	a := &API{
		eng:       eng,
		validate:  newValidator(),
		logger:    eng.Coordinator().Logger(),
		origin:    eng.Coordinator().Config().CORSOrigin,
		bodyLimit: DefaultBodyLimit,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// App returns a fiber application with every route registered.
func (a *API) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "bequest",
		ErrorHandler:          a.errorHandler,
		BodyLimit:             a.bodyLimit,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(a.accessLog())
	if a.origin != "" {
		app.Use(cors.New(cors.Config{
			AllowOrigins: a.origin,
			AllowMethods: "GET, POST, PUT, OPTIONS",
			AllowHeaders: "Accept, Content-Type, Content-Length, Authorization",
		}))
	}

	a.RegisterRoutes(app)
	return app
}

// RegisterRoutes registers every bequest route on router.
func (a *API) RegisterRoutes(router fiber.Router) {
	router.Get("/health", a.health)

	v1 := router.Group("/v1")
	a.registerWorkflowRoutes(v1)
	a.registerSubmissionRoutes(v1)
	a.registerWillRoutes(v1)
	a.registerDocumentRoutes(v1)
	a.registerNotificationRoutes(v1)
	a.registerDisbursementRoutes(v1)
}

// registerWorkflowRoutes registers the allocation workflow routes.
func (a *API) registerWorkflowRoutes(router fiber.Router) {
	g := router.Group("/workflows")
	g.Get("/", a.listWorkflows)
	g.Post("/", a.startWorkflow)
	g.Get("/:sessionId", a.getWorkflow)
	g.Put("/:sessionId/draft", a.updateWorkflow)
	g.Post("/:sessionId/submit", a.submitWorkflow)
	g.Post("/:sessionId/previous", a.previousWorkflow)
	g.Post("/:sessionId/abandon", a.abandonWorkflow)
}

// registerSubmissionRoutes registers will submission routes.
func (a *API) registerSubmissionRoutes(router fiber.Router) {
	g := router.Group("/submissions")
	g.Get("/", a.listSubmissions)
	g.Get("/:submissionId", a.getSubmission)
	g.Post("/:submissionId/resubmit", a.resubmit)
}

// registerWillRoutes registers the owner will routes.
func (a *API) registerWillRoutes(router fiber.Router) {
	g := router.Group("/wills")
	g.Get("/:owner", a.getWill)
	g.Post("/", a.createWill)
}

// registerDocumentRoutes registers document upload routes.
func (a *API) registerDocumentRoutes(router fiber.Router) {
	router.Post("/documents", a.pinDocuments)
}

// registerNotificationRoutes registers the manual notification trigger.
func (a *API) registerNotificationRoutes(router fiber.Router) {
	router.Post("/notifications", a.sendNotification)
}

// registerDisbursementRoutes registers the contract event intake.
func (a *API) registerDisbursementRoutes(router fiber.Router) {
	router.Post("/disbursements", a.disburse)
}

func (a *API) health(c *fiber.Ctx) error {
	if err := a.eng.Ping(c.UserContext()); err != nil {
		a.logger.WarnContext(c.UserContext(), "health check failed", slog.String("error", err.Error()))
		return c.Status(fiber.StatusServiceUnavailable).JSON(HealthResponse{Status: "unavailable"})
	}
	return c.JSON(HealthResponse{Status: "ok"})
}

// accessLog logs one line per request.
func (a *API) accessLog() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if err != nil {
			// Render now so the logged status is the one sent.
			if hErr := c.App().ErrorHandler(c, err); hErr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError) //nolint:errcheck // best effort
			}
		}
		a.logger.InfoContext(c.UserContext(), "http request",
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Int("status", c.Response().StatusCode()),
			slog.Duration("duration", time.Since(start)),
		)
		return nil
	}
}
