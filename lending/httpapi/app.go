package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/library-lending-go/lending/catalog"
	"github.com/AntonStoeckl/library-lending-go/lending/circulation"
	"github.com/AntonStoeckl/library-lending-go/lending/queries"
	"github.com/AntonStoeckl/library-lending-go/lending/shared/core"
	"github.com/AntonStoeckl/library-lending-go/lending/shared/shell"
)

const defaultRequestTimeout = 10 * time.Second

// UserDirectory registers and authenticates users.
type UserDirectory interface {
	Create(ctx context.Context, username string, password string, role core.Role) (core.User, error)
	Authenticate(ctx context.Context, username string, password string) (core.User, error)
}

// TokenIssuer issues bearer tokens and resolves them into users.
type TokenIssuer interface {
	Issue(user core.User) (string, time.Time, error)
	Verify(raw string) (core.User, error)
}

// Dependencies are the collaborators behind the routes. MetricsHandler is optional.
type Dependencies struct {
	Catalog        catalog.CommandHandler
	Books          catalog.Store
	Circulation    circulation.CommandHandler
	Queries        queries.Facade
	Users          UserDirectory
	Tokens         TokenIssuer
	Logger         shell.Logger
	Metrics        shell.MetricsCollector
	MetricsHandler http.Handler
	RequestTimeout time.Duration
}

type server struct {
	Dependencies
	validate *validator.Validate
}

// NewApp builds the fiber app with all routes.
func NewApp(deps Dependencies) *fiber.App {
	if deps.RequestTimeout == 0 {
		deps.RequestTimeout = defaultRequestTimeout
	}

	s := server{Dependencies: deps, validate: validator.New()}

	app := fiber.New(fiber.Config{
		JSONEncoder:           jsoniter.ConfigCompatibleWithStandardLibrary.Marshal,
		JSONDecoder:           jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal,
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})

	app.Use(recover.New())
	app.Use(s.requestContext)
	app.Use(s.logRequests)

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	if deps.MetricsHandler != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.MetricsHandler))
	}

	authRoutes := app.Group("/auth")
	authRoutes.Post("/signup", s.signup)
	authRoutes.Post("/login", s.login)

	api := app.Group("/api", s.authenticate)
	api.Get("/books", s.listBooks)
	api.Get("/books/available", s.availableBooks)
	api.Get("/books/borrowed", s.borrowedBooks)
	api.Get("/books/:id", s.getBook)
	api.Post("/add-books", requireRole(core.RoleAdmin), s.addBook)
	api.Put("/update-book/:id", requireRole(core.RoleAdmin), s.updateBook)
	api.Delete("/delete-book/:id", requireRole(core.RoleAdmin), s.removeBook)
	api.Put("/borrow-book/:id", requireRole(core.RoleAdmin, core.RolePatron), s.borrowBook)
	api.Put("/return-book/:id", requireRole(core.RoleAdmin, core.RolePatron), s.returnBook)
	api.Get("/transactions", s.transactions)

	return app
}
