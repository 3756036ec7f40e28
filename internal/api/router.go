package api

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/speeditsch-ui/invoice-frontend/internal/handlers"
	"github.com/speeditsch-ui/invoice-frontend/internal/middleware"
)

// Handlers holds the endpoint groups to mount. Exactly one of Invoices and
// Documents is set, matching the configured schema.
type Handlers struct {
	Invoices  *handlers.InvoiceHandler
	Documents *handlers.DocumentHandler
	Files     *handlers.FileHandler
	Suppliers *handlers.SupplierHandler
}

type RouterConfig struct {
	APIKey      string
	CORSOrigins []string
	AccessLog   bool
}

func SetupRouter(h Handlers, cfg RouterConfig, appLogger *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Invoice Viewer API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		ErrorHandler: errorHandler(appLogger),
	})

	// Middleware
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	if cfg.AccessLog {
		app.Use(logger.New(logger.Config{
			Format:     "[${time}] ${status} - ${latency} ${method} ${path} ${locals:requestid}\n",
			TimeFormat: "2006-01-02 15:04:05",
		}))
	}
	app.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	app.Use(middleware.APIKey(cfg.APIKey, appLogger))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	if h.Invoices != nil {
		invoices := api.Group("/invoices")
		invoices.Get("", h.Invoices.HandleList)
		invoices.Get("/:id", h.Invoices.HandleGet)
		invoices.Get("/:id/pdf", h.Invoices.HandlePDF)
		invoices.Get("/:id/text", h.Invoices.HandleText)
		invoices.Put("/:id", h.Invoices.HandleUpdate)
	}

	if h.Documents != nil {
		documents := api.Group("/documents")
		documents.Get("", h.Documents.HandleList)
		documents.Get("/:id", h.Documents.HandleGet)
		documents.Get("/:id/pdf", h.Documents.HandlePDF)
		documents.Get("/:id/text", h.Documents.HandleText)
		documents.Put("/:id/fields", h.Documents.HandleUpdateFields)
	}

	if h.Files != nil {
		api.Get("/files", h.Files.HandleList)
		api.Get("/files/*/pdf", h.Files.HandlePDF)
		api.Get("/files/*/raw", h.Files.HandleRaw)
	}

	if h.Suppliers != nil {
		suppliers := api.Group("/suppliers")
		suppliers.Get("", h.Suppliers.HandleList)
		suppliers.Post("", h.Suppliers.HandleCreate)
		suppliers.Delete("/:id", h.Suppliers.HandleDelete)
	}

	return app
}

// corsConfig allows credentials unless the allow-list is a wildcard, which
// the CORS middleware rejects in combination with credentials.
func corsConfig(origins []string) cors.Config {
	wildcard := len(origins) == 0
	for _, o := range origins {
		if o == "*" {
			wildcard = true
		}
	}

	allowOrigins := strings.Join(origins, ",")
	if wildcard {
		allowOrigins = "*"
	}

	return cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,HEAD,OPTIONS",
		AllowCredentials: !wildcard,
	}
}

func errorHandler(appLogger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError

		var e *fiber.Error
		if errors.As(err, &e) {
			code = e.Code
		}
		if code >= fiber.StatusInternalServerError {
			appLogger.Error("Unhandled request error", zap.String("path", c.Path()), zap.Error(err))
		}

		return c.Status(code).JSON(fiber.Map{
			"error": err.Error(),
			"code":  code,
		})
	}
}
