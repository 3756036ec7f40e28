package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/speeditsch-ui/invoice-frontend/internal/api"
	"github.com/speeditsch-ui/invoice-frontend/internal/config"
	"github.com/speeditsch-ui/invoice-frontend/internal/handlers"
	"github.com/speeditsch-ui/invoice-frontend/internal/logger"
	"github.com/speeditsch-ui/invoice-frontend/internal/repositories"
	"github.com/speeditsch-ui/invoice-frontend/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()

	appLogger, err := logger.New(cfg.Logger.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	if err := cfg.Validate(); err != nil {
		appLogger.Fatal("Invalid configuration", zap.Error(err))
	}
	appLogger.Info("Config loaded",
		zap.String("schema", cfg.Storage.Schema),
		zap.String("pdf_root", cfg.Storage.PDFRoot),
		zap.Bool("api_key_enabled", cfg.Security.APIKey != ""),
	)

	// Initialize database
	db, err := config.InitDatabase(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize database", zap.Error(err))
	}

	// Initialize services
	resolver := services.NewPDFResolver(cfg.Storage.PDFRoot, cfg.Storage.LegacyPrefixes)
	if _, err := resolver.Root(); err != nil {
		// Not fatal: the root may be mounted after startup.
		appLogger.Warn("PDF root not available", zap.Error(err))
	}
	reconciler := services.NewReconciler(resolver)
	pdfParser := services.NewPDFParserService()

	// Initialize repositories and handlers for the configured schema
	var h api.Handlers
	var records handlers.FileRefSource

	switch cfg.Storage.Schema {
	case config.SchemaDocuments:
		docRepo := repositories.NewDocumentRepository(db)
		h.Documents = handlers.NewDocumentHandler(docRepo, resolver, pdfParser, appLogger)
		records = docRepo
	default:
		invoiceRepo := repositories.NewInvoiceRepository(db)
		h.Invoices = handlers.NewInvoiceHandler(invoiceRepo, resolver, pdfParser, appLogger)
		records = invoiceRepo
	}
	h.Files = handlers.NewFileHandler(records, resolver, reconciler, appLogger)
	h.Suppliers = handlers.NewSupplierHandler(repositories.NewSupplierRepository(db), appLogger)

	app := api.SetupRouter(h, api.RouterConfig{
		APIKey:      cfg.Security.APIKey,
		CORSOrigins: cfg.Security.CORSOrigins,
		AccessLog:   true,
	}, appLogger)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		appLogger.Info("Shutting down server")
		if err := app.Shutdown(); err != nil {
			appLogger.Error("Server forced to shutdown", zap.Error(err))
		}
	}()

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	if err := app.Listen(addr); err != nil {
		appLogger.Fatal("Failed to start server", zap.Error(err))
	}
}
