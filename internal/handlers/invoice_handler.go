package handlers

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/speeditsch-ui/invoice-frontend/internal/models"
	"github.com/speeditsch-ui/invoice-frontend/internal/repositories"
	"github.com/speeditsch-ui/invoice-frontend/internal/services"
)

type InvoiceHandler struct {
	invoiceRepo repositories.InvoiceRepository
	resolver    services.PDFResolver
	pdfParser   services.PDFParserService
	logger      *zap.Logger
}

func NewInvoiceHandler(
	invoiceRepo repositories.InvoiceRepository,
	resolver services.PDFResolver,
	pdfParser services.PDFParserService,
	logger *zap.Logger,
) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceRepo: invoiceRepo,
		resolver:    resolver,
		pdfParser:   pdfParser,
		logger:      logger,
	}
}

// HandleList handles GET /api/invoices
func (h *InvoiceHandler) HandleList(c *fiber.Ctx) error {
	q, err := parseListQuery(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	invoices, total, err := h.invoiceRepo.List(c.UserContext(), q)
	if err != nil {
		return repoError(c, h.logger, err, "Invoice")
	}

	items := make([]models.InvoiceListItem, 0, len(invoices))
	for i := range invoices {
		items = append(items, models.NewInvoiceListItem(&invoices[i]))
	}

	return c.JSON(models.ListResponse[models.InvoiceListItem]{
		Total: total,
		Items: items,
	})
}

// HandleGet handles GET /api/invoices/:id
func (h *InvoiceHandler) HandleGet(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "Invalid invoice ID")
	}

	invoice, err := h.invoiceRepo.FindByID(c.UserContext(), id)
	if err != nil {
		return repoError(c, h.logger, err, "Invoice")
	}

	_, resolveErr := h.resolver.Resolve(storedPath(invoice), invoice.PDFSHA256)

	return c.JSON(models.InvoiceDetail{
		Invoice: invoice,
		HasPDF:  resolveErr == nil,
	})
}

// HandlePDF handles GET /api/invoices/:id/pdf
func (h *InvoiceHandler) HandlePDF(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "Invalid invoice ID")
	}

	invoice, err := h.invoiceRepo.FindByID(c.UserContext(), id)
	if err != nil {
		return repoError(c, h.logger, err, "Invoice")
	}

	stored := storedPath(invoice)
	pdfPath, err := h.resolver.Resolve(stored, invoice.PDFSHA256)
	if err != nil {
		return fileError(c, h.logger, err, stored)
	}

	return sendFile(c, h.logger, pdfPath, mimePDF, pdfDownloadName(filepath.Base(pdfPath)))
}

// HandleText handles GET /api/invoices/:id/text. Stored OCR text wins over
// extracting from the PDF.
func (h *InvoiceHandler) HandleText(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "Invalid invoice ID")
	}

	invoice, err := h.invoiceRepo.FindByID(c.UserContext(), id)
	if err != nil {
		return repoError(c, h.logger, err, "Invoice")
	}

	if invoice.OCRText != nil && strings.TrimSpace(*invoice.OCRText) != "" {
		return c.JSON(models.TextResponse{
			Source: "ocr",
			Text:   *invoice.OCRText,
		})
	}

	stored := storedPath(invoice)
	pdfPath, err := h.resolver.Resolve(stored, invoice.PDFSHA256)
	if err != nil {
		return fileError(c, h.logger, err, stored)
	}

	return extractText(c, h.logger, h.pdfParser, pdfPath)
}

// HandleUpdate handles PUT /api/invoices/:id
func (h *InvoiceHandler) HandleUpdate(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "Invalid invoice ID")
	}

	var patch models.InvoicePatch
	if err := c.BodyParser(&patch); err != nil {
		return badRequest(c, "Invalid request payload")
	}

	updated, err := h.invoiceRepo.Patch(c.UserContext(), id, patch)
	if err != nil {
		return repoError(c, h.logger, err, "Invoice")
	}

	h.logger.Info("Invoice updated", zap.Int64("invoice_id", id), zap.Int("fields", updated))

	return c.JSON(models.UpdateResponse{
		Updated: updated,
		Message: "Invoice updated successfully",
	})
}

func storedPath(inv *models.Invoice) string {
	if inv.PDFPath == nil {
		return ""
	}
	return *inv.PDFPath
}

func extractText(c *fiber.Ctx, logger *zap.Logger, parser services.PDFParserService, pdfPath string) error {
	content, err := parser.ExtractText(pdfPath)
	if err != nil {
		if errors.Is(err, services.ErrNoText) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": "PDF contains no extractable text",
			})
		}
		logger.Warn("Failed to extract PDF text", zap.String("file", filepath.Base(pdfPath)), zap.Error(err))
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "PDF could not be parsed",
		})
	}

	return c.JSON(models.TextResponse{
		Source:    "pdf",
		PageCount: content.PageCount,
		Text:      content.Text,
	})
}
