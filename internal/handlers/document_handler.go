package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/speeditsch-ui/invoice-frontend/internal/models"
	"github.com/speeditsch-ui/invoice-frontend/internal/repositories"
	"github.com/speeditsch-ui/invoice-frontend/internal/services"
)

type DocumentHandler struct {
	docRepo   repositories.DocumentRepository
	resolver  services.PDFResolver
	pdfParser services.PDFParserService
	logger    *zap.Logger
}

func NewDocumentHandler(
	docRepo repositories.DocumentRepository,
	resolver services.PDFResolver,
	pdfParser services.PDFParserService,
	logger *zap.Logger,
) *DocumentHandler {
	return &DocumentHandler{
		docRepo:   docRepo,
		resolver:  resolver,
		pdfParser: pdfParser,
		logger:    logger,
	}
}

// HandleList handles GET /api/documents
func (h *DocumentHandler) HandleList(c *fiber.Ctx) error {
	q, err := parseListQuery(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	docs, total, err := h.docRepo.List(c.UserContext(), q)
	if err != nil {
		return repoError(c, h.logger, err, "Document")
	}

	items := make([]models.DocumentListItem, 0, len(docs))
	for _, d := range docs {
		items = append(items, models.DocumentListItem{
			ID:        d.ID,
			FileName:  d.FileName,
			CreatedAt: d.CreatedAt,
		})
	}

	return c.JSON(models.ListResponse[models.DocumentListItem]{
		Total: total,
		Items: items,
	})
}

// HandleGet handles GET /api/documents/:id
func (h *DocumentHandler) HandleGet(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "Invalid document ID")
	}

	doc, err := h.docRepo.FindByID(c.UserContext(), id)
	if err != nil {
		return repoError(c, h.logger, err, "Document")
	}

	_, resolveErr := h.resolver.Resolve(doc.FilePath, "")

	return c.JSON(models.DocumentDetail{
		ID:        doc.ID,
		FileName:  doc.FileName,
		FilePath:  doc.FilePath,
		CreatedAt: doc.CreatedAt,
		Fields:    doc.FieldMap(),
		HasPDF:    resolveErr == nil,
	})
}

// HandlePDF handles GET /api/documents/:id/pdf
func (h *DocumentHandler) HandlePDF(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "Invalid document ID")
	}

	doc, err := h.docRepo.FindByID(c.UserContext(), id)
	if err != nil {
		return repoError(c, h.logger, err, "Document")
	}

	pdfPath, err := h.resolver.Resolve(doc.FilePath, "")
	if err != nil {
		return fileError(c, h.logger, err, doc.FilePath)
	}

	name := doc.FileName
	if name == "" {
		name = pdfPath
	}
	return sendFile(c, h.logger, pdfPath, mimePDF, pdfDownloadName(name))
}

// HandleText handles GET /api/documents/:id/text
func (h *DocumentHandler) HandleText(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "Invalid document ID")
	}

	doc, err := h.docRepo.FindByID(c.UserContext(), id)
	if err != nil {
		return repoError(c, h.logger, err, "Document")
	}

	pdfPath, err := h.resolver.Resolve(doc.FilePath, "")
	if err != nil {
		return fileError(c, h.logger, err, doc.FilePath)
	}

	return extractText(c, h.logger, h.pdfParser, pdfPath)
}

// HandleUpdateFields handles PUT /api/documents/:id/fields
func (h *DocumentHandler) HandleUpdateFields(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "Invalid document ID")
	}

	var req models.FieldsUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request payload")
	}

	updated, err := h.docRepo.UpsertFields(c.UserContext(), id, req.Fields)
	if err != nil {
		return repoError(c, h.logger, err, "Document")
	}

	h.logger.Info("Document fields updated", zap.Int64("document_id", id), zap.Int("fields", updated))

	return c.JSON(models.UpdateResponse{
		Updated: updated,
		Message: "Fields updated successfully",
	})
}
