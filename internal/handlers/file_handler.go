package handlers

import (
	"net/url"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/speeditsch-ui/invoice-frontend/internal/models"
	"github.com/speeditsch-ui/invoice-frontend/internal/services"
)

// rawContentTypes are the file kinds /api/files/*/raw will serve.
var rawContentTypes = map[string]string{
	".pdf":  mimePDF,
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

type FileHandler struct {
	records    FileRefSource
	resolver   services.PDFResolver
	reconciler services.Reconciler
	logger     *zap.Logger
}

func NewFileHandler(
	records FileRefSource,
	resolver services.PDFResolver,
	reconciler services.Reconciler,
	logger *zap.Logger,
) *FileHandler {
	return &FileHandler{
		records:    records,
		resolver:   resolver,
		reconciler: reconciler,
		logger:     logger,
	}
}

// HandleList handles GET /api/files
func (h *FileHandler) HandleList(c *fiber.Ctx) error {
	refs, err := h.records.FileRefs(c.UserContext())
	if err != nil {
		return repoError(c, h.logger, err, "Record")
	}

	files, err := h.reconciler.Reconcile(c.UserContext(), refs)
	if err != nil {
		return fileError(c, h.logger, err, "")
	}

	return c.JSON(models.FileListResponse{
		Total: len(files),
		Files: files,
	})
}

// HandlePDF handles GET /api/files/*/pdf
func (h *FileHandler) HandlePDF(c *fiber.Ctx) error {
	rel, err := wildcardPath(c)
	if err != nil {
		return badRequest(c, "Invalid file path")
	}

	absPath, err := h.resolver.ResolveRelative(rel)
	if err != nil {
		return fileError(c, h.logger, err, rel)
	}

	return sendFile(c, h.logger, absPath, mimePDF, pdfDownloadName(rel))
}

// HandleRaw handles GET /api/files/*/raw for PDFs and images.
func (h *FileHandler) HandleRaw(c *fiber.Ctx) error {
	rel, err := wildcardPath(c)
	if err != nil {
		return badRequest(c, "Invalid file path")
	}

	absPath, err := h.resolver.ResolveRelative(rel)
	if err != nil {
		return fileError(c, h.logger, err, rel)
	}

	contentType, ok := rawContentTypes[strings.ToLower(filepath.Ext(absPath))]
	if !ok {
		return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
			"error": "Unsupported file type",
		})
	}

	return sendFile(c, h.logger, absPath, contentType, filepath.Base(absPath))
}

// wildcardPath returns the unescaped relative path matched by "*".
func wildcardPath(c *fiber.Ctx) (string, error) {
	return url.PathUnescape(c.Params("*"))
}
