package handlers

import (
	"context"
	"errors"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/speeditsch-ui/invoice-frontend/internal/models"
	"github.com/speeditsch-ui/invoice-frontend/internal/repositories"
	"github.com/speeditsch-ui/invoice-frontend/internal/services"
)

const mimePDF = "application/pdf"

// FileRefSource is implemented by both record stores; the file listing only
// needs paths, hashes and display fields.
type FileRefSource interface {
	FileRefs(ctx context.Context) ([]models.FileRef, error)
}

func parseID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

// parseListQuery validates search/limit/offset query parameters.
func parseListQuery(c *fiber.Ctx) (repositories.ListQuery, error) {
	q := repositories.ListQuery{
		Search: strings.TrimSpace(c.Query("search")),
		Limit:  repositories.DefaultLimit,
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > repositories.MaxLimit {
			return q, errors.New("limit must be an integer between 1 and 500")
		}
		q.Limit = limit
	}

	if raw := c.Query("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return q, errors.New("offset must be a non-negative integer")
		}
		q.Offset = offset
	}

	return q, nil
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": msg,
	})
}

// repoError maps record store errors to responses. what names the record
// kind in messages, e.g. "Invoice".
func repoError(c *fiber.Ctx, logger *zap.Logger, err error, what string) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": what + " not found",
		})
	case errors.Is(err, repositories.ErrEmptyUpdate):
		return badRequest(c, "No fields provided")
	case errors.Is(err, repositories.ErrInvalidValue):
		return badRequest(c, err.Error())
	default:
		logger.Error("Record store failure",
			zap.String("path", c.Path()),
			zap.String("request_id", requestID(c)),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to access " + strings.ToLower(what) + " data",
		})
	}
}

// fileError maps resolver errors to responses. The resolved absolute path
// never leaves the server.
func fileError(c *fiber.Ctx, logger *zap.Logger, err error, requested string) error {
	switch {
	case errors.Is(err, services.ErrPathTraversal):
		logger.Warn("Path traversal attempt blocked",
			zap.String("requested", requested),
			zap.String("ip", c.IP()),
			zap.String("request_id", requestID(c)),
		)
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Access denied",
		})
	case errors.Is(err, services.ErrFileNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "PDF file not found on disk",
		})
	case errors.Is(err, services.ErrRootNotConfigured), errors.Is(err, services.ErrRootUnavailable):
		logger.Error("PDF root unavailable", zap.Error(err))
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "PDF storage is not available",
		})
	default:
		logger.Error("Failed to resolve file", zap.String("requested", requested), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to read file",
		})
	}
}

// sendFile streams the file inline under the given download name.
func sendFile(c *fiber.Ctx, logger *zap.Logger, absPath, contentType, downloadName string) error {
	f, err := os.Open(absPath)
	if err != nil {
		return fileError(c, logger, services.ErrFileNotFound, downloadName)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fileError(c, logger, err, downloadName)
	}

	disposition := mime.FormatMediaType("inline", map[string]string{"filename": downloadName})
	if disposition == "" {
		disposition = "inline"
	}
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, disposition)
	// fasthttp closes the stream once the body is written.
	return c.SendStream(f, int(info.Size()))
}

// pdfDownloadName forces a .pdf extension on the name shown to clients.
func pdfDownloadName(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	if base == "." || base == "/" || base == "" {
		return "document.pdf"
	}
	ext := filepath.Ext(base)
	if strings.EqualFold(ext, ".pdf") {
		return base
	}
	return strings.TrimSuffix(base, ext) + ".pdf"
}

func requestID(c *fiber.Ctx) string {
	return c.GetRespHeader(fiber.HeaderXRequestID)
}
