package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/speeditsch-ui/invoice-frontend/internal/models"
	"github.com/speeditsch-ui/invoice-frontend/internal/repositories"
)

type SupplierHandler struct {
	supplierRepo repositories.SupplierRepository
	logger       *zap.Logger
}

func NewSupplierHandler(supplierRepo repositories.SupplierRepository, logger *zap.Logger) *SupplierHandler {
	return &SupplierHandler{
		supplierRepo: supplierRepo,
		logger:       logger,
	}
}

// HandleList handles GET /api/suppliers
func (h *SupplierHandler) HandleList(c *fiber.Ctx) error {
	suppliers, err := h.supplierRepo.List(c.UserContext())
	if err != nil {
		return repoError(c, h.logger, err, "Supplier")
	}
	if suppliers == nil {
		suppliers = []models.SupplierByEmail{}
	}

	return c.JSON(models.SupplierListResponse{
		Total:     len(suppliers),
		Suppliers: suppliers,
	})
}

// HandleCreate handles POST /api/suppliers
func (h *SupplierHandler) HandleCreate(c *fiber.Ctx) error {
	var req models.SupplierCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request payload")
	}

	supplier := models.SupplierByEmail{
		SupplierName: req.SupplierName,
		Email:        req.Email,
	}
	if err := h.supplierRepo.Create(c.UserContext(), &supplier); err != nil {
		return repoError(c, h.logger, err, "Supplier")
	}

	return c.Status(fiber.StatusCreated).JSON(supplier)
}

// HandleDelete handles DELETE /api/suppliers/:id
func (h *SupplierHandler) HandleDelete(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "Invalid supplier ID")
	}

	if err := h.supplierRepo.Delete(c.UserContext(), id); err != nil {
		return repoError(c, h.logger, err, "Supplier")
	}

	return c.JSON(models.DeleteResponse{
		Deleted: true,
		Message: "Supplier deleted successfully",
	})
}
