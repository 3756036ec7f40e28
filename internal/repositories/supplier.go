package repositories

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/speeditsch-ui/invoice-frontend/internal/models"
)

type SupplierRepository interface {
	List(ctx context.Context) ([]models.SupplierByEmail, error)
	Create(ctx context.Context, supplier *models.SupplierByEmail) error
	Delete(ctx context.Context, id int64) error
}

type supplierRepository struct {
	db *gorm.DB
}

func NewSupplierRepository(db *gorm.DB) SupplierRepository {
	return &supplierRepository{db: db}
}

func (r *supplierRepository) List(ctx context.Context) ([]models.SupplierByEmail, error) {
	var suppliers []models.SupplierByEmail
	err := r.db.WithContext(ctx).
		Order("supplier_name ASC").
		Order("id ASC").
		Find(&suppliers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list suppliers: %w", err)
	}
	return suppliers, nil
}

func (r *supplierRepository) Create(ctx context.Context, supplier *models.SupplierByEmail) error {
	supplier.SupplierName = strings.TrimSpace(supplier.SupplierName)
	supplier.Email = strings.TrimSpace(supplier.Email)
	if supplier.SupplierName == "" || supplier.Email == "" {
		return fmt.Errorf("supplier_name and email are required: %w", ErrInvalidValue)
	}

	if err := r.db.WithContext(ctx).Create(supplier).Error; err != nil {
		return fmt.Errorf("failed to create supplier: %w", err)
	}
	return nil
}

func (r *supplierRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&models.SupplierByEmail{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete supplier: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("supplier %d: %w", id, ErrNotFound)
	}

	return nil
}
