package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/speeditsch-ui/invoice-frontend/internal/models"
)

// Display fields shown next to a document in the file listing, when present.
const (
	fieldSupplierName  = "supplier_name"
	fieldInvoiceNumber = "invoice_number"
)

type DocumentRepository interface {
	List(ctx context.Context, q ListQuery) ([]models.Document, int64, error)
	FindByID(ctx context.Context, id int64) (*models.Document, error)
	UpsertFields(ctx context.Context, id int64, fields map[string]*string) (int, error)
	FileRefs(ctx context.Context) ([]models.FileRef, error)
}

type documentRepository struct {
	db  *gorm.DB
	now clock
}

func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db, now: utcNow}
}

// List implements DocumentRepository.
func (d *documentRepository) List(ctx context.Context, q ListQuery) ([]models.Document, int64, error) {
	base := d.db.WithContext(ctx).
		Model(&models.Document{}).
		Scopes(searchScope(q.Search, "file_name", "file_path"))

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count documents: %w", err)
	}

	var docs []models.Document
	if err := base.Session(&gorm.Session{}).Scopes(paginate(q)).Find(&docs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list documents: %w", err)
	}

	return docs, total, nil
}

// FindByID implements DocumentRepository.
func (d *documentRepository) FindByID(ctx context.Context, id int64) (*models.Document, error) {
	var doc models.Document
	err := d.db.WithContext(ctx).
		Preload("Fields", func(db *gorm.DB) *gorm.DB { return db.Order("field_key ASC") }).
		Where("id = ?", id).
		First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("document %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find document: %w", err)
	}

	return &doc, nil
}

// UpsertFields implements DocumentRepository. Every key is written with one
// INSERT ... ON CONFLICT statement; the request commits as a whole.
func (d *documentRepository) UpsertFields(ctx context.Context, id int64, fields map[string]*string) (int, error) {
	if len(fields) == 0 {
		return 0, ErrEmptyUpdate
	}
	for key := range fields {
		if strings.TrimSpace(key) == "" || len(key) > 255 {
			return 0, fmt.Errorf("field key %q: %w", key, ErrInvalidValue)
		}
	}

	count := 0
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exists int64
		if err := tx.Model(&models.Document{}).Where("id = ?", id).Count(&exists).Error; err != nil {
			return fmt.Errorf("failed to check document: %w", err)
		}
		if exists == 0 {
			return fmt.Errorf("document %d: %w", id, ErrNotFound)
		}

		now := d.now()
		for key, value := range fields {
			row := models.DocumentField{
				DocumentID: id,
				FieldKey:   key,
				FieldValue: value,
				UpdatedAt:  now,
			}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "document_id"}, {Name: "field_key"}},
				DoUpdates: clause.AssignmentColumns([]string{"field_value", "updated_at"}),
			}).Create(&row).Error
			if err != nil {
				return fmt.Errorf("failed to upsert field %q: %w", key, err)
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return count, nil
}

// FileRefs implements DocumentRepository.
func (d *documentRepository) FileRefs(ctx context.Context) ([]models.FileRef, error) {
	var docs []models.Document
	err := d.db.WithContext(ctx).
		Preload("Fields", "field_key IN ?", []string{fieldSupplierName, fieldInvoiceNumber}).
		Order("created_at DESC").Order("id DESC").
		Find(&docs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load document paths: %w", err)
	}

	refs := make([]models.FileRef, 0, len(docs))
	for i := range docs {
		fields := docs[i].FieldMap()
		refs = append(refs, models.FileRef{
			ID:            docs[i].ID,
			StoredPath:    docs[i].FilePath,
			SupplierName:  fields[fieldSupplierName],
			InvoiceNumber: fields[fieldInvoiceNumber],
		})
	}

	return refs, nil
}
