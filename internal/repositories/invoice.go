package repositories

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode"

	"gorm.io/gorm"

	"github.com/speeditsch-ui/invoice-frontend/internal/models"
)

type InvoiceRepository interface {
	List(ctx context.Context, q ListQuery) ([]models.Invoice, int64, error)
	FindByID(ctx context.Context, id int64) (*models.Invoice, error)
	Patch(ctx context.Context, id int64, patch models.InvoicePatch) (int, error)
	FileRefs(ctx context.Context) ([]models.FileRef, error)
}

type invoiceRepository struct {
	db  *gorm.DB
	now clock
}

func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &invoiceRepository{db: db, now: utcNow}
}

func (r *invoiceRepository) List(ctx context.Context, q ListQuery) ([]models.Invoice, int64, error) {
	base := r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Scopes(searchScope(q.Search, "supplier_name", "invoice_number", "source_email"))

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count invoices: %w", err)
	}

	var invoices []models.Invoice
	if err := base.Session(&gorm.Session{}).Scopes(paginate(q)).Find(&invoices).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list invoices: %w", err)
	}

	return invoices, total, nil
}

func (r *invoiceRepository) FindByID(ctx context.Context, id int64) (*models.Invoice, error) {
	var inv models.Invoice
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&inv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("invoice %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find invoice: %w", err)
	}
	return &inv, nil
}

// Patch writes the attributes present in patch and refreshes updated_at.
// The returned count excludes updated_at.
func (r *invoiceRepository) Patch(ctx context.Context, id int64, patch models.InvoicePatch) (int, error) {
	updates, err := patchColumns(patch)
	if err != nil {
		return 0, err
	}
	if len(updates) == 0 {
		return 0, ErrEmptyUpdate
	}
	count := len(updates)

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exists int64
		if err := tx.Model(&models.Invoice{}).Where("id = ?", id).Count(&exists).Error; err != nil {
			return fmt.Errorf("failed to check invoice: %w", err)
		}
		if exists == 0 {
			return fmt.Errorf("invoice %d: %w", id, ErrNotFound)
		}

		updates["updated_at"] = r.now()
		if err := tx.Model(&models.Invoice{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update invoice: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *invoiceRepository) FileRefs(ctx context.Context) ([]models.FileRef, error) {
	var rows []models.Invoice
	err := r.db.WithContext(ctx).
		Select("id", "pdf_path", "pdf_sha256", "supplier_name", "invoice_number").
		Order("created_at DESC").Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load invoice paths: %w", err)
	}

	refs := make([]models.FileRef, 0, len(rows))
	for i := range rows {
		inv := &rows[i]
		supplier := inv.SupplierName
		ref := models.FileRef{
			ID:            inv.ID,
			ContentHash:   inv.PDFSHA256,
			SupplierName:  &supplier,
			InvoiceNumber: inv.InvoiceNumber,
		}
		if inv.PDFPath != nil {
			ref.StoredPath = *inv.PDFPath
		}
		refs = append(refs, ref)
	}

	return refs, nil
}

// patchColumns turns a patch into column -> value. NOT NULL columns sent as
// null fall back to their column default instead of failing the write.
func patchColumns(p models.InvoicePatch) (map[string]any, error) {
	updates := make(map[string]any)

	if p.SupplierName.Set {
		updates["supplier_name"] = trimmedOr(p.SupplierName.Value, "")
	}
	if p.InvoiceNumber.Set {
		if p.InvoiceNumber.Value == nil {
			updates["invoice_number"] = nil
		} else {
			num := strings.TrimSpace(*p.InvoiceNumber.Value)
			if len(num) > 64 {
				return nil, fmt.Errorf("invoice_number longer than 64 characters: %w", ErrInvalidValue)
			}
			updates["invoice_number"] = num
		}
	}
	if p.InvoiceDate.Set {
		updates["invoice_date"] = dateOrNil(p.InvoiceDate.Value)
	}
	if p.NetTotal.Set {
		updates["net_total"] = roundedOrNil(p.NetTotal.Value, 2)
	}
	if p.GrossTotal.Set {
		updates["gross_total"] = roundedOrNil(p.GrossTotal.Value, 2)
	}
	if p.Currency.Set {
		currency, err := normalizeCurrency(p.Currency.Value)
		if err != nil {
			return nil, err
		}
		updates["currency"] = currency
	}
	if p.VATRate.Set {
		updates["vat_rate"] = roundedOrNil(p.VATRate.Value, 2)
	}
	if p.VATAmount.Set {
		updates["vat_amount"] = roundedOrNil(p.VATAmount.Value, 2)
	}
	if p.SourceEmail.Set {
		updates["source_email"] = trimmedOr(p.SourceEmail.Value, "")
	}
	if p.PaymentType.Set {
		pt := trimmedOr(p.PaymentType.Value, models.DefaultPaymentType)
		if pt == "" {
			pt = models.DefaultPaymentType
		}
		if len(pt) > 20 {
			return nil, fmt.Errorf("payment_type longer than 20 characters: %w", ErrInvalidValue)
		}
		updates["zahlungstyp"] = pt
	}
	if p.Done.Set {
		updates["erledigt"] = p.Done.Value != nil && *p.Done.Value
	}
	if p.DoneDate.Set {
		updates["erledigt_Datum"] = dateOrNil(p.DoneDate.Value)
	}

	return updates, nil
}

func trimmedOr(v *string, fallback string) string {
	if v == nil {
		return fallback
	}
	return strings.TrimSpace(*v)
}

func dateOrNil(v *models.Date) any {
	if v == nil {
		return nil
	}
	return *v
}

func roundedOrNil(v *float64, places int) any {
	if v == nil {
		return nil
	}
	scale := math.Pow10(places)
	return math.Round(*v*scale) / scale
}

// normalizeCurrency accepts a 3-letter code in any case; blank clears it.
func normalizeCurrency(v *string) (any, error) {
	if v == nil {
		return nil, nil
	}
	code := strings.ToUpper(strings.TrimSpace(*v))
	if code == "" {
		return nil, nil
	}
	if len(code) != 3 {
		return nil, fmt.Errorf("currency %q is not a 3-letter code: %w", code, ErrInvalidValue)
	}
	for _, r := range code {
		if !unicode.IsLetter(r) || r > unicode.MaxASCII {
			return nil, fmt.Errorf("currency %q is not a 3-letter code: %w", code, ErrInvalidValue)
		}
	}
	return code, nil
}
