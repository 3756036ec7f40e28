package models

import (
	"time"
)

const DefaultPaymentType = "UNBEKANNT"

// Invoice maps the flat invoices table written by the ingestion workflow.
// Column names follow that workflow's table, German ones included.
type Invoice struct {
	ID            int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	SupplierName  string     `gorm:"size:255;not null;default:'';index:idx_supplier_name" json:"supplier_name"`
	InvoiceNumber *string    `gorm:"size:64" json:"invoice_number"`
	InvoiceDate   *Date      `gorm:"type:date" json:"invoice_date"`
	NetTotal      *float64   `gorm:"type:decimal(12,2)" json:"net_total"`
	GrossTotal    *float64   `gorm:"type:decimal(12,2)" json:"gross_total"`
	Currency      *string    `gorm:"type:char(3)" json:"currency"`
	VATRate       *float64   `gorm:"column:vat_rate;type:decimal(5,2)" json:"vat_rate"`
	VATAmount     *float64   `gorm:"column:vat_amount;type:decimal(12,2)" json:"vat_amount"`
	SourceEmail   string     `gorm:"size:255;not null;default:'';index:idx_source_email" json:"source_email"`
	PDFPath       *string    `gorm:"column:pdf_path;type:text" json:"pdf_path"`
	LLMFlags      *string    `gorm:"column:llm_flags;type:text" json:"llm_flags"`
	CreatedAt     *time.Time `gorm:"autoCreateTime:false" json:"created_at"`
	PDFSHA256     string     `gorm:"column:pdf_sha256;type:char(64);not null;uniqueIndex" json:"pdf_sha256"`
	Filename      *string    `gorm:"size:255" json:"filename"`
	TelegramText  *string    `gorm:"type:text" json:"telegram_text"`
	PaymentType   string     `gorm:"column:zahlungstyp;size:20;not null;default:'UNBEKANNT'" json:"payment_type"`
	OCRText       *string    `gorm:"column:ocr_text;type:text" json:"ocr_text"`
	LLMJSON       *string    `gorm:"column:llm_json;type:text" json:"llm_json"`
	Confidence    *float64   `gorm:"type:decimal(4,3)" json:"confidence"`
	UpdatedAt     *time.Time `gorm:"autoUpdateTime:false" json:"updated_at"`
	Done          bool       `gorm:"column:erledigt;not null;default:false" json:"done"`
	DoneDate      *Date      `gorm:"column:erledigt_Datum;type:date" json:"done_date"`
}

func (Invoice) TableName() string {
	return "invoices"
}

// InvoicePatch lists the attributes PUT /api/invoices/{id} may change.
// Absent keys stay untouched, explicit nulls clear the column.
type InvoicePatch struct {
	SupplierName  Optional[string]  `json:"supplier_name"`
	InvoiceNumber Optional[string]  `json:"invoice_number"`
	InvoiceDate   Optional[Date]    `json:"invoice_date"`
	NetTotal      Optional[float64] `json:"net_total"`
	GrossTotal    Optional[float64] `json:"gross_total"`
	Currency      Optional[string]  `json:"currency"`
	VATRate       Optional[float64] `json:"vat_rate"`
	VATAmount     Optional[float64] `json:"vat_amount"`
	SourceEmail   Optional[string]  `json:"source_email"`
	PaymentType   Optional[string]  `json:"payment_type"`
	Done          Optional[bool]    `json:"done"`
	DoneDate      Optional[Date]    `json:"done_date"`
}
