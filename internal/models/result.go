package models

import "time"

type ListResponse[T any] struct {
	Total int64 `json:"total"`
	Items []T   `json:"items"`
}

type InvoiceListItem struct {
	ID            int64      `json:"id"`
	SupplierName  string     `json:"supplier_name"`
	InvoiceNumber *string    `json:"invoice_number"`
	InvoiceDate   *Date      `json:"invoice_date"`
	NetTotal      *float64   `json:"net_total"`
	Currency      *string    `json:"currency"`
	SourceEmail   string     `json:"source_email"`
	Done          bool       `json:"done"`
	CreatedAt     *time.Time `json:"created_at"`
}

func NewInvoiceListItem(inv *Invoice) InvoiceListItem {
	return InvoiceListItem{
		ID:            inv.ID,
		SupplierName:  inv.SupplierName,
		InvoiceNumber: inv.InvoiceNumber,
		InvoiceDate:   inv.InvoiceDate,
		NetTotal:      inv.NetTotal,
		Currency:      inv.Currency,
		SourceEmail:   inv.SourceEmail,
		Done:          inv.Done,
		CreatedAt:     inv.CreatedAt,
	}
}

type InvoiceDetail struct {
	*Invoice
	HasPDF bool `json:"has_pdf"`
}

type DocumentListItem struct {
	ID        int64     `json:"id"`
	FileName  string    `json:"file_name"`
	CreatedAt time.Time `json:"created_at"`
}

type DocumentDetail struct {
	ID        int64              `json:"id"`
	FileName  string             `json:"file_name"`
	FilePath  string             `json:"file_path"`
	CreatedAt time.Time          `json:"created_at"`
	Fields    map[string]*string `json:"fields"`
	HasPDF    bool               `json:"has_pdf"`
}

type FieldsUpdateRequest struct {
	Fields map[string]*string `json:"fields"`
}

type UpdateResponse struct {
	Updated int    `json:"updated"`
	Message string `json:"message"`
}

type TextResponse struct {
	Source    string `json:"source"`
	PageCount int    `json:"page_count,omitempty"`
	Text      string `json:"text"`
}

type FileEntry struct {
	Filename      string    `json:"filename"`
	Size          int64     `json:"size"`
	Modified      time.Time `json:"modified"`
	InvoiceID     *int64    `json:"invoice_id,omitempty"`
	SupplierName  *string   `json:"supplier_name,omitempty"`
	InvoiceNumber *string   `json:"invoice_number,omitempty"`
}

type FileListResponse struct {
	Total int         `json:"total"`
	Files []FileEntry `json:"files"`
}

type SupplierCreateRequest struct {
	SupplierName string `json:"supplier_name"`
	Email        string `json:"email"`
}

type SupplierListResponse struct {
	Total     int               `json:"total"`
	Suppliers []SupplierByEmail `json:"suppliers"`
}

type DeleteResponse struct {
	Deleted bool   `json:"deleted"`
	Message string `json:"message"`
}
