package models

// FileRef is the part of a record needed to locate and label its PDF.
type FileRef struct {
	ID            int64
	StoredPath    string
	ContentHash   string
	SupplierName  *string
	InvoiceNumber *string
}
