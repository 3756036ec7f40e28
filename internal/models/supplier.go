package models

// SupplierByEmail maps a sender address to a known supplier name.
// The ingestion pipeline joins on the name; there is no foreign key.
type SupplierByEmail struct {
	ID           int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	SupplierName string `gorm:"size:255;not null;index:idx_sbe_supplier_name" json:"supplier_name"`
	Email        string `gorm:"size:512;not null" json:"email"`
}

func (SupplierByEmail) TableName() string {
	return "supplier_by_email"
}

// All returns every model, for local migrations and tests.
func All() []any {
	return []any{
		&Document{},
		&DocumentField{},
		&Invoice{},
		&SupplierByEmail{},
	}
}
