package models

import (
	"time"
)

// Document is one ingested file in the generic key/value schema.
type Document struct {
	ID        int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	FilePath  string          `gorm:"type:text" json:"file_path"`
	FileName  string          `gorm:"size:255" json:"file_name"`
	CreatedAt time.Time       `gorm:"autoCreateTime:false" json:"created_at"`
	Fields    []DocumentField `gorm:"foreignKey:DocumentID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Document) TableName() string {
	return "documents"
}

// DocumentField is keyed by (document_id, field_key).
type DocumentField struct {
	DocumentID int64     `gorm:"primaryKey;autoIncrement:false" json:"document_id"`
	FieldKey   string    `gorm:"primaryKey;size:255" json:"field_key"`
	FieldValue *string   `gorm:"type:text" json:"field_value"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime:false" json:"updated_at"`
}

func (DocumentField) TableName() string {
	return "document_fields"
}

// FieldMap flattens the fields of a document into key -> value.
func (d *Document) FieldMap() map[string]*string {
	out := make(map[string]*string, len(d.Fields))
	for _, f := range d.Fields {
		out[f.FieldKey] = f.FieldValue
	}
	return out
}
