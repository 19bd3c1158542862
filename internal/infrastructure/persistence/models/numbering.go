package models

import (
	"time"

	"github.com/google/uuid"
)

// DocumentSequenceModel is the counter row behind document numbering.
// One row per tenant, document type and year.
type DocumentSequenceModel struct {
	TenantID     uuid.UUID `gorm:"type:char(36);primaryKey"`
	DocumentType string    `gorm:"type:varchar(20);primaryKey"`
	Year         int       `gorm:"primaryKey;autoIncrement:false"`
	LastValue    int64     `gorm:"not null;default:0"`
	UpdatedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (DocumentSequenceModel) TableName() string {
	return "document_sequences"
}
