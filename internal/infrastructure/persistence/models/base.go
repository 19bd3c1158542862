// Package models holds the GORM rows behind each aggregate together with
// their To/From domain mappers. Only repositories import it.
package models

import (
	"time"

	"github.com/erp/salescore/internal/domain/shared"
	"github.com/google/uuid"
)

// IDs are stored as char(36) so the same models migrate on postgres,
// mysql and sqlite.

// BaseModel provides common persistence fields for all models.
// It maps to the domain's BaseEntity.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// AggregateModel provides common persistence fields for aggregate roots,
// including the optimistic lock version. The tenant column is declared on
// each model so it can lead that table's composite unique indexes.
type AggregateModel struct {
	BaseModel
	CreatedBy *uuid.UUID `gorm:"type:char(36)"`
	Version   int        `gorm:"not null;default:1"`
}

// FromDomainTenantAggregateRoot populates the model from a domain root
func (m *AggregateModel) FromDomainTenantAggregateRoot(t shared.TenantAggregateRoot) {
	m.ID = t.ID
	m.CreatedAt = t.CreatedAt
	m.UpdatedAt = t.UpdatedAt
	m.CreatedBy = t.CreatedBy
	m.Version = t.Version
}

// ToDomainTenantAggregateRoot builds a domain root without pending events
func (m *AggregateModel) ToDomainTenantAggregateRoot(tenantID uuid.UUID) shared.TenantAggregateRoot {
	return shared.TenantAggregateRoot{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		TenantID:  tenantID,
		CreatedBy: m.CreatedBy,
		Version:   m.Version,
	}
}
