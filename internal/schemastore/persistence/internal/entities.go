package internal

import (
	"encoding/json"
	"fmt"
	"time"

	registry "fieldregistry-server/internal/registry/domain"
	"fieldregistry-server/internal/schemastore/domain"
)

// ConfigDocument is the persisted head of a registry configuration; the
// payload column holds the canonical JSON of the config.
type ConfigDocument struct {
	ID        string `gorm:"primaryKey"`
	Module    string `gorm:"uniqueIndex:idx_config_documents_key"`
	Entity    string `gorm:"uniqueIndex:idx_config_documents_key"`
	Payload   string
	Revision  int
	UpdatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ConfigRevision is one historical payload, written on every upsert.
type ConfigRevision struct {
	ID        string `gorm:"primaryKey"`
	Module    string `gorm:"index:idx_config_revisions_key"`
	Entity    string `gorm:"index:idx_config_revisions_key"`
	Revision  int
	Payload   string
	UpdatedBy string
	CreatedAt time.Time `gorm:"index"`
}

func FromDocument(doc domain.Document) (ConfigDocument, error) {
	payload, err := json.Marshal(doc.Config)
	if err != nil {
		return ConfigDocument{}, fmt.Errorf("marshaling config payload: %w", err)
	}

	return ConfigDocument{
		ID:        doc.ID,
		Module:    doc.Module,
		Entity:    doc.Entity,
		Payload:   string(payload),
		Revision:  doc.Revision,
		UpdatedBy: doc.UpdatedBy,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}, nil
}

func (e ConfigDocument) ToDomain() (domain.Document, error) {
	config, err := registry.ParseConfig([]byte(e.Payload))
	if err != nil {
		return domain.Document{}, fmt.Errorf("parsing stored config payload: %w", err)
	}

	return domain.Document{
		ID:        e.ID,
		Module:    e.Module,
		Entity:    e.Entity,
		Config:    config,
		Revision:  e.Revision,
		UpdatedBy: e.UpdatedBy,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}, nil
}

func (e ConfigDocument) ToRevision(id string) ConfigRevision {
	return ConfigRevision{
		ID:        id,
		Module:    e.Module,
		Entity:    e.Entity,
		Revision:  e.Revision,
		Payload:   e.Payload,
		UpdatedBy: e.UpdatedBy,
		CreatedAt: e.UpdatedAt,
	}
}
