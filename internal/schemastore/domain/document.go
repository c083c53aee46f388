package domain

import (
	"time"

	registry "fieldregistry-server/internal/registry/domain"

	"github.com/google/uuid"
)

// Document is one stored registry configuration, the server-side unit behind
// GET /v1/registry/{module}/{entity}. Revision increments on every write;
// the payload is replaced wholesale, never patched.
type Document struct {
	ID        string
	Module    string
	Entity    string
	Config    registry.Config
	Revision  int
	UpdatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewDocument(module, entity string, config registry.Config) Document {
	now := time.Now().UTC()
	return Document{
		ID:        uuid.NewString(),
		Module:    module,
		Entity:    entity,
		Config:    config.Normalized(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (d Document) Key() registry.Key {
	return registry.Key{Module: d.Module, Entity: d.Entity}
}
