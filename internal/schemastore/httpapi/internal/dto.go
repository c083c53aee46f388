package internal

import (
	"time"

	registry "fieldregistry-server/internal/registry/domain"
	"fieldregistry-server/internal/schemastore/domain"
)

// DocumentResponse is the envelope returned when callers ask for document
// metadata (listing). The single-document GET deliberately returns the raw
// config payload instead, because runtime clients decode it straight into
// their field registry.
type DocumentResponse struct {
	ID        string          `json:"id"`
	Module    string          `json:"module"`
	Entity    string          `json:"entity"`
	Config    registry.Config `json:"config"`
	Revision  int             `json:"revision"`
	UpdatedBy string          `json:"updated_by,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func ToDocumentResponse(doc domain.Document) DocumentResponse {
	return DocumentResponse{
		ID:        doc.ID,
		Module:    doc.Module,
		Entity:    doc.Entity,
		Config:    doc.Config,
		Revision:  doc.Revision,
		UpdatedBy: doc.UpdatedBy,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}

func ToDocumentResponses(docs []domain.Document) []DocumentResponse {
	out := make([]DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		out = append(out, ToDocumentResponse(doc))
	}
	return out
}
