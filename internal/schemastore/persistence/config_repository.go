package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fieldregistry-server/internal/infra/sql"
	"fieldregistry-server/internal/schemastore/domain"
	"fieldregistry-server/internal/schemastore/persistence/internal"
	"fieldregistry-server/internal/schemastore/usecases"

	"github.com/google/uuid"
)

func NewConfigRepository(orm sql.ORM) (*SimpleConfigRepository, error) {
	err := orm.AutoMigrate(&internal.ConfigDocument{}, &internal.ConfigRevision{})
	if err != nil {
		return nil, fmt.Errorf("auto migrating: %w", err)
	}

	return &SimpleConfigRepository{orm: orm}, nil
}

var _ usecases.ConfigRepository = (*SimpleConfigRepository)(nil)

type SimpleConfigRepository struct {
	orm sql.ORM
}

func (r *SimpleConfigRepository) Get(ctx context.Context, module, entity string) (domain.Document, error) {
	var record internal.ConfigDocument
	err := r.orm.
		WithContext(ctx).
		First(&record, "module = ? AND entity = ?", module, entity).
		Error()

	if errors.Is(err, sql.ErrRecordNotFound) {
		return domain.Document{}, usecases.ErrConfigNotFound
	}
	if err != nil {
		return domain.Document{}, fmt.Errorf("database query: %w", err)
	}

	return record.ToDomain()
}

// Upsert replaces the head document and appends a revision row in one
// transaction, so history can never miss a write the head has.
func (r *SimpleConfigRepository) Upsert(ctx context.Context, doc domain.Document) (domain.Document, error) {
	var saved internal.ConfigDocument

	err := r.orm.WithContext(ctx).Transaction(func(tx sql.ORM) error {
		var existing internal.ConfigDocument
		err := tx.First(&existing, "module = ? AND entity = ?", doc.Module, doc.Entity).Error()
		switch {
		case errors.Is(err, sql.ErrRecordNotFound):
			doc.Revision = 1
		case err != nil:
			return fmt.Errorf("querying existing document: %w", err)
		default:
			doc.ID = existing.ID
			doc.CreatedAt = existing.CreatedAt
			doc.Revision = existing.Revision + 1
		}

		doc.UpdatedAt = time.Now().UTC()

		entity, err := internal.FromDocument(doc)
		if err != nil {
			return err
		}

		if err := tx.Save(&entity).Error(); err != nil {
			return fmt.Errorf("saving document: %w", err)
		}

		revision := entity.ToRevision(uuid.NewString())
		if err := tx.Create(&revision).Error(); err != nil {
			return fmt.Errorf("recording revision: %w", err)
		}

		saved = entity
		return nil
	})
	if err != nil {
		return domain.Document{}, err
	}

	return saved.ToDomain()
}

func (r *SimpleConfigRepository) ListByModule(ctx context.Context, module string, pagination usecases.Pagination) ([]domain.Document, int, error) {
	var total int64
	err := r.orm.
		WithContext(ctx).
		Model(&internal.ConfigDocument{}).
		Where("module = ?", module).
		Count(&total).
		Error()
	if err != nil {
		return nil, 0, fmt.Errorf("count query: %w", err)
	}

	query := r.orm.
		WithContext(ctx).
		Where("module = ?", module).
		Order("entity ASC")
	if pagination.Limit > 0 {
		query = query.Limit(pagination.Limit).Offset(pagination.Offset)
	}

	var entities []internal.ConfigDocument
	if err := query.Find(&entities).Error(); err != nil {
		return nil, 0, fmt.Errorf("database query: %w", err)
	}

	docs := make([]domain.Document, 0, len(entities))
	for _, entity := range entities {
		doc, err := entity.ToDomain()
		if err != nil {
			return nil, 0, err
		}
		docs = append(docs, doc)
	}

	return docs, int(total), nil
}

func (r *SimpleConfigRepository) CountRevisionsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var count int64
	err := r.orm.
		WithContext(ctx).
		Model(&internal.ConfigRevision{}).
		Where("created_at < ?", cutoff).
		Count(&count).
		Error()
	if err != nil {
		return 0, fmt.Errorf("count query: %w", err)
	}
	return count, nil
}

func (r *SimpleConfigRepository) DeleteRevisionsBefore(ctx context.Context, cutoff time.Time) error {
	err := r.orm.
		WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&internal.ConfigRevision{}).
		Error()
	if err != nil {
		return fmt.Errorf("deleting revisions: %w", err)
	}
	return nil
}
