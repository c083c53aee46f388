package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fieldregistry-server/internal/infra/async"
	"fieldregistry-server/internal/infra/cache"
	"fieldregistry-server/internal/schemastore/domain"
)

const _configCacheTTL = 5 * time.Minute

func NewConfigService(
	repository ConfigRepository,
	documentCache cache.Cache,
	broker async.InternalBroker,
) *SimpleConfigService {
	return &SimpleConfigService{
		repository: repository,
		cache:      documentCache,
		broker:     broker,
	}
}

var _ ConfigService = (*SimpleConfigService)(nil)

type SimpleConfigService struct {
	repository ConfigRepository
	cache      cache.Cache
	broker     async.InternalBroker
}

// GetConfig serves reads through the cache. The TTL is only a backstop:
// UpsertConfig evicts the key, so within one replica reads are never stale.
// Cross-replica freshness rides on the invalidation fan-out plus the
// client's cache-busted fetch.
func (s *SimpleConfigService) GetConfig(ctx context.Context, module, entity string) (domain.Document, error) {
	cacheKey := fmt.Sprintf("registry:%s/%s", module, entity)

	value, err := s.cache.GetOrSet(ctx, cacheKey, _configCacheTTL, func() (any, error) {
		return s.repository.Get(ctx, module, entity)
	})
	if err != nil {
		if errors.Is(err, ErrConfigNotFound) {
			return domain.Document{}, ErrConfigNotFound
		}
		return domain.Document{}, fmt.Errorf("getting registry config: %w", err)
	}

	doc, ok := value.(domain.Document)
	if !ok {
		// A shared cache (redis) hands back decoded JSON, not our type;
		// fall through to the repository.
		return s.repository.Get(ctx, module, entity)
	}

	return doc, nil
}

func (s *SimpleConfigService) UpsertConfig(ctx context.Context, doc domain.Document) (domain.Document, error) {
	doc.Config = doc.Config.Normalized()

	saved, err := s.repository.Upsert(ctx, doc)
	if err != nil {
		return domain.Document{}, fmt.Errorf("upserting registry config: %w", err)
	}

	cacheKey := fmt.Sprintf("registry:%s/%s", saved.Module, saved.Entity)
	s.cache.Delete(ctx, cacheKey)

	event := InvalidationEvent{
		Module:   saved.Module,
		Entity:   saved.Entity,
		Revision: saved.Revision,
	}
	err = s.broker.Publish(ctx, InvalidationTopic, async.BrokerMessage{
		Event: EventConfigUpdated,
		Value: event,
	})
	if err != nil && !errors.Is(err, async.ErrTopicNotFound) {
		// The write is durable; losing the announcement only delays open
		// screens until their next fetch.
		slog.Warn("publishing registry invalidation",
			slog.String("key", saved.Key().String()),
			slog.String("error", err.Error()))
	}

	slog.Info("registry config updated",
		slog.String("key", saved.Key().String()),
		slog.Int("revision", saved.Revision),
		slog.String("updated_by", saved.UpdatedBy))

	return saved, nil
}

func (s *SimpleConfigService) ListConfigs(ctx context.Context, module string, pagination Pagination) ([]domain.Document, int, error) {
	docs, total, err := s.repository.ListByModule(ctx, module, pagination)
	if err != nil {
		return nil, 0, fmt.Errorf("listing registry configs: %w", err)
	}
	return docs, total, nil
}
