package usecases

import (
	"context"
	"errors"
	"time"

	"fieldregistry-server/internal/infra/async"
	"fieldregistry-server/internal/schemastore/domain"
)

var ErrConfigNotFound = errors.New("registry config not found")

// InvalidationTopic is the internal broker topic the config service
// announces writes on; the websocket controller fans it out to remote
// consumers.
const InvalidationTopic async.BrokerTopicName = "registry_invalidation"

const EventConfigUpdated = "config_updated"

// InvalidationEvent is the broker payload for one registry write.
type InvalidationEvent struct {
	Module   string `json:"module"`
	Entity   string `json:"entity"`
	Revision int    `json:"revision"`
}

type Pagination struct {
	Limit  int
	Offset int
}

type ConfigRepository interface {
	Get(ctx context.Context, module, entity string) (domain.Document, error)
	Upsert(ctx context.Context, doc domain.Document) (domain.Document, error)
	ListByModule(ctx context.Context, module string, pagination Pagination) ([]domain.Document, int, error)
	CountRevisionsBefore(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteRevisionsBefore(ctx context.Context, cutoff time.Time) error
}

type ConfigService interface {
	GetConfig(ctx context.Context, module, entity string) (domain.Document, error)
	UpsertConfig(ctx context.Context, doc domain.Document) (domain.Document, error)
	ListConfigs(ctx context.Context, module string, pagination Pagination) ([]domain.Document, int, error)
}
