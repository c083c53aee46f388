package usecases

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fieldregistry-server/internal/infra/async"
	"fieldregistry-server/internal/infra/cache"
	registry "fieldregistry-server/internal/registry/domain"
	"fieldregistry-server/internal/schemastore/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConfigRepository struct {
	mu   sync.Mutex
	docs map[string]domain.Document
	gets int
}

func newFakeConfigRepository() *fakeConfigRepository {
	return &fakeConfigRepository{docs: make(map[string]domain.Document)}
}

func (r *fakeConfigRepository) Get(ctx context.Context, module, entity string) (domain.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gets++
	doc, ok := r.docs[module+"/"+entity]
	if !ok {
		return domain.Document{}, ErrConfigNotFound
	}
	return doc, nil
}

func (r *fakeConfigRepository) Upsert(ctx context.Context, doc domain.Document) (domain.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := doc.Module + "/" + doc.Entity
	if existing, ok := r.docs[key]; ok {
		doc.Revision = existing.Revision + 1
	} else {
		doc.Revision = 1
	}
	r.docs[key] = doc
	return doc, nil
}

func (r *fakeConfigRepository) ListByModule(ctx context.Context, module string, pagination Pagination) ([]domain.Document, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Document
	for _, doc := range r.docs {
		if doc.Module == module {
			out = append(out, doc)
		}
	}
	return out, len(out), nil
}

func (r *fakeConfigRepository) CountRevisionsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func (r *fakeConfigRepository) DeleteRevisionsBefore(ctx context.Context, cutoff time.Time) error {
	return nil
}

func (r *fakeConfigRepository) getCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gets
}

func newTestService(t *testing.T) (*SimpleConfigService, *fakeConfigRepository, *async.LocalBroker) {
	t.Helper()
	repo := newFakeConfigRepository()
	documentCache, err := cache.New(nil)
	require.NoError(t, err)
	broker := async.NewLocalBroker()
	return NewConfigService(repo, documentCache, broker), repo, broker
}

func TestConfigService_GetMissing(t *testing.T) {
	service, _, _ := newTestService(t)

	_, err := service.GetConfig(context.Background(), "crm", "leads")

	assert.True(t, errors.Is(err, ErrConfigNotFound))
}

func TestConfigService_GetServesFromCache(t *testing.T) {
	service, repo, _ := newTestService(t)
	ctx := context.Background()

	_, err := service.UpsertConfig(ctx, domain.NewDocument("crm", "leads", registry.Config{EntityLabel: "Lead"}))
	require.NoError(t, err)

	first, err := service.GetConfig(ctx, "crm", "leads")
	require.NoError(t, err)
	reads := repo.getCount()

	second, err := service.GetConfig(ctx, "crm", "leads")
	require.NoError(t, err)

	assert.Equal(t, first.Revision, second.Revision)
	assert.Equal(t, reads, repo.getCount(), "second read is a cache hit")
}

func TestConfigService_UpsertEvictsCache(t *testing.T) {
	service, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := service.UpsertConfig(ctx, domain.NewDocument("crm", "leads", registry.Config{EntityLabel: "Lead"}))
	require.NoError(t, err)
	_, err = service.GetConfig(ctx, "crm", "leads")
	require.NoError(t, err)

	_, err = service.UpsertConfig(ctx, domain.NewDocument("crm", "leads", registry.Config{EntityLabel: "Sales Lead"}))
	require.NoError(t, err)

	got, err := service.GetConfig(ctx, "crm", "leads")
	require.NoError(t, err)
	assert.Equal(t, "Sales Lead", got.Config.EntityLabel)
	assert.Equal(t, 2, got.Revision)
}

func TestConfigService_UpsertPublishesInvalidation(t *testing.T) {
	service, _, broker := newTestService(t)
	ctx := context.Background()

	subscription, err := broker.Subscribe(InvalidationTopic)
	require.NoError(t, err)

	_, err = service.UpsertConfig(ctx, domain.NewDocument("crm", "leads", registry.Config{EntityLabel: "Lead"}))
	require.NoError(t, err)

	select {
	case msg := <-subscription.Receiver:
		assert.Equal(t, EventConfigUpdated, msg.Event)
		event, ok := msg.Value.(InvalidationEvent)
		require.True(t, ok)
		assert.Equal(t, "crm", event.Module)
		assert.Equal(t, "leads", event.Entity)
		assert.Equal(t, 1, event.Revision)
	case <-time.After(time.Second):
		t.Fatal("no invalidation event received")
	}
}

func TestConfigService_UpsertNormalizesPayload(t *testing.T) {
	service, _, _ := newTestService(t)
	ctx := context.Background()

	doc := domain.NewDocument("crm", "leads", registry.Config{})
	doc.Config = registry.Config{Fields: []registry.FieldDescriptor{
		{Name: "name", Label: "Name", Type: registry.FieldTypeText},
		{Name: "name", Label: "Duplicate", Type: registry.FieldTypeText},
		{Name: "source", Label: "Source", Type: "widget"},
	}}

	saved, err := service.UpsertConfig(ctx, doc)
	require.NoError(t, err)

	require.Len(t, saved.Config.Fields, 2)
	assert.Equal(t, registry.FieldTypeText, saved.Config.Fields[1].Type)
}

func TestConfigService_UpsertSurvivesMissingSubscribers(t *testing.T) {
	service, _, _ := newTestService(t)

	// nobody subscribed to the invalidation topic yet
	_, err := service.UpsertConfig(context.Background(), domain.NewDocument("crm", "leads", registry.Config{}))

	assert.NoError(t, err)
}
