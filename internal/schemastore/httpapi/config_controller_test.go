package httpapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"

	"fieldregistry-server/internal/infra/httpserver"
	registry "fieldregistry-server/internal/registry/domain"
	"fieldregistry-server/internal/schemastore/domain"
	"fieldregistry-server/internal/schemastore/httpapi"
	"fieldregistry-server/internal/schemastore/usecases"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type fakeConfigService struct {
	docs       map[string]domain.Document
	upserted   []domain.Document
	getErr     error
	upsertErr  error
	listErr    error
	lastPaging usecases.Pagination
}

func newFakeConfigService() *fakeConfigService {
	return &fakeConfigService{docs: make(map[string]domain.Document)}
}

func (s *fakeConfigService) GetConfig(ctx context.Context, module, entity string) (domain.Document, error) {
	if s.getErr != nil {
		return domain.Document{}, s.getErr
	}
	doc, ok := s.docs[module+"/"+entity]
	if !ok {
		return domain.Document{}, usecases.ErrConfigNotFound
	}
	return doc, nil
}

func (s *fakeConfigService) UpsertConfig(ctx context.Context, doc domain.Document) (domain.Document, error) {
	if s.upsertErr != nil {
		return domain.Document{}, s.upsertErr
	}
	doc.Revision = len(s.upserted) + 1
	s.upserted = append(s.upserted, doc)
	s.docs[doc.Module+"/"+doc.Entity] = doc
	return doc, nil
}

func (s *fakeConfigService) ListConfigs(ctx context.Context, module string, pagination usecases.Pagination) ([]domain.Document, int, error) {
	if s.listErr != nil {
		return nil, 0, s.listErr
	}
	s.lastPaging = pagination
	var out []domain.Document
	for _, doc := range s.docs {
		if doc.Module == module {
			out = append(out, doc)
		}
	}
	return out, len(out), nil
}

var _ = Describe("ConfigController", func() {
	var controller *httpapi.ConfigController
	var service *fakeConfigService
	var router *http.ServeMux
	var recorder *httptest.ResponseRecorder

	BeforeEach(func() {
		slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
		service = newFakeConfigService()
		controller = httpapi.NewConfigController(service)
		router = http.NewServeMux()
		controller.AddRoutes(router)
		recorder = httptest.NewRecorder()
	})

	Context("getConfig", func() {
		When("the document exists", func() {
			BeforeEach(func() {
				doc := domain.NewDocument("crm", "leads", registry.Config{
					Fields: []registry.FieldDescriptor{
						{Name: "name", Label: "Name", Type: registry.FieldTypeText, Required: true},
					},
					EntityLabel: "Lead",
				})
				doc.Revision = 3
				service.docs["crm/leads"] = doc
			})

			It("returns the raw config payload with the revision header", func() {
				request := httptest.NewRequest("GET", "/v1/registry/crm/leads", nil)

				router.ServeHTTP(recorder, request)

				Expect(recorder.Code).To(Equal(http.StatusOK))
				Expect(recorder.Header().Get("X-Registry-Revision")).To(Equal("3"))

				var config registry.Config
				err := json.Unmarshal(recorder.Body.Bytes(), &config)
				Expect(err).NotTo(HaveOccurred())
				Expect(config.EntityLabel).To(Equal("Lead"))
				Expect(config.Fields).To(HaveLen(1))
				Expect(config.Fields[0].Name).To(Equal("name"))
			})
		})

		When("the document does not exist", func() {
			It("returns not found", func() {
				request := httptest.NewRequest("GET", "/v1/registry/crm/missing", nil)

				router.ServeHTTP(recorder, request)

				Expect(recorder.Code).To(Equal(http.StatusNotFound))
			})
		})

		When("the service fails", func() {
			It("returns internal server error", func() {
				service.getErr = errors.New("database down")
				request := httptest.NewRequest("GET", "/v1/registry/crm/leads", nil)

				router.ServeHTTP(recorder, request)

				Expect(recorder.Code).To(Equal(http.StatusInternalServerError))
			})
		})
	})

	Context("upsertConfig", func() {
		When("the payload is valid", func() {
			It("saves the document tagged with the caller identity", func() {
				body := `{"fields":[{"field_name":"status","field_label":"Status","field_type":"select","options":[{"value":"new","label":"New"}]}],"entity_label":"Lead"}`
				request := httptest.NewRequest("PUT", "/v1/registry/crm/leads", strings.NewReader(body))
				request.Header.Set("X-User-Email", "ops@example.com")

				router.ServeHTTP(recorder, request)

				Expect(recorder.Code).To(Equal(http.StatusOK))
				Expect(service.upserted).To(HaveLen(1))
				Expect(service.upserted[0].Module).To(Equal("crm"))
				Expect(service.upserted[0].Entity).To(Equal("leads"))
				Expect(service.upserted[0].UpdatedBy).To(Equal("ops@example.com"))

				var response map[string]any
				err := json.Unmarshal(recorder.Body.Bytes(), &response)
				Expect(err).NotTo(HaveOccurred())
				Expect(response["revision"]).To(BeEquivalentTo(1))
				Expect(response["module"]).To(Equal("crm"))
			})
		})

		When("the payload is not JSON", func() {
			It("returns bad request", func() {
				request := httptest.NewRequest("PUT", "/v1/registry/crm/leads", strings.NewReader("not json"))

				router.ServeHTTP(recorder, request)

				Expect(recorder.Code).To(Equal(http.StatusBadRequest))
			})
		})

		When("the service fails", func() {
			It("returns internal server error", func() {
				service.upsertErr = errors.New("database down")
				request := httptest.NewRequest("PUT", "/v1/registry/crm/leads", strings.NewReader(`{"fields":[]}`))

				router.ServeHTTP(recorder, request)

				Expect(recorder.Code).To(Equal(http.StatusInternalServerError))
			})
		})
	})

	Context("listConfigs", func() {
		BeforeEach(func() {
			service.docs["crm/leads"] = domain.NewDocument("crm", "leads", registry.Config{})
			service.docs["crm/contacts"] = domain.NewDocument("crm", "contacts", registry.Config{})
		})

		When("using default pagination", func() {
			It("returns a paginated envelope of document metadata", func() {
				request := httptest.NewRequest("GET", "/v1/registry/crm", nil)

				router.ServeHTTP(recorder, request)

				Expect(recorder.Code).To(Equal(http.StatusOK))
				Expect(service.lastPaging).To(Equal(usecases.Pagination{Limit: 10, Offset: 0}))

				var response httpserver.PaginatedResponse
				err := json.Unmarshal(recorder.Body.Bytes(), &response)
				Expect(err).NotTo(HaveOccurred())
				Expect(response.Pagination.Page).To(Equal(1))
				Expect(response.Pagination.Limit).To(Equal(10))
				Expect(response.Pagination.Total).To(Equal(2))

				data, ok := response.Data.([]any)
				Expect(ok).To(BeTrue())
				Expect(data).To(HaveLen(2))
			})
		})

		When("using custom pagination", func() {
			It("translates page and limit into an offset", func() {
				request := httptest.NewRequest("GET", "/v1/registry/crm?page=3&limit=5", nil)

				router.ServeHTTP(recorder, request)

				Expect(recorder.Code).To(Equal(http.StatusOK))
				Expect(service.lastPaging).To(Equal(usecases.Pagination{Limit: 5, Offset: 10}))
			})
		})

		When("the service fails", func() {
			It("returns internal server error", func() {
				service.listErr = errors.New("database down")
				request := httptest.NewRequest("GET", "/v1/registry/crm", nil)

				router.ServeHTTP(recorder, request)

				Expect(recorder.Code).To(Equal(http.StatusInternalServerError))
			})
		})
	})
})
