package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"fieldregistry-server/internal/infra/httpserver"
	registry "fieldregistry-server/internal/registry/domain"
	"fieldregistry-server/internal/schemastore/domain"
	"fieldregistry-server/internal/schemastore/httpapi/internal"
	"fieldregistry-server/internal/schemastore/usecases"
)

const (
	getConfigErrMessage      = "failed to get registry config"
	upsertConfigErrMessage   = "failed to save registry config"
	listConfigsErrMessage    = "failed to list registry configs"
	configNotFoundErrMessage = "registry config not found"
)

func NewConfigController(service usecases.ConfigService) *ConfigController {
	return &ConfigController{
		service: service,
	}
}

var _ httpserver.Controller = &ConfigController{}

type ConfigController struct {
	service usecases.ConfigService
}

func (c *ConfigController) AddRoutes(router *http.ServeMux) {
	router.Handle("GET /v1/registry/{module}/{entity}", c.getConfig())
	router.Handle("PUT /v1/registry/{module}/{entity}", c.upsertConfig())
	router.Handle("GET /v1/registry/{module}", c.listConfigs())
}

// getConfig returns the raw config payload, not the document envelope.
// Runtime clients decode the body straight into their registry and must not
// have to peel metadata first.
func (c *ConfigController) getConfig() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		module := r.PathValue("module")
		entity := r.PathValue("entity")
		if module == "" || entity == "" {
			http.Error(w, "module and entity are required", http.StatusBadRequest)
			return
		}

		doc, err := c.service.GetConfig(r.Context(), module, entity)
		if errors.Is(err, usecases.ErrConfigNotFound) {
			http.Error(w, configNotFoundErrMessage, http.StatusNotFound)
			return
		}
		if err != nil {
			slog.Error("getting registry config", slog.String("error", err.Error()))
			http.Error(w, getConfigErrMessage, http.StatusInternalServerError)
			return
		}

		w.Header().Set("X-Registry-Revision", strconv.Itoa(doc.Revision))
		httpserver.ReplyJSONResponse(w, http.StatusOK, doc.Config)
	}
}

func (c *ConfigController) upsertConfig() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		module := r.PathValue("module")
		entity := r.PathValue("entity")
		if module == "" || entity == "" {
			http.Error(w, "module and entity are required", http.StatusBadRequest)
			return
		}

		var body registry.Config
		err := httpserver.DecodeJSONBody(r, &body)
		if err != nil {
			slog.Error("decoding registry config request", slog.String("error", err.Error()))
			http.Error(w, upsertConfigErrMessage, http.StatusBadRequest)
			return
		}

		doc := domain.NewDocument(module, entity, body)
		doc.UpdatedBy = r.Header.Get("X-User-Email")

		saved, err := c.service.UpsertConfig(r.Context(), doc)
		if err != nil {
			slog.Error("saving registry config", slog.String("error", err.Error()))
			http.Error(w, upsertConfigErrMessage, http.StatusInternalServerError)
			return
		}

		response := internal.ToDocumentResponse(saved)
		httpserver.ReplyJSONResponse(w, http.StatusOK, response)
	}
}

func (c *ConfigController) listConfigs() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		module := r.PathValue("module")
		if module == "" {
			http.Error(w, "module is required", http.StatusBadRequest)
			return
		}

		params := httpserver.ExtractPaginationParams(r)
		pagination := usecases.Pagination{Limit: params.Limit, Offset: params.Offset()}

		docs, total, err := c.service.ListConfigs(r.Context(), module, pagination)
		if err != nil {
			slog.Error("listing registry configs", slog.String("error", err.Error()))
			http.Error(w, listConfigsErrMessage, http.StatusInternalServerError)
			return
		}

		response := internal.ToDocumentResponses(docs)
		httpserver.ReplyWithPaginatedData(w, http.StatusOK, response, total, params)
	}
}
