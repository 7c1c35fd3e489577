package controllers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/qmsoft/dmt-tracker/models"
	"github.com/qmsoft/dmt-tracker/services"
)

// EntityController handles reference entity requests. One controller
// serves all eight kinds; the URL selects the kind.
type EntityController struct {
	services *services.Services
}

// NewEntityController creates a new entity controller
func NewEntityController(services *services.Services) *EntityController {
	return &EntityController{services: services}
}

func entityKind(r *http.Request) models.EntityKind {
	return models.EntityKind(chi.URLParam(r, "entity"))
}

// List handles GET /api/entities/{entity}
func (c *EntityController) List(w http.ResponseWriter, r *http.Request) {
	kind := entityKind(r)
	search := r.URL.Query().Get("search")

	entities, err := c.services.Entity.List(r.Context(), kind, search)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if entities == nil {
		entities = []models.ReferenceEntity{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items": entities,
		"total": len(entities),
	})
}

// Get handles GET /api/entities/{entity}/{id}
func (c *EntityController) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	entity, err := c.services.Entity.Get(r.Context(), entityKind(r), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if entity == nil {
		writeError(w, http.StatusNotFound, "entity not found")
		return
	}

	writeJSON(w, http.StatusOK, entity)
}

// Create handles POST /api/entities/{entity}
func (c *EntityController) Create(w http.ResponseWriter, r *http.Request) {
	var form models.EntityForm
	if !decodeBody(w, r, &form) {
		return
	}

	entity, err := c.services.Entity.Create(r.Context(), entityKind(r), &form)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, entity)
}

// Update handles PUT /api/entities/{entity}/{id}
func (c *EntityController) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	var form models.EntityForm
	if !decodeBody(w, r, &form) {
		return
	}

	entity, err := c.services.Entity.Update(r.Context(), entityKind(r), id, &form)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, entity)
}

// Delete handles DELETE /api/entities/{entity}/{id}
func (c *EntityController) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	if err := c.services.Entity.Delete(r.Context(), entityKind(r), id); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "entity deleted"})
}

// Import handles POST /api/entities/{entity}/import. The CSV arrives
// either as a multipart upload under the "file" field or as the raw
// request body.
func (c *EntityController) Import(w http.ResponseWriter, r *http.Request) {
	body, err := csvBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing CSV file")
		return
	}
	defer body.Close()

	result, err := c.services.Entity.ImportCSV(r.Context(), entityKind(r), body)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func csvBody(r *http.Request) (io.ReadCloser, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, err
		}
		return file, nil
	}
	return r.Body, nil
}

// Export handles GET /api/entities/{entity}/export/{format}
func (c *EntityController) Export(w http.ResponseWriter, r *http.Request) {
	kind := entityKind(r)
	format := chi.URLParam(r, "format")
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))

	entities, err := c.services.Entity.List(r.Context(), kind, "")
	if err != nil {
		writeServiceError(w, err)
		return
	}

	timestamp := time.Now().Format("20060102_150405")

	switch format {
	case "csv":
		data, err := c.services.Export.EntitiesToCSV(kind, entities, days)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s_%s.csv", kind.Table(), timestamp))
		w.Write([]byte(data))
	case "json":
		data, err := c.services.Export.EntitiesToJSON(kind, entities, days)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s_%s.json", kind.Table(), timestamp))
		w.Write(data)
	default:
		writeError(w, http.StatusBadRequest, "format must be csv or json")
	}
}
