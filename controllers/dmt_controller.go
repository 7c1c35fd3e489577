package controllers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/qmsoft/dmt-tracker/models"
	"github.com/qmsoft/dmt-tracker/services"
)

// DMTController handles nonconformance report requests
type DMTController struct {
	services *services.Services
}

// NewDMTController creates a new DMT controller
func NewDMTController(services *services.Services) *DMTController {
	return &DMTController{services: services}
}

// List handles GET /api/dmt
func (c *DMTController) List(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")
	includeDrafts := r.URL.Query().Get("include_drafts") == "true"

	records, err := c.services.DMT.List(r.Context(), search, includeDrafts)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if records == nil {
		records = []models.DMTRecord{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items": records,
		"total": len(records),
	})
}

// Get handles GET /api/dmt/{id}
func (c *DMTController) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	record, err := c.services.DMT.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if record == nil {
		writeError(w, http.StatusNotFound, "DMT record not found")
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// Create handles POST /api/dmt
func (c *DMTController) Create(w http.ResponseWriter, r *http.Request) {
	var form models.DMTForm
	if !decodeBody(w, r, &form) {
		return
	}

	record, err := c.services.DMT.Create(r.Context(), &form)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, record)
}

// Update handles PUT /api/dmt/{id}
func (c *DMTController) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	var form models.DMTUpdateForm
	if !decodeBody(w, r, &form) {
		return
	}

	record, err := c.services.DMT.Update(r.Context(), id, &form)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// Delete handles DELETE /api/dmt/{id}
func (c *DMTController) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	if err := c.services.DMT.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "DMT record deleted"})
}

// Close handles POST /api/dmt/{id}/close
func (c *DMTController) Close(w http.ResponseWriter, r *http.Request) {
	c.transition(w, r, c.services.DMT.Close)
}

// Reopen handles POST /api/dmt/{id}/reopen
func (c *DMTController) Reopen(w http.ResponseWriter, r *http.Request) {
	c.transition(w, r, c.services.DMT.Reopen)
}

// AdvanceWorkflow handles POST /api/dmt/{id}/advance-workflow
func (c *DMTController) AdvanceWorkflow(w http.ResponseWriter, r *http.Request) {
	c.transition(w, r, c.services.DMT.AdvanceWorkflow)
}

func (c *DMTController) transition(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id int) (*models.DMTRecord, error)) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	record, err := op(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// Export handles GET /api/dmt/export/{format}
func (c *DMTController) Export(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))

	records, err := c.services.DMT.List(r.Context(), "", false)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	timestamp := time.Now().Format("20060102_150405")

	switch format {
	case "csv":
		data, err := c.services.Export.DMTToCSV(records, days)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=dmt_records_%s.csv", timestamp))
		w.Write([]byte(data))
	case "json":
		data, err := c.services.Export.DMTToJSON(records, days)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=dmt_records_%s.json", timestamp))
		w.Write(data)
	default:
		writeError(w, http.StatusBadRequest, "format must be csv or json")
	}
}
