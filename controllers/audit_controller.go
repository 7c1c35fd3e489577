package controllers

import (
	"net/http"
	"strconv"

	"github.com/qmsoft/dmt-tracker/models"
	"github.com/qmsoft/dmt-tracker/services"
)

// AuditController serves the read-only audit trail
type AuditController struct {
	services *services.Services
}

// NewAuditController creates a new audit controller
func NewAuditController(services *services.Services) *AuditController {
	return &AuditController{services: services}
}

// List handles GET /api/audit
func (c *AuditController) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := c.services.Audit.List(r.Context(), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if entries == nil {
		entries = []models.AuditLog{}
	}

	writeJSON(w, http.StatusOK, entries)
}
