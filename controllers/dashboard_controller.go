package controllers

import (
	"net/http"

	"github.com/qmsoft/dmt-tracker/services"
	"github.com/qmsoft/dmt-tracker/userctx"
)

// DashboardController serves derived dashboard statistics
type DashboardController struct {
	services *services.Services
}

// NewDashboardController creates a new dashboard controller
func NewDashboardController(services *services.Services) *DashboardController {
	return &DashboardController{services: services}
}

// Stats handles GET /api/dashboard/stats. The calling user's own report
// counts are included alongside the global ones.
func (c *DashboardController) Stats(w http.ResponseWriter, r *http.Request) {
	username := userctx.GetUsername(r.Context())
	if username == "anonymous" {
		username = ""
	}

	stats, err := c.services.Stats.GetStats(r.Context(), username)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
