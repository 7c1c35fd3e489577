package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/qmsoft/dmt-tracker/services"
)

// Controllers struct holds all controller instances
type Controllers struct {
	Auth      *AuthController
	User      *UserController
	DMT       *DMTController
	Entity    *EntityController
	Audit     *AuditController
	Dashboard *DashboardController
}

// NewControllers creates and initializes all controllers
func NewControllers(srvs *services.Services) *Controllers {
	return &Controllers{
		Auth:      NewAuthController(srvs),
		User:      NewUserController(srvs),
		DMT:       NewDMTController(srvs),
		Entity:    NewEntityController(srvs),
		Audit:     NewAuditController(srvs),
		Dashboard: NewDashboardController(srvs),
	}
}

// writeJSON writes data as a JSON response with the given status code
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes an error message as a JSON response
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps a service error to its HTTP status code
func writeServiceError(w http.ResponseWriter, err error) {
	var ve *services.ValidationError
	switch {
	case errors.Is(err, services.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrAccountInactive):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrUsernameTaken):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrUnknownEntityKind):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// decodeBody decodes the JSON request body into dst
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
