package httpserver

import (
	"errors"
	"net/http"

	"petcare-dashboard/internal/consult"
	"petcare-dashboard/internal/dashboard"
	"petcare-dashboard/internal/repo"
)

// envelope is the body of every API response.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Details string `json:"details,omitempty"`
	Message string `json:"message,omitempty"`
}

func (a *API) ok(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: data})
}

// fail maps err to a status and writes the error envelope. what names the
// resource for the generic failure text, e.g. "analytics".
func (a *API) fail(w http.ResponseWriter, r *http.Request, what, notFound string, err error) {
	status := statusFor(err)
	body := envelope{}
	switch status {
	case http.StatusNotFound:
		body.Error = notFound
	case http.StatusBadRequest:
		body.Error = err.Error()
	default:
		body.Error = "Failed to fetch " + what
		if !a.production {
			body.Details = err.Error()
		}
		a.metrics.CountError("http")
		a.logger.Error("request failed", "route", r.Pattern, "error", err)
	}
	writeJSON(w, status, body)
}

var badRequest = []error{
	errInvalidParam,
	dashboard.ErrInvalidInput,
	consult.ErrInvalidAction,
	consult.ErrInvalidTransition,
	consult.ErrInvalidAppointment,
	consult.ErrInvalidStatus,
	repo.ErrUnknownThreadFilter,
	repo.ErrUnknownThreadSort,
}

func statusFor(err error) int {
	if errors.Is(err, repo.ErrNotFound) {
		return http.StatusNotFound
	}
	for _, target := range badRequest {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}
