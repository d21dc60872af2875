package ui

import (
	"errors"
	"net/http"

	"recdiff/internal/domain"
	"recdiff/internal/report"
)

// Healthz reports liveness.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}` + "\n"))
}

// ReportJSON serves the raw report.
func (h *Handler) ReportJSON(w http.ResponseWriter, r *http.Request) {
	var v any
	switch {
	case h.report != nil:
		v = h.report
	case h.sheets != nil:
		v = h.sheets
	default:
		h.renderServiceError(w, r, domain.ErrNotFound("no report loaded"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := report.WriteJSON(w, v); err != nil {
		h.logger.Warn("write report json", "error", err)
	}
}

func (h *Handler) renderServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	title := "Unexpected Error"
	message := "An unexpected error occurred while loading this page."

	var notFound *domain.NotFoundError
	var validation *domain.ValidationError
	var noTables *domain.NoComparableTablesError
	if errors.As(err, &notFound) {
		status = http.StatusNotFound
		title = "Not Found"
		message = notFound.Error()
	} else if errors.As(err, &validation) {
		status = http.StatusBadRequest
		title = "Invalid Request"
		message = validation.Error()
	} else if errors.As(err, &noTables) {
		status = http.StatusUnprocessableEntity
		title = "Nothing To Compare"
		message = noTables.Error()
	} else {
		h.logger.Error("report page failed", "path", r.URL.Path, "error", err)
	}

	renderHTML(w, status, errorPage(title, message))
}
