// Package ui serves a finished comparison as browsable HTML pages.
package ui

import (
	"log/slog"
	"net/http"
	"strconv"

	gomponents "maragu.dev/gomponents"

	"recdiff/internal/domain"
	"recdiff/internal/service/compare"
)

// HandlerDeps holds what the report pages display. Either report may be nil.
type HandlerDeps struct {
	Report   *compare.Report
	Sheets   *compare.SheetReport
	PageSize int
	Logger   *slog.Logger
}

// Handler renders the report pages. Reports are immutable, so every request
// builds its own browsing state and the handler is safe for concurrent use.
type Handler struct {
	report   *compare.Report
	sheets   *compare.SheetReport
	pageSize int
	logger   *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(deps HandlerDeps) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{
		report:   deps.Report,
		sheets:   deps.Sheets,
		pageSize: domain.PageRequest{Size: deps.PageSize}.Limit(),
		logger:   logger,
	}
}

// pageFromRequest reads the 1-based page query parameter. Missing or
// malformed values mean page 1; the pager clamps out-of-range pages.
func pageFromRequest(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func flagFromRequest(r *http.Request, name string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(name))
	return err == nil && v
}

func renderHTML(w http.ResponseWriter, status int, node gomponents.Node) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = node.Render(w)
}
