package ui

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"recdiff/internal/domain"
	"recdiff/internal/window"
)

// Home lists the compared tables, filtered by ?q= and ?diff_only=1, and the
// compared sheets.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	d := homePageData{Report: h.report, Sheets: h.sheets}
	if h.report != nil {
		b := window.NewBrowser(h.report.Results(), h.pageSize)
		b.SetSearch(r.URL.Query().Get("q"))
		b.SetDiffOnly(flagFromRequest(r, "diff_only"))
		d.Tables = b.Tables()
		d.Search = b.Search()
		d.DiffOnly = b.DiffOnly()
	}
	renderHTML(w, http.StatusOK, homePage(d))
}

// TableDetail pages through the differences of one table.
func (h *Handler) TableDetail(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "tableName"))
	if err != nil {
		h.renderServiceError(w, r, domain.ErrValidation("invalid table name"))
		return
	}
	if h.report == nil {
		h.renderServiceError(w, r, domain.ErrNotFound("no table report loaded"))
		return
	}
	b := window.NewBrowser(h.report.Results(), h.pageSize)
	if err := b.Select(name); err != nil {
		h.renderServiceError(w, r, err)
		return
	}
	b.Pager().Goto(pageFromRequest(r))

	t, _ := h.report.Table(name)
	renderHTML(w, http.StatusOK, tablePage(tablePageData{Table: t, Pager: b.Pager()}))
}

// SheetDetail pages through the aligned rows of one sheet, optionally
// hiding unchanged rows.
func (h *Handler) SheetDetail(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "sheetName"))
	if err != nil {
		h.renderServiceError(w, r, domain.ErrValidation("invalid sheet name"))
		return
	}
	if h.sheets == nil {
		h.renderServiceError(w, r, domain.ErrNotFound("no workbook report loaded"))
		return
	}
	sd, ok := h.sheets.Sheet(name)
	if !ok {
		h.renderServiceError(w, r, domain.ErrNotFound("sheet %q not found in report", name))
		return
	}

	view := window.NewSheetView(sd)
	view.SetDiffOnly(flagFromRequest(r, "diff_only"))
	pager := window.NewPager(view.Rows(), h.pageSize)
	pager.Goto(pageFromRequest(r))

	renderHTML(w, http.StatusOK, sheetPage(sheetPageData{Sheet: sd, DiffOnly: view.DiffOnly(), Pager: pager}))
}
