package http

import (
	"bytes"
	"log/slog"
	"net/http"

	"lendtrack/domain"
	"lendtrack/export"
	"lendtrack/service"
)

type LoanHandler struct {
	service *service.LoanService
	logger  *slog.Logger
}

func NewLoanHandler(service *service.LoanService, logger *slog.Logger) *LoanHandler {
	return &LoanHandler{service: service, logger: logger}
}

func (h *LoanHandler) CalculateSchedule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var input domain.LoanInput
	if !decodeJSON(w, r, &input) {
		return
	}

	schedule, err := h.service.CalculateSchedule(r.Context(), input)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, schedule)
}

// ExportSchedule returns the schedule as a CSV (default) or PDF attachment,
// selected by the format query parameter.
func (h *LoanHandler) ExportSchedule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	format := r.URL.Query().Get("format")
	if format != "" && format != "csv" && format != "pdf" {
		writeError(w, http.StatusBadRequest, "format must be csv or pdf")
		return
	}

	var input domain.LoanInput
	if !decodeJSON(w, r, &input) {
		return
	}

	schedule, err := h.service.CalculateSchedule(r.Context(), input)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	var (
		body        []byte
		contentType string
		filename    string
	)
	if format == "pdf" {
		body, err = export.RenderPDF(schedule)
		if err != nil {
			writeServiceError(w, r, h.logger, err)
			return
		}
		contentType, filename = "application/pdf", "schedule.pdf"
	} else {
		body = []byte(export.FormatScheduleAsDelimitedText(schedule))
		contentType, filename = "text/csv; charset=utf-8", "schedule.csv"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if _, err := bytes.NewReader(body).WriteTo(w); err != nil {
		h.logger.WarnContext(r.Context(), "failed to write export", "error", err)
	}
}

func (h *LoanHandler) MaxPrincipal(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var input domain.MaxPrincipalInput
	if !decodeJSON(w, r, &input) {
		return
	}

	result, err := h.service.MaxPrincipal(r.Context(), input)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, result)
}

func (h *LoanHandler) RequiredTenure(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var input domain.TenureInput
	if !decodeJSON(w, r, &input) {
		return
	}

	result, err := h.service.RequiredTenure(r.Context(), input)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, result)
}
