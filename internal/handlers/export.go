// internal/handlers/export.go
package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/tealeg/xlsx/v3"

	"github.com/ammerola/stocksync/internal/core/domain"
	"github.com/ammerola/stocksync/internal/core/ports"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var outcomeHeaders = []string{
	"SKU", "Location", "Result", "Previous Quantity", "New Quantity",
	"Delta", "Activated", "Message", "Error",
}

// ExportHandler renders the outcomes of a recorded run as a spreadsheet.
type ExportHandler struct {
	runs   ports.SyncLogRepository
	logger *slog.Logger
}

// NewExportHandler creates a new export handler
func NewExportHandler(runs ports.SyncLogRepository, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{
		runs:   runs,
		logger: logger.With(slog.String("handler", "export")),
	}
}

// ExportRun handles GET /api/v1/sync/runs/{id}/export
func (h *ExportHandler) ExportRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid run id")
		return
	}

	result, err := h.runs.FindResult(ctx, id)
	if err == nil && !ownsRun(r, result.Summary.Shop) {
		err = domain.ErrRunNotFound
	}
	if err != nil {
		if errors.Is(err, domain.ErrRunNotFound) {
			respondError(w, http.StatusNotFound, "sync run not found")
			return
		}
		h.logger.ErrorContext(ctx, "failed to load run result",
			slog.String("run_id", id.String()),
			slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "failed to export sync run")
		return
	}

	if r.URL.Query().Get("format") == "json" {
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="sync-run-%s.json"`, id))
		respondJSON(w, http.StatusOK, result)
		return
	}

	data, err := GenerateOutcomeWorkbook(result)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to build workbook",
			slog.String("run_id", id.String()),
			slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "failed to export sync run")
		return
	}

	h.logger.InfoContext(ctx, "sync run exported",
		slog.String("run_id", id.String()),
		slog.Int("outcomes", len(result.Outcomes)),
		slog.Int("bytes", len(data)))

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="sync-run-%s.xlsx"`, id))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// GenerateOutcomeWorkbook builds an xlsx file with one row per outcome, a
// summary sheet and, when present, the item-level errors.
func GenerateOutcomeWorkbook(result *domain.SyncResult) ([]byte, error) {
	file := xlsx.NewFile()

	sheet, err := file.AddSheet("Outcomes")
	if err != nil {
		return nil, fmt.Errorf("failed to add worksheet: %w", err)
	}
	addHeaderRow(sheet, outcomeHeaders)
	for _, o := range result.Outcomes {
		addRow(sheet,
			o.SKU,
			o.Location,
			outcomeResult(o),
			intCell(o.PreviousQuantity),
			intCell(o.NewQuantity),
			intCell(o.Delta),
			strconv.FormatBool(o.WasActivated),
			o.Message,
			o.Error,
		)
	}
	for i := range outcomeHeaders {
		sheet.SetColWidth(i+1, i+1, 18)
	}

	summary, err := file.AddSheet("Summary")
	if err != nil {
		return nil, fmt.Errorf("failed to add summary sheet: %w", err)
	}
	s := result.Summary
	for _, kv := range [][2]string{
		{"Run ID", s.RunID.String()},
		{"Shop", s.Shop},
		{"Status", string(s.Status)},
		{"Total Items", strconv.Itoa(s.TotalItems)},
		{"Updated", strconv.Itoa(s.SuccessCount)},
		{"Failed", strconv.Itoa(s.FailedCount)},
		{"Skipped", strconv.Itoa(s.SkippedCount)},
		{"Unmatched Locations", strconv.Itoa(s.UnmatchedCount)},
		{"Location Failures", strconv.Itoa(s.LocationFailures)},
		{"Duration (ms)", strconv.FormatInt(s.DurationMs, 10)},
		{"Started At", formatTime(s.StartedAt)},
		{"Completed At", formatTime(s.CompletedAt)},
		{"Message", s.Message},
	} {
		addRow(summary, kv[0], kv[1])
	}

	if len(result.Errors) > 0 {
		errSheet, err := file.AddSheet("Errors")
		if err != nil {
			return nil, fmt.Errorf("failed to add errors sheet: %w", err)
		}
		addHeaderRow(errSheet, []string{"SKU", "Error"})
		for _, e := range result.Errors {
			addRow(errSheet, e.SKU, e.Error)
		}
	}

	var buffer bytes.Buffer
	if err := file.Write(&buffer); err != nil {
		return nil, fmt.Errorf("failed to write Excel file to buffer: %w", err)
	}
	return buffer.Bytes(), nil
}

func addHeaderRow(sheet *xlsx.Sheet, headers []string) {
	row := sheet.AddRow()
	for _, header := range headers {
		cell := row.AddCell()
		cell.Value = header
		cell.GetStyle().Font.Bold = true
		cell.GetStyle().Fill.PatternType = "solid"
		cell.GetStyle().Fill.FgColor = "CCCCCC"
	}
}

func addRow(sheet *xlsx.Sheet, values ...string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().Value = v
	}
}

func outcomeResult(o domain.SyncOutcome) string {
	switch {
	case o.Skipped:
		return "skipped"
	case o.Success:
		return "updated"
	default:
		return "failed"
	}
}

func intCell(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
