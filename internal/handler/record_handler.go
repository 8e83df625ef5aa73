package handler

import (
	"encoding/csv"
	"encoding/json"
	"log/slog"
	"mime"
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"

	"freightdesk/internal/model"
	"freightdesk/internal/service"
)

// RecordHandler serves the generic collection endpoints under /{collection}.
type RecordHandler struct {
	records   *service.RecordService
	documents *service.DocumentService
}

func NewRecordHandler(records *service.RecordService, documents *service.DocumentService) *RecordHandler {
	return &RecordHandler{records: records, documents: documents}
}

func (h *RecordHandler) List(w http.ResponseWriter, r *http.Request) {
	params, err := service.ParseListParams(r.URL.Query(), h.records.MaxLimit())
	if err != nil {
		writeError(w, err)
		return
	}

	page, meta, err := h.records.List(r.Context(), chi.URLParam(r, "collection"), params)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, page, "", &meta)
}

func (h *RecordHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.records.Get(r.Context(), chi.URLParam(r, "collection"), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, rec, "", nil)
}

func (h *RecordHandler) Create(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")

	body, err := decodeRecord(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	rec, err := h.records.Create(r.Context(), collection, body)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, rec, model.Singular(collection)+" created successfully", nil)
}

func (h *RecordHandler) Update(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")

	body, err := decodeRecord(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	rec, err := h.records.Update(r.Context(), collection, chi.URLParam(r, "id"), body)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, rec, model.Singular(collection)+" updated successfully", nil)
}

func (h *RecordHandler) Delete(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	id := chi.URLParam(r, "id")

	if err := h.records.Delete(r.Context(), collection, id); err != nil {
		writeError(w, err)
		return
	}

	if collection == model.CollectionLoads && h.documents != nil {
		if err := h.documents.Purge(id); err != nil {
			slog.Warn("load documents not removed", "load_id", id, "error", err)
		}
	}

	writeSuccess(w, http.StatusOK, nil, model.Singular(collection)+" deleted successfully", nil)
}

func (h *RecordHandler) ToggleActive(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")

	rec, err := h.records.ToggleActive(r.Context(), collection, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	state := "deactivated"
	if rec.Bool("isActive") {
		state = "activated"
	}
	writeSuccess(w, http.StatusOK, rec, model.Singular(collection)+" "+state, nil)
}

// Export writes every record matching the list filters as CSV. Columns are
// the union of record keys in name order.
func (h *RecordHandler) Export(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")

	params, err := service.ParseListParams(r.URL.Query(), h.records.MaxLimit())
	if err != nil {
		writeError(w, err)
		return
	}

	records, err := h.records.Filtered(r.Context(), collection, params)
	if err != nil {
		writeError(w, err)
		return
	}

	columns := exportColumns(records)

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": collection + ".csv"}))
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	_ = cw.Write(columns)
	row := make([]string, len(columns))
	for _, rec := range records {
		for i, col := range columns {
			row[i] = cell(rec[col])
		}
		if err := cw.Write(row); err != nil {
			slog.Warn("export aborted", "collection", collection, "error", err)
			return
		}
	}
	cw.Flush()
}

func exportColumns(records []model.Record) []string {
	seen := map[string]struct{}{}
	var columns []string
	for _, rec := range records {
		for key := range rec {
			if _, ok := seen[key]; !ok {
				seen[key] = struct{}{}
				columns = append(columns, key)
			}
		}
	}
	slices.Sort(columns)
	return columns
}

func cell(v any) string {
	switch typed := v.(type) {
	case nil:
		return ""
	case map[string]any, []any:
		data, err := json.Marshal(typed)
		if err != nil {
			return ""
		}
		return string(data)
	default:
		return strings.TrimSpace(model.Record{"v": typed}.String("v"))
	}
}
