package handler

import (
	"net/http"

	"freightdesk/internal/service"
)

// AuditHandler serves the write trail to admins.
type AuditHandler struct {
	audit    *service.AuditService
	maxLimit int
}

func NewAuditHandler(audit *service.AuditService, maxLimit int) *AuditHandler {
	return &AuditHandler{audit: audit, maxLimit: maxLimit}
}

func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	params, err := service.ParseListParams(r.URL.Query(), h.maxLimit)
	if err != nil {
		writeError(w, err)
		return
	}

	page, meta, err := h.audit.Query(params)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, page, "", &meta)
}
