package handler

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"freightdesk/internal/service"
	"freightdesk/pkg/apierror"
)

// multipartOverhead is the allowance for boundaries and part headers on top
// of the document size limit.
const multipartOverhead = 1 << 20

type LoadHandler struct {
	records       *service.RecordService
	documents     *service.DocumentService
	maxUploadSize int64
}

func NewLoadHandler(records *service.RecordService, documents *service.DocumentService, maxUploadSize int64) *LoadHandler {
	return &LoadHandler{records: records, documents: documents, maxUploadSize: maxUploadSize}
}

func (h *LoadHandler) RefreshAge(w http.ResponseWriter, r *http.Request) {
	load, err := h.records.RefreshAge(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, load, "Load age refreshed", nil)
}

// UploadDocument stores the first file part named "file".
func (h *LoadHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	if h.maxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+multipartOverhead)
	}

	reader, err := r.MultipartReader()
	if err != nil {
		writeError(w, apierror.BadRequest("Invalid multipart body", err.Error()))
		return
	}

	for {
		part, nextErr := reader.NextPart()
		if nextErr == io.EOF {
			break
		}
		if nextErr != nil {
			if isPayloadTooLarge(nextErr) {
				writeError(w, tooLarge())
				return
			}
			writeError(w, apierror.BadRequest("Invalid multipart stream", nextErr.Error()))
			return
		}

		if part.FormName() != "file" || strings.TrimSpace(part.FileName()) == "" {
			_ = part.Close()
			continue
		}

		doc, uploadErr := h.documents.Upload(r.Context(), chi.URLParam(r, "id"), part.FileName(), part)
		_ = part.Close()
		if uploadErr != nil {
			if isPayloadTooLarge(uploadErr) {
				uploadErr = tooLarge()
			}
			writeError(w, uploadErr)
			return
		}

		writeSuccess(w, http.StatusCreated, doc, "Document uploaded successfully", nil)
		return
	}

	writeError(w, apierror.BadRequest("A file is required", "file"))
}

func (h *LoadHandler) DownloadDocument(w http.ResponseWriter, r *http.Request) {
	file, doc, err := h.documents.Open(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "docId"))
	if err != nil {
		writeError(w, err)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		writeError(w, err)
		return
	}

	name := doc.String("name")
	if contentType := doc.String("contentType"); contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	http.ServeContent(w, r, name, info.ModTime(), file)
}

func tooLarge() error {
	return apierror.New("PAYLOAD_TOO_LARGE", "File exceeds the upload size limit", "", http.StatusRequestEntityTooLarge)
}

func isPayloadTooLarge(err error) bool {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return true
	}

	return strings.Contains(strings.ToLower(err.Error()), "request body too large")
}
