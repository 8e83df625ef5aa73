package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"

	"freightdesk/internal/model"
	"freightdesk/pkg/apierror"
)

const maxJSONBody = 1 << 20

func writeSuccess(w http.ResponseWriter, status int, data any, message string, meta *model.Pagination) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: true,
		Data:    data,
		Message: message,
		Meta:    meta,
	})
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := &model.APIError{
		Code:    "INTERNAL_ERROR",
		Message: "Unexpected server error",
	}

	var apiErr *apierror.APIError
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatus
		body.Code = apiErr.Code
		body.Message = apiErr.Message
		body.Details = apiErr.Details
	case errors.As(err, &maxBytesErr):
		status = http.StatusRequestEntityTooLarge
		body.Code = "PAYLOAD_TOO_LARGE"
		body.Message = "Request body is too large"
	case errors.Is(err, model.ErrRecordNotFound), errors.Is(err, model.ErrDocumentNotFound):
		status = http.StatusNotFound
		body.Code = "NOT_FOUND"
		body.Message = "Record not found"
	case errors.Is(err, model.ErrUnknownCollection):
		status = http.StatusNotFound
		body.Code = "NOT_FOUND"
		body.Message = "Unknown collection"
	case errors.Is(err, model.ErrEmailExists):
		status = http.StatusConflict
		body.Code = "CONFLICT"
		body.Message = model.ErrEmailExists.Error()
	case errors.Is(err, model.ErrPasswordMismatch):
		status = http.StatusBadRequest
		body.Code = "BAD_REQUEST"
		body.Message = model.ErrPasswordMismatch.Error()
	case errors.Is(err, model.ErrInvalidCredentials):
		status = http.StatusUnauthorized
		body.Code = "UNAUTHORIZED"
		body.Message = "Invalid email or password"
	case errors.Is(err, model.ErrUnauthorized), errors.Is(err, model.ErrTokenExpired):
		status = http.StatusUnauthorized
		body.Code = "UNAUTHORIZED"
		body.Message = "Authentication required"
	case errors.Is(err, model.ErrForbidden):
		status = http.StatusForbidden
		body.Code = "FORBIDDEN"
		body.Message = "Access denied"
	case errors.Is(err, model.ErrInvalidInput):
		status = http.StatusBadRequest
		body.Code = "BAD_REQUEST"
		body.Message = "Invalid input"
	case errors.Is(err, os.ErrNotExist):
		status = http.StatusNotFound
		body.Code = "NOT_FOUND"
		body.Message = "File not found"
	default:
		slog.Error("unhandled error in writeError", "error", err.Error())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Message: body.Message,
		Error:   body,
	})
}

// decodeRecord reads a JSON object body.
func decodeRecord(w http.ResponseWriter, r *http.Request) (model.Record, error) {
	defer r.Body.Close()

	var body model.Record
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(&body); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, err
		}
		if errors.Is(err, io.EOF) {
			return nil, apierror.BadRequest("Request body is required", "")
		}
		return nil, apierror.BadRequest("Invalid JSON body", err.Error())
	}
	if body == nil {
		return nil, apierror.BadRequest("Request body must be a JSON object", "")
	}

	return body, nil
}
