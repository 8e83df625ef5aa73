package model

// Envelope is the shape every backend call resolves to. Data is only
// meaningful when Success is true; Meta is only set by list operations.
type Envelope[T any] struct {
	Success bool        `json:"success"`
	Data    T           `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Meta    *Pagination `json:"meta,omitempty"`
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
	TotalItems int `json:"totalItems"`
}

const (
	DefaultPage  = 1
	DefaultLimit = 10
)

func DefaultPagination() Pagination {
	return Pagination{Page: DefaultPage, Limit: DefaultLimit}
}

// NewPagination derives TotalPages from total and limit.
func NewPagination(page int, limit int, total int) Pagination {
	totalPages := 0
	if total > 0 && limit > 0 {
		totalPages = total / limit
		if total%limit != 0 {
			totalPages++
		}
	}

	return Pagination{Page: page, Limit: limit, TotalPages: totalPages, TotalItems: total}
}

func Success[T any](data T, message string) Envelope[T] {
	return Envelope[T]{Success: true, Data: data, Message: message}
}

func Failure[T any](message string) Envelope[T] {
	return Envelope[T]{Success: false, Message: message}
}

// Blob is a binary response body such as an exported report or a stored document.
type Blob struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Content     []byte `json:"-"`
}

// APIResponse is the sandbox wire body. Failures carry both a top-level
// message and a structured error.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    any         `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Meta    *Pagination `json:"meta,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ErrorResponse builds the failure body for code and message.
func ErrorResponse(code string, message string) APIResponse {
	return APIResponse{
		Success: false,
		Message: message,
		Error:   &APIError{Code: code, Message: message},
	}
}
