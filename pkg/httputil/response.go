package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/jdufresne12/web-portal/pkg/errors"
	"github.com/jdufresne12/web-portal/pkg/logger"
)

// Response is the JSON envelope of every API answer.
type Response struct {
	Data  any            `json:"data,omitempty"`
	Error *ErrorResponse `json:"error,omitempty"`
}

// ErrorResponse is the error half of Response. RequestID echoes the
// correlation ID so a user report can be matched to the logs.
type ErrorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// WriteJSON writes v with the given status. Encoding errors are dropped
// since the status line has already been sent.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError reports err using its kind. AppError messages are shown as is;
// anything else gets a generic message for its kind so internals never
// leak. 5xx errors are logged with the request-scoped logger when one is
// in the context, otherwise with fallback.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	ctx := r.Context()
	status := apperrors.HTTPStatus(err)
	body := &ErrorResponse{RequestID: logger.CorrelationIDFromContext(ctx)}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		body.Code, body.Message = appErr.Code, appErr.Message
	} else {
		kind := apperrors.KindOf(err)
		body.Code, body.Message = kind.Code(), publicMessage(kind, err)
	}

	if status >= http.StatusInternalServerError {
		l := logger.FromContext(ctx)
		if l == slog.Default() && fallback != nil {
			l = fallback
		}
		l.ErrorContext(ctx, "request failed",
			slog.Int("status", status),
			slog.String("code", body.Code),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}

	WriteJSON(w, status, Response{Error: body})
}

func publicMessage(kind apperrors.Kind, err error) string {
	switch kind {
	case apperrors.KindInternal:
		return "an internal error occurred"
	case apperrors.KindInvalidInput:
		return err.Error()
	default:
		return http.StatusText(kind.Status())
	}
}

// PaginatedResponse is a page of a list plus the numbers a client needs to
// fetch the rest.
type PaginatedResponse[T any] struct {
	Data       []T  `json:"data"`
	TotalCount int  `json:"total_count"`
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
}

// NewPaginatedResponse builds a page. data is never encoded as null.
func NewPaginatedResponse[T any](data []T, totalCount, page, perPage int) PaginatedResponse[T] {
	if data == nil {
		data = []T{}
	}
	totalPages := 0
	if perPage > 0 {
		totalPages = (totalCount + perPage - 1) / perPage
	}
	return PaginatedResponse[T]{
		Data:       data,
		TotalCount: totalCount,
		Page:       page,
		PerPage:    perPage,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// FieldErrors is implemented by validation errors that report a reason per
// input field.
type FieldErrors interface {
	error
	Fields() map[string]string
}

// WriteValidationError answers 400. FieldErrors become per-field reasons;
// any other error is reported as invalid input with its message.
func WriteValidationError(w http.ResponseWriter, err error) {
	var fieldErr FieldErrors
	if errors.As(err, &fieldErr) {
		WriteJSON(w, http.StatusBadRequest, Response{
			Error: &ErrorResponse{
				Code:    "VALIDATION_ERROR",
				Message: "request validation failed",
				Fields:  fieldErr.Fields(),
			},
		})
		return
	}

	WriteJSON(w, http.StatusBadRequest, Response{
		Error: &ErrorResponse{Code: apperrors.KindInvalidInput.Code(), Message: err.Error()},
	})
}
