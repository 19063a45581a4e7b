package http

import (
	"context"
	"errors"
	"net/http"

	"storepos-backend/internal/domain"
	"storepos-backend/internal/logger"
)

// ErrorResponse is the body of every non-2xx reply
type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Available *int   `json:"available,omitempty"`
	Requested *int   `json:"requested,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

var errorKinds = []struct {
	err    error
	status int
	code   string
}{
	{domain.ErrInvalidLineItem, http.StatusBadRequest, "INVALID_LINE_ITEM"},
	{domain.ErrInvalidRequest, http.StatusBadRequest, "INVALID_REQUEST"},
	{domain.ErrItemNotFound, http.StatusNotFound, "ITEM_NOT_FOUND"},
	{domain.ErrRentalNotFound, http.StatusNotFound, "RENTAL_NOT_FOUND"},
	{domain.ErrCustomerNotFound, http.StatusNotFound, "CUSTOMER_NOT_FOUND"},
	{domain.ErrTransactionNotFound, http.StatusNotFound, "TRANSACTION_NOT_FOUND"},
	{domain.ErrInsufficientStock, http.StatusConflict, "INSUFFICIENT_STOCK"},
	{domain.ErrAlreadyReturned, http.StatusConflict, "ALREADY_RETURNED"},
	{domain.ErrOutstandingRentalExists, http.StatusConflict, "OUTSTANDING_RENTAL"},
	{domain.ErrConcurrentUpdate, http.StatusConflict, "CONCURRENT_UPDATE"},
	{context.DeadlineExceeded, http.StatusServiceUnavailable, "TIMEOUT"},
}

// writeError maps an engine error onto a status code and a stable error code.
// Anything unrecognised is a 500 and its text is not echoed to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	resp := ErrorResponse{
		Code:      "INTERNAL",
		Message:   "internal server error",
		RequestID: RequestIDFromContext(r.Context()),
	}
	status := http.StatusInternalServerError
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			status, resp.Code, resp.Message = k.status, k.code, err.Error()
			break
		}
	}

	var stock *domain.InsufficientStockError
	if errors.As(err, &stock) {
		resp.Available = &stock.Available
		resp.Requested = &stock.Requested
	}

	if status == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	} else {
		logger.InfoContext(r.Context(), "request rejected", "method", r.Method, "path", r.URL.Path, "code", resp.Code, "error", err)
	}
	writeJSON(w, status, resp)
}

func writeStatus(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:      code,
		Message:   message,
		RequestID: RequestIDFromContext(r.Context()),
	})
}
