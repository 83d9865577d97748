package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/indiarose/sync-server/internal/common"
	"github.com/indiarose/sync-server/internal/logging"
)

// Legacy registration error codes kept for existing clients.
const (
	errorCodeLoginExists = 100
	errorCodeEmailExists = 101
)

// RequestResult is the response envelope every endpoint answers with.
type RequestResult struct {
	HasError     bool   `json:"HasError"`
	ErrorCode    int    `json:"ErrorCode"`
	ErrorMessage string `json:"ErrorMessage"`
	Content      any    `json:"Content,omitempty"`
}

type responder struct {
	logger logging.Logger
}

func (rs *responder) write(ctx context.Context, w http.ResponseWriter, status int, result *RequestResult) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		rs.logger.Error(ctx, "error encoding response", "error", err)
	}
}

func (rs *responder) writeContent(ctx context.Context, w http.ResponseWriter, content any) {
	rs.write(ctx, w, http.StatusOK, &RequestResult{Content: content})
}

func (rs *responder) writeEmpty(ctx context.Context, w http.ResponseWriter, status int) {
	rs.write(ctx, w, status, &RequestResult{})
}

func (rs *responder) writeCustomError(ctx context.Context, w http.ResponseWriter, code int, message string) {
	rs.write(ctx, w, http.StatusOK, &RequestResult{HasError: true, ErrorCode: code, ErrorMessage: message})
}

func (rs *responder) writeBadRequest(ctx context.Context, w http.ResponseWriter) {
	rs.writeError(ctx, w, http.StatusBadRequest, "Missing fields in request")
}

func (rs *responder) writeError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	rs.write(ctx, w, status, &RequestResult{HasError: true, ErrorCode: status, ErrorMessage: message})
}

// writeServiceError maps service error kinds onto HTTP statuses. Anything
// unrecognized is an internal error and gets logged.
func (rs *responder) writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		rs.writeError(ctx, w, http.StatusNotFound, "not found")
	case errors.Is(err, common.ErrorForbidden):
		rs.writeError(ctx, w, http.StatusForbidden, "version is closed or owned by another device")
	case errors.Is(err, common.ErrorConflict):
		rs.writeError(ctx, w, http.StatusConflict, "conflict")
	case errors.Is(err, common.ErrorBadRequest):
		rs.writeBadRequest(ctx, w)
	case errors.Is(err, common.ErrorUnauthorized):
		rs.writeError(ctx, w, http.StatusUnauthorized, "invalid credentials")
	default:
		rs.logger.Error(ctx, "internal error", "error", err)
		rs.writeError(ctx, w, http.StatusInternalServerError, "internal error")
	}
}
