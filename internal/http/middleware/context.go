package middleware

import (
	"encoding/json"
	"net/http"
)

type ctxKey string

const (
	ctxCorrelationID ctxKey = "correlation_id"
	ctxRequestInfo   ctxKey = "request_info"
)

// requestInfo is filled in by inner middleware so the outer logger can report it.
type requestInfo struct {
	userID string
}

func recordUserID(r *http.Request, userID string) {
	if info, ok := r.Context().Value(ctxRequestInfo).(*requestInfo); ok {
		info.userID = userID
	}
}

// ErrorResponse is the JSON body of every error this service returns.
type ErrorResponse struct {
	Error         string `json:"error"`
	CorrelationID string `json:"correlationId,omitempty"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:         msg,
		CorrelationID: GetCorrelationID(r.Context()),
	})
}
