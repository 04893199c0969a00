package errors

import (
	"encoding/json"
	"net/http"
)

// WriteError renders err as a JSON error response using the AppError's own
// HTTP status. Non-AppErrors become a 500 without leaking the cause.
func WriteError(w http.ResponseWriter, err error) {
	appErr := AsAppError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode())

	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Code:    appErr.Code,
		Message: appErr.Message,
		Details: appErr.Details,
	})
}
