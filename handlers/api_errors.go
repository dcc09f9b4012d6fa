package handlers

import (
	"encoding/json"
	"net/http"
)

// APIErrorResponse is the failure envelope shared by the write endpoints.
type APIErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// WriteAPIError writes {success:false, error:detail} with the given HTTP status.
func WriteAPIError(w http.ResponseWriter, httpStatus int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)

	_ = json.NewEncoder(w).Encode(APIErrorResponse{Success: false, Error: detail})
}
