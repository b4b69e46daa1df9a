package httpx

import (
	"encoding/json"
	"net/http"
)

// writeJSON writes a JSON response with status code.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeMessage sends a {"message": ...} body.
func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// writeErrorDetail sends a message plus an error detail. Reserved for storage
// and transport failures; auth failures never carry detail.
func writeErrorDetail(w http.ResponseWriter, status int, msg string, err error) {
	writeJSON(w, status, map[string]string{"message": msg, "error": err.Error()})
}
