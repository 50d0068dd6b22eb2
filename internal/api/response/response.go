package response

import (
	"encoding/json"
	"net/http"

	"github.com/shulkerhost/shulker/internal/fault"
)

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}

// WriteFault maps a classified error to its HTTP status. Unclassified
// errors are treated as internal failures.
func WriteFault(w http.ResponseWriter, err error) {
	WriteError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch fault.KindOf(err) {
	case fault.KindValidation, fault.KindMaintenanceRequired:
		return http.StatusBadRequest
	case fault.KindForbidden:
		return http.StatusForbidden
	case fault.KindNotFound:
		return http.StatusNotFound
	case fault.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
