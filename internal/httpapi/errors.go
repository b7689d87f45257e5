package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gyeh/cms-pricing/internal/apperr"
)

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError translates an apperr.Error (or any other error) into the
// HTTP status its code maps to, and a minimal JSON envelope.
// Unrecognized error types map to 500/INTERNAL.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		writeJSON(w, appErr.Code.HTTPStatus(), errorEnvelope{Error: errorBody{
			Code:    string(appErr.Code),
			Message: appErr.Message,
		}})
		return
	}
	writeJSON(w, http.StatusInternalServerError, errorEnvelope{Error: errorBody{
		Code:    string(apperr.CodeInternal),
		Message: err.Error(),
	}})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperr.Wrap(apperr.CodeInvalidInput, "request body is not valid JSON", err)
	}
	return nil
}
