// Package respond holds the JSON and error helpers shared by the API handlers.
package respond

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nurapulse/pulse/core/milestone"
	coremon "github.com/nurapulse/pulse/core/monitoring"
)

// ComputationFailed is the only body sent for unexpected failures.
const ComputationFailed = "computation failed"

type errorBody struct {
	Error string `json:"error"`
}

// JSON encodes v fully before writing so a failed encode never leaves a partial body.
func JSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		Error(w, http.StatusInternalServerError, ComputationFailed)
		return
	}
	Bytes(w, status, "application/json", buf.Bytes())
}

// Bytes writes a fully rendered body.
func Bytes(w http.ResponseWriter, status int, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// Error writes {"error": msg}.
func Error(w http.ResponseWriter, status int, msg string) {
	body, _ := json.Marshal(errorBody{Error: msg})
	Bytes(w, status, "application/json", append(body, '\n'))
}

// Failure maps err to a status code. Invalid requests are echoed back,
// timeouts become 504 and anything else is reported to the monitor and
// answered with a generic 500.
func Failure(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, milestone.ErrInvalidRequest):
		Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		Error(w, http.StatusGatewayTimeout, "request timed out")
	default:
		coremon.CaptureException(err, map[string]string{"module": "api", "path": r.URL.Path})
		Error(w, http.StatusInternalServerError, ComputationFailed)
	}
}
