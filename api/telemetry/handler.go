// Package telemetry serves telemetry ingestion and the vehicle list.
package telemetry

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/nurapulse/pulse/api/respond"
	"github.com/nurapulse/pulse/core/model"
	"github.com/nurapulse/pulse/core/report"
)

// DefaultMaxBody bounds the size of an ingestion request.
const DefaultMaxBody = 4 << 20

// Handler exposes POST /api/telemetry and GET /api/vehicles.
type Handler struct {
	svc     *report.Service
	maxBody int64
}

// NewHandler returns a handler backed by svc. maxBody <= 0 uses DefaultMaxBody.
func NewHandler(svc *report.Service, maxBody int64) *Handler {
	if maxBody <= 0 {
		maxBody = DefaultMaxBody
	}
	return &Handler{svc: svc, maxBody: maxBody}
}

// Register mounts the routes on the /api subrouter.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/telemetry", h.ingest).Methods(http.MethodPost)
	r.HandleFunc("/vehicles", h.vehicles).Methods(http.MethodGet)
}

func (h *Handler) ingest(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, h.maxBody)
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(body); err != nil {
		respond.Error(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	var samples []model.TelemetrySample
	raw := bytes.TrimSpace(buf.Bytes())
	var err error
	if len(raw) > 0 && raw[0] == '{' {
		var one model.TelemetrySample
		err = json.Unmarshal(raw, &one)
		samples = []model.TelemetrySample{one}
	} else {
		err = json.Unmarshal(raw, &samples)
	}
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	res, err := h.svc.Ingest(r.Context(), "http", samples)
	switch {
	case errors.Is(err, report.ErrNothingAccepted):
		respond.JSON(w, http.StatusBadRequest, res)
	case err != nil:
		respond.Failure(w, r, err)
	default:
		respond.JSON(w, http.StatusOK, res)
	}
}

func (h *Handler) vehicles(w http.ResponseWriter, r *http.Request) {
	ids, err := h.svc.Vehicles(r.Context())
	if err != nil {
		respond.Failure(w, r, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	respond.JSON(w, http.StatusOK, map[string][]string{"vehicles": ids})
}
