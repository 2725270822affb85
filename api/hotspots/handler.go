// Package hotspots serves hotspot placement over pickup coordinates.
package hotspots

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/nurapulse/pulse/api/respond"
	"github.com/nurapulse/pulse/core/hotspot"
)

// Request is the body of POST /api/hotspots.
type Request struct {
	hotspot.Options
	Points []hotspot.Point `json:"points"`
}

// Handler runs placements with server-side defaults for unset options.
type Handler struct {
	defaults hotspot.Options
}

// NewHandler returns a handler using defaults for fields the client omits.
func NewHandler(defaults hotspot.Options) *Handler {
	return &Handler{defaults: defaults}
}

// Register mounts the route on the /api subrouter.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/hotspots", h.place).Methods(http.MethodPost)
}

func (h *Handler) place(w http.ResponseWriter, r *http.Request) {
	req := Request{Options: h.defaults}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 8<<20))
	if err := dec.Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	pl, err := hotspot.Place(r.Context(), req.Points, req.Options)
	if err != nil {
		if r.Context().Err() != nil {
			respond.Failure(w, r, err)
			return
		}
		// everything else Place returns is a validation error
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	respond.JSON(w, http.StatusOK, pl)
}
