// Package battery serves the milestone, audit and chart endpoints.
package battery

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/nurapulse/pulse/api/respond"
	"github.com/nurapulse/pulse/core/logger"
	coremetrics "github.com/nurapulse/pulse/core/metrics"
	"github.com/nurapulse/pulse/core/milestone"
	"github.com/nurapulse/pulse/core/model"
	"github.com/nurapulse/pulse/core/report"
	"github.com/nurapulse/pulse/pkg/export"
)

// Handler exposes battery reports over HTTP.
type Handler struct {
	svc *report.Service
	log logger.Logger
	now func() time.Time
}

// NewHandler returns a handler backed by svc.
func NewHandler(svc *report.Service, log logger.Logger) *Handler {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Handler{svc: svc, log: log, now: time.Now}
}

// Register mounts the routes on r, which is expected to be the /api subrouter.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/battery/milestones", h.milestones).Methods(http.MethodGet)
	r.HandleFunc("/battery/audit/low-charge", h.lowCharge).Methods(http.MethodGet)
	r.HandleFunc("/battery/audit/morning-charge", h.morningCharge).Methods(http.MethodGet)
	r.HandleFunc("/battery/chart", h.chart).Methods(http.MethodGet)
}

type format string

const (
	formatJSON format = "json"
	formatCSV  format = "csv"
)

func parseFormat(r *http.Request) (format, error) {
	switch f := strings.ToLower(r.URL.Query().Get("format")); f {
	case "", "json":
		return formatJSON, nil
	case "csv":
		return formatCSV, nil
	default:
		return "", fmt.Errorf("%w: unsupported format %q", milestone.ErrInvalidRequest, f)
	}
}

// parse reads from, to, vehicles and format. vehicles may be repeated or comma separated.
func (h *Handler) parse(r *http.Request) (milestone.Request, format, error) {
	f, err := parseFormat(r)
	if err != nil {
		return milestone.Request{}, "", err
	}
	q := r.URL.Query()
	req, err := h.svc.Engine().ParseRequest(q.Get("from"), q.Get("to"), q["vehicles"])
	return req, f, err
}

func (h *Handler) milestones(w http.ResponseWriter, r *http.Request) {
	req, f, err := h.parse(r)
	if err != nil {
		respond.Failure(w, r, err)
		return
	}
	rep, err := h.svc.Build(r.Context(), coremetrics.KindMilestones, req)
	if err != nil {
		respond.Failure(w, r, err)
		return
	}
	write(w, r, f, "milestones", req, milestone.MilestoneColumns, rep.Milestones, rep.Message)
}

func (h *Handler) lowCharge(w http.ResponseWriter, r *http.Request) {
	req, f, err := h.parse(r)
	if err != nil {
		respond.Failure(w, r, err)
		return
	}
	rep, err := h.svc.Build(r.Context(), coremetrics.KindLowCharge, req)
	if err != nil {
		respond.Failure(w, r, err)
		return
	}
	write(w, r, f, "low_charge_audit", req, milestone.AuditColumns, rep.Audits, rep.Message)
}

func (h *Handler) morningCharge(w http.ResponseWriter, r *http.Request) {
	req, f, err := h.parse(r)
	if err != nil {
		respond.Failure(w, r, err)
		return
	}
	limit := -1
	if raw := r.URL.Query().Get("max_charge"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 || limit > 101 {
			respond.Failure(w, r, fmt.Errorf("%w: max_charge must be an integer between 0 and 101", milestone.ErrInvalidRequest))
			return
		}
	}
	rep, err := h.svc.Build(r.Context(), coremetrics.KindMorningCharge, req)
	if err != nil {
		respond.Failure(w, r, err)
		return
	}
	rows := rep.Morning
	if limit >= 0 {
		rows = milestone.FilterMorning(rows, limit)
	}
	write(w, r, f, "morning_charge_audit", req, milestone.MorningColumns, rows, rep.Message)
}

func (h *Handler) chart(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ds, err := h.svc.DaySeries(r.Context(), q.Get("vehicle"), q.Get("date"))
	if err != nil {
		respond.Failure(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := export.RenderBatteryChart(&buf, ds); err != nil {
		respond.Failure(w, r, err)
		return
	}
	respond.Bytes(w, http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// MessageHeader carries the no-data explanation on CSV responses.
const MessageHeader = "X-Report-Message"

func write[T export.Row](w http.ResponseWriter, r *http.Request, f format, name string, req milestone.Request, header []string, rows []T, message string) {
	if f == formatJSON {
		var buf bytes.Buffer
		if err := export.WriteJSON(&buf, rows, message); err != nil {
			respond.Failure(w, r, err)
			return
		}
		respond.Bytes(w, http.StatusOK, "application/json", buf.Bytes())
		return
	}
	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, header, rows); err != nil {
		respond.Failure(w, r, err)
		return
	}
	if message != "" {
		w.Header().Set(MessageHeader, message)
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s_%s_%s.csv"`,
		name, req.From.Format(model.DateLayout), req.To.Format(model.DateLayout)))
	respond.Bytes(w, http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// Cacheable reports whether a GET report request covers only past days, whose
// results can no longer change once ingestion for those days has settled.
func (h *Handler) Cacheable(r *http.Request) bool {
	if r.Method != http.MethodGet || !strings.HasPrefix(r.URL.Path, "/api/battery/") {
		return false
	}
	q := r.URL.Query()
	to := q.Get("to")
	if to == "" {
		to = q.Get("date")
	}
	loc := h.svc.Engine().Location()
	end, err := time.ParseInLocation(model.DateLayout, to, loc)
	if err != nil {
		return false
	}
	return end.Before(model.Day(h.now().In(loc)))
}
