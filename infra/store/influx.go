package store

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nurapulse/pulse/core/model"
	"github.com/nurapulse/pulse/core/telemetry"
)

const measurement = "battery_telemetry"

// InfluxConfig configures the InfluxDB telemetry store.
type InfluxConfig struct {
	URL            string `json:"url"`
	Token          string `json:"token"`
	Org            string `json:"org"`
	Bucket         string `json:"bucket"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// InfluxStore reads and writes samples as points of the battery_telemetry
// measurement, tagged by vehicle_id.
type InfluxStore struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	queryAPI api.QueryAPI
	bucket   string
}

// NewInfluxStore creates a store for the given endpoint. No request is made.
func NewInfluxStore(cfg InfluxConfig) (*InfluxStore, error) {
	if cfg.URL == "" || cfg.Org == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("influx: url, org and bucket are required")
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := influxdb2.NewClientWithOptions(strings.TrimSuffix(cfg.URL, "/"), cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: timeout}))
	return &InfluxStore{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		queryAPI: client.QueryAPI(cfg.Org),
		bucket:   cfg.Bucket,
	}, nil
}

// Ping checks the InfluxDB health endpoint.
func (s *InfluxStore) Ping(ctx context.Context) error {
	health, err := s.client.Health(ctx)
	if err != nil {
		return err
	}
	if health.Status != "pass" {
		return fmt.Errorf("influx health status: %s", health.Status)
	}
	return nil
}

// Append writes the samples as points.
func (s *InfluxStore) Append(ctx context.Context, samples ...model.TelemetrySample) error {
	points := make([]*write.Point, 0, len(samples))
	for _, smp := range samples {
		if err := smp.Validate(); err != nil {
			return err
		}
		points = append(points, write.NewPointWithMeasurement(measurement).
			AddTag("vehicle_id", smp.VehicleID).
			AddField("battery_percent", int64(smp.BatteryPercent)).
			AddField("odometer_km", smp.OdometerKM).
			SetTime(smp.Timestamp))
	}
	if len(points) == 0 {
		return nil
	}
	return s.writeAPI.WritePoint(ctx, points...)
}

// Query runs a Flux query pivoting both fields onto one row per timestamp.
func (s *InfluxStore) Query(ctx context.Context, q telemetry.Query) ([]model.TelemetrySample, error) {
	res, err := s.queryAPI.Query(ctx, buildFlux(s.bucket, q))
	if err != nil {
		return nil, fmt.Errorf("influx query: %w", err)
	}
	defer func() { _ = res.Close() }()
	var out []model.TelemetrySample
	for res.Next() {
		rec := res.Record()
		id, _ := rec.ValueByKey("vehicle_id").(string)
		pct, ok := toFloat(rec.ValueByKey("battery_percent"))
		if !ok {
			continue
		}
		km, _ := toFloat(rec.ValueByKey("odometer_km"))
		out = append(out, model.TelemetrySample{
			VehicleID:      id,
			Timestamp:      rec.Time().UTC(),
			BatteryPercent: int(pct),
			OdometerKM:     km,
		})
	}
	if err := res.Err(); err != nil {
		return nil, fmt.Errorf("influx query: %w", err)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].VehicleID != out[j].VehicleID {
			return out[i].VehicleID < out[j].VehicleID
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

// Vehicles lists the vehicle_id tag values of the bucket.
func (s *InfluxStore) Vehicles(ctx context.Context) ([]string, error) {
	flux := fmt.Sprintf(`import "influxdata/influxdb/schema"
schema.tagValues(bucket: %s, tag: "vehicle_id")`, strconv.Quote(s.bucket))
	res, err := s.queryAPI.Query(ctx, flux)
	if err != nil {
		return nil, fmt.Errorf("influx tag values: %w", err)
	}
	defer func() { _ = res.Close() }()
	var ids []string
	for res.Next() {
		if v, ok := res.Record().Value().(string); ok {
			ids = append(ids, v)
		}
	}
	sort.Strings(ids)
	return ids, res.Err()
}

// Close releases the HTTP client.
func (s *InfluxStore) Close() error {
	s.client.Close()
	return nil
}

func buildFlux(bucket string, q telemetry.Query) string {
	var b strings.Builder
	fmt.Fprintf(&b, "from(bucket: %s)\n", strconv.Quote(bucket))
	start := "0"
	if !q.From.IsZero() {
		start = q.From.UTC().Format(time.RFC3339)
	}
	if q.To.IsZero() {
		fmt.Fprintf(&b, "  |> range(start: %s)\n", start)
	} else {
		fmt.Fprintf(&b, "  |> range(start: %s, stop: %s)\n", start, q.To.UTC().Format(time.RFC3339))
	}
	fmt.Fprintf(&b, "  |> filter(fn: (r) => r._measurement == %s)\n", strconv.Quote(measurement))
	if len(q.VehicleIDs) > 0 {
		conds := make([]string, len(q.VehicleIDs))
		for i, id := range q.VehicleIDs {
			conds[i] = "r.vehicle_id == " + strconv.Quote(id)
		}
		fmt.Fprintf(&b, "  |> filter(fn: (r) => %s)\n", strings.Join(conds, " or "))
	}
	b.WriteString(`  |> pivot(rowKey: ["_time"], columnKey: ["_field"], valueColumn: "_value")` + "\n")
	b.WriteString(`  |> keep(columns: ["_time", "vehicle_id", "battery_percent", "odometer_km"])`)
	return b.String()
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
