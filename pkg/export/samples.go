package export

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/nurapulse/pulse/core/hotspot"
	"github.com/nurapulse/pulse/core/model"
)

// SampleColumns is the header of telemetry sample files. Columns may appear in any order.
var SampleColumns = []string{"vehicle_id", "timestamp", "battery_percent", "odometer_km"}

// timestamp layouts accepted in sample files, tried in order
var sampleLayouts = []string{time.RFC3339, time.DateTime, "2006-01-02T15:04:05", "2006-01-02 15:04"}

// ReadSamples parses a telemetry CSV. Timestamps without an offset are read in
// loc. Percentages written with a fraction are rounded.
func ReadSamples(r io.Reader, loc *time.Location) ([]model.TelemetrySample, error) {
	header, rows, err := ReadCSV(r)
	if err != nil {
		return nil, err
	}
	idx, err := columnIndex(header, SampleColumns)
	if err != nil {
		return nil, err
	}
	out := make([]model.TelemetrySample, 0, len(rows))
	for i, row := range rows {
		s, err := parseSample(row, idx, loc)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+2, err)
		}
		out = append(out, s)
	}
	return out, nil
}

func parseSample(row []string, idx map[string]int, loc *time.Location) (model.TelemetrySample, error) {
	get := func(col string) string { return strings.TrimSpace(row[idx[col]]) }
	ts, err := parseTimestamp(get("timestamp"), loc)
	if err != nil {
		return model.TelemetrySample{}, err
	}
	pct, err := strconv.ParseFloat(get("battery_percent"), 64)
	if err != nil {
		return model.TelemetrySample{}, fmt.Errorf("battery_percent: %w", err)
	}
	km, err := strconv.ParseFloat(get("odometer_km"), 64)
	if err != nil {
		return model.TelemetrySample{}, fmt.Errorf("odometer_km: %w", err)
	}
	return model.TelemetrySample{
		VehicleID:      get("vehicle_id"),
		Timestamp:      ts,
		BatteryPercent: int(math.Round(pct)),
		OdometerKM:     km,
	}, nil
}

func parseTimestamp(s string, loc *time.Location) (time.Time, error) {
	for _, layout := range sampleLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.Truncate(time.Second), nil
		}
	}
	return time.Time{}, fmt.Errorf("timestamp %q not recognised", s)
}

// ReadPoints parses a CSV with lat and lon columns.
func ReadPoints(r io.Reader) ([]hotspot.Point, error) {
	header, rows, err := ReadCSV(r)
	if err != nil {
		return nil, err
	}
	idx, err := columnIndex(header, []string{"lat", "lon"})
	if err != nil {
		return nil, err
	}
	out := make([]hotspot.Point, 0, len(rows))
	for i, row := range rows {
		lat, err := strconv.ParseFloat(strings.TrimSpace(row[idx["lat"]]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: lat: %w", i+2, err)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(row[idx["lon"]]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: lon: %w", i+2, err)
		}
		out = append(out, hotspot.Point{Lat: lat, Lon: lon})
	}
	return out, nil
}

func columnIndex(header, required []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, c := range required {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("missing column %q", c)
		}
	}
	return idx, nil
}
