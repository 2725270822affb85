package milestone

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// NA is rendered in place of every value that could not be derived.
const NA = "N/A"

// ClockLayout is the time-of-day format used for crossing times.
const ClockLayout = "15:04:05"

var naJSON = []byte(`"` + NA + `"`)

func isNA(b []byte) bool {
	b = bytes.TrimSpace(b)
	return bytes.Equal(b, naJSON) || bytes.Equal(b, []byte("null"))
}

// OptPercent is a battery percentage that may be unavailable.
type OptPercent struct {
	Value int
	Valid bool
}

// Percent wraps an observed percentage.
func Percent(v int) OptPercent { return OptPercent{Value: v, Valid: true} }

func (o OptPercent) String() string {
	if !o.Valid {
		return NA
	}
	return strconv.Itoa(o.Value)
}

func (o OptPercent) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return naJSON, nil
	}
	return []byte(strconv.Itoa(o.Value)), nil
}

func (o *OptPercent) UnmarshalJSON(b []byte) error {
	if isNA(b) {
		*o = OptPercent{}
		return nil
	}
	var v int
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("percent: %w", err)
	}
	*o = Percent(v)
	return nil
}

// OptFloat is a kilometre or mileage value that may be unavailable.
type OptFloat struct {
	Value float64
	Valid bool
}

// Float wraps a derived value.
func Float(v float64) OptFloat { return OptFloat{Value: v, Valid: true} }

func (o OptFloat) String() string {
	if !o.Valid {
		return NA
	}
	return strconv.FormatFloat(o.Value, 'f', -1, 64)
}

func (o OptFloat) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return naJSON, nil
	}
	return []byte(strconv.FormatFloat(o.Value, 'f', -1, 64)), nil
}

func (o *OptFloat) UnmarshalJSON(b []byte) error {
	if isNA(b) {
		*o = OptFloat{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("float: %w", err)
	}
	*o = Float(v)
	return nil
}

// OptClock is a time of day that may be unavailable.
type OptClock struct {
	Value time.Time
	Valid bool
}

// ClockOf wraps an observed timestamp.
func ClockOf(t time.Time) OptClock { return OptClock{Value: t, Valid: true} }

func (o OptClock) String() string {
	if !o.Valid {
		return NA
	}
	return o.Value.Format(ClockLayout)
}

func (o OptClock) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

func (o *OptClock) UnmarshalJSON(b []byte) error {
	if isNA(b) {
		*o = OptClock{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("clock: %w", err)
	}
	t, err := time.Parse(ClockLayout, s)
	if err != nil {
		return fmt.Errorf("clock: %w", err)
	}
	*o = ClockOf(t)
	return nil
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
