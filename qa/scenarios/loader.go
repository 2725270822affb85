package scenarios

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nurapulse/pulse/core/model"
)

// SampleDef is one telemetry reading in vehicle-local time.
type SampleDef struct {
	Vehicle string  `yaml:"vehicle"`
	At      string  `yaml:"at"`
	Battery int     `yaml:"battery"`
	KM      float64 `yaml:"km"`
}

func (s SampleDef) ToModel(loc *time.Location) (model.TelemetrySample, error) {
	ts, err := time.ParseInLocation(time.DateTime, s.At, loc)
	if err != nil {
		return model.TelemetrySample{}, fmt.Errorf("sample %s %q: %w", s.Vehicle, s.At, err)
	}
	return model.TelemetrySample{VehicleID: s.Vehicle, Timestamp: ts, BatteryPercent: s.Battery, OdometerKM: s.KM}, nil
}

// Row lists the expected column values of one report row. Columns that are
// not listed are not checked.
type Row map[string]string

type Expected struct {
	Rejected   int    `yaml:"rejected"`
	Message    string `yaml:"message,omitempty"`
	Milestones []Row  `yaml:"milestones,omitempty"`
	Audits     []Row  `yaml:"audits"`
	Morning    []Row  `yaml:"morning,omitempty"`
	Breaches   int    `yaml:"breaches"`
	Malformed  int    `yaml:"malformed"`
}

type Scenario struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description,omitempty"`
	TimeZone    string      `yaml:"time_zone"`
	From        string      `yaml:"from"`
	To          string      `yaml:"to"`
	Vehicles    []string    `yaml:"vehicles"`
	MaxCharge   *int        `yaml:"max_charge,omitempty"`
	Samples     []SampleDef `yaml:"samples"`
	Expected    Expected    `yaml:"expected"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if sc.TimeZone == "" {
		sc.TimeZone = "UTC"
	}
	return &sc, nil
}
