package store

import "github.com/nurapulse/pulse/core/telemetry"

// init registers the persistent telemetry stores.
func init() {
	_ = telemetry.Register("sqlite", func(conf map[string]any) (telemetry.Store, error) {
		var c SQLiteConfig
		if err := telemetry.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewSQLiteStore(c.Path)
	})

	_ = telemetry.Register("influx", func(conf map[string]any) (telemetry.Store, error) {
		var c InfluxConfig
		if err := telemetry.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewInfluxStore(c)
	})
}
