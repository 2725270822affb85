// Package factory provides a small generic registry used to instantiate
// pluggable modules (telemetry stores, metrics sinks) from configuration.
// A module is described by a type string and a map of raw settings;
// factories decode the settings into typed structs with Decode.
//
//	reg := factory.NewRegistry[telemetry.Store]()
//	reg.Register("sqlite", func(conf map[string]any) (telemetry.Store, error) {
//	    var c struct{ Path string `json:"path"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return store.NewSQLiteStore(c.Path)
//	})
package factory
