// Package factory provides a small generic registry used to build pluggable
// modules from configuration. A module is named by a type string and carries
// a map of raw settings; factories decode the settings into typed structs and
// return the concrete implementation. Metrics sinks are the main user: the
// config file lists sinks by type and infra registers a factory per type at
// init.
//
// Example usage:
//
//	reg := factory.NewRegistry[metrics.MetricsSink]()
//	reg.Register("influx", func(conf map[string]any) (metrics.MetricsSink, error) {
//	    var c struct{ URL string `json:"url"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return newInfluxSink(c.URL), nil
//	})
//	s, err := reg.Create(factory.ModuleConfig{Type: "influx", Conf: map[string]any{"url": "http://..."}})
package factory
