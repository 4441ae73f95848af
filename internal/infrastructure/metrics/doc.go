// Package metrics writes operational metrics to InfluxDB: sync cycle
// outcomes and ingest throughput. It is the bridge's own telemetry,
// separate from the device time series in the downstream store.
//
// It wraps the official influxdb-client-go v2 library. Writes are
// non-blocking and batched according to config (batch_size,
// flush_interval); async write failures are delivered via SetOnError.
//
// The sink is optional. When disabled in config, Connect returns
// ErrDisabled and callers run without a recorder.
//
// # Usage
//
//	sink, err := metrics.Connect(cfg.Metrics)
//	if err != nil && !errors.Is(err, metrics.ErrDisabled) {
//	    return err
//	}
//	if sink != nil {
//	    defer sink.Close()
//	    sink.RecordSyncCycle(elapsed, 3, 12, false)
//	}
package metrics
