// Package influxdb provides InfluxDB connectivity for FieldFlow Core.
//
// It wraps the official influxdb-client-go v2 library with
// FieldFlow-specific patterns for connection management, metric
// writing, and health monitoring.
//
// # Purpose
//
// This package handles time-series data storage for:
//   - Per-request API metrics (latency, status, tenant)
//   - Authentication outcome counters
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.WriteRequestMetric("GET", "/office", 200, 42, 12.5)
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking and batch errors are logged via a
// callback. Connection and health check errors are returned directly.
package influxdb
