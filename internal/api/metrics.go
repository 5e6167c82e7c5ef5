package api

import (
	"net/http"
	"runtime"
	"time"
)

// SystemMetrics is the response body for GET /actuator/metrics.
type SystemMetrics struct {
	Status        string          `json:"status"`
	Version       string          `json:"version"`
	UptimeSeconds int64           `json:"uptime_seconds"`
	Runtime       RuntimeMetrics  `json:"runtime"`
	Database      DatabaseMetrics `json:"database"`
	MQTT          BusMetrics      `json:"mqtt"`
	InfluxDB      BusMetrics      `json:"influxdb"`
	WSClients     int             `json:"websocket_clients"`
}

// RuntimeMetrics reports Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines     int    `json:"goroutines"`
	HeapAllocBytes uint64 `json:"heap_alloc_bytes"`
	HeapSysBytes   uint64 `json:"heap_sys_bytes"`
	NumGC          uint32 `json:"num_gc"`
	GoVersion      string `json:"go_version"`
}

// DatabaseMetrics reports connection pool statistics.
type DatabaseMetrics struct {
	Healthy         bool `json:"healthy"`
	OpenConnections int  `json:"open_connections"`
	InUse           int  `json:"in_use"`
}

// BusMetrics reports the state of an optional external integration.
type BusMetrics struct {
	Enabled   bool `json:"enabled"`
	Connected bool `json:"connected"`
}

// handleHealth is the liveness and readiness probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.HealthCheck(r.Context()); err != nil {
		s.logger.Error("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.version,
	})
}

// handleMetrics reports runtime and dependency statistics.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	dbStats := s.db.Stats()
	metrics := SystemMetrics{
		Status:        "ok",
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:     runtime.NumGoroutine(),
			HeapAllocBytes: mem.HeapAlloc,
			HeapSysBytes:   mem.HeapSys,
			NumGC:          mem.NumGC,
			GoVersion:      runtime.Version(),
		},
		Database: DatabaseMetrics{
			Healthy:         s.db.HealthCheck(r.Context()) == nil,
			OpenConnections: dbStats.OpenConnections,
			InUse:           dbStats.InUse,
		},
		MQTT: BusMetrics{
			Enabled:   s.mqttClient != nil,
			Connected: s.mqttClient != nil && s.mqttClient.IsConnected(),
		},
		InfluxDB: BusMetrics{
			Enabled:   s.influx != nil,
			Connected: s.influx != nil && s.influx.IsConnected(),
		},
		WSClients: s.hub.ClientCount(),
	}

	writeJSON(w, http.StatusOK, metrics)
}
