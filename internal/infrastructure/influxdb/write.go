package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteRequestMetric records one handled HTTP request.
//
// This is the primary feed from the API layer: the logging middleware
// calls it after every response. The write is non-blocking; data is
// batched and sent asynchronously.
//
// Tags are kept low-cardinality: routeClass is the matched route
// prefix ("/office", "/fe", ...), never the raw path with IDs in it.
func (c *Client) WriteRequestMetric(method, routeClass string, status int, tenantID int64, durationMs float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"http_requests",
		map[string]string{
			"method":      method,
			"route_class": routeClass,
			"status":      strconv.Itoa(status),
		},
		map[string]interface{}{
			"duration_ms": durationMs,
			"tenant_id":   tenantID,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteAuthMetric records an authentication outcome ("success",
// "invalid_credentials", "inactive").
func (c *Client) WriteAuthMetric(outcome string) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"auth_attempts",
		map[string]string{
			"outcome": outcome,
		},
		map[string]interface{}{
			"count": 1,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for custom measurements that don't fit the helper methods.
//
// Example:
//
//	client.WritePoint("system_stats",
//	    map[string]string{"host": "core-01"},
//	    map[string]interface{}{"goroutines": 42, "memory_mb": 512})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the timestamp is not "now" (e.g., delayed data).
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
