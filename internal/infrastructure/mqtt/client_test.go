package mqtt

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/fieldflowhq/fieldflow-core/internal/infrastructure/config"
)

// testConfig returns a valid MQTT configuration for testing.
func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "fieldflow-test",
			TLS:      false,
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

func TestTopicBuilders(t *testing.T) {
	tests := []struct {
		name     string
		builder  func() string
		expected string
	}{
		{
			name:     "SystemStatus",
			builder:  func() string { return Topics{}.SystemStatus() },
			expected: "fieldflow/system/status",
		},
		{
			name:     "TenantSubscription",
			builder:  func() string { return Topics{}.TenantSubscription(42) },
			expected: "fieldflow/events/tenant/42/subscription",
		},
		{
			name:     "TenantCreated",
			builder:  func() string { return Topics{}.TenantCreated(42) },
			expected: "fieldflow/events/tenant/42/created",
		},
		{
			name:     "UserCreated",
			builder:  func() string { return Topics{}.UserCreated(7) },
			expected: "fieldflow/events/user/7/created",
		},
		{
			name:     "StockReserved",
			builder:  func() string { return Topics{}.StockReserved(123) },
			expected: "fieldflow/events/stock/123/reserved",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.builder(); got != tt.expected {
				t.Errorf("topic = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.Username = "core"
	cfg.Auth.Password = "secret"

	opts := buildClientOptions(cfg)

	if len(opts.Servers) != 1 {
		t.Fatalf("Servers = %d, want 1", len(opts.Servers))
	}
	if got := opts.Servers[0].String(); got != "tcp://127.0.0.1:1883" {
		t.Errorf("broker URL = %q, want tcp://127.0.0.1:1883", got)
	}
	if opts.ClientID != "fieldflow-test" {
		t.Errorf("ClientID = %q, want fieldflow-test", opts.ClientID)
	}
	if opts.Username != "core" {
		t.Errorf("Username = %q, want core", opts.Username)
	}
	if !opts.AutoReconnect {
		t.Error("AutoReconnect should be enabled")
	}
}

func TestBuildClientOptions_TLS(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.TLS = true

	opts := buildClientOptions(cfg)

	if got := opts.Servers[0].Scheme; got != "ssl" {
		t.Errorf("scheme = %q, want ssl when TLS enabled", got)
	}
	if opts.TLSConfig == nil {
		t.Fatal("TLSConfig should be set when TLS enabled")
	}
}

func TestStatusPayloads(t *testing.T) {
	var online map[string]any
	if err := json.Unmarshal([]byte(buildOnlinePayload("core-01")), &online); err != nil {
		t.Fatalf("online payload is not valid JSON: %v", err)
	}
	if online["status"] != "online" || online["client_id"] != "core-01" {
		t.Errorf("online payload = %v", online)
	}

	var offline map[string]any
	if err := json.Unmarshal([]byte(buildOfflinePayload("core-01")), &offline); err != nil {
		t.Fatalf("offline payload is not valid JSON: %v", err)
	}
	if offline["status"] != "offline" || offline["reason"] != "graceful_shutdown" {
		t.Errorf("offline payload = %v", offline)
	}
}

func TestCloseNil(t *testing.T) {
	c := &Client{}
	if err := c.Close(); err != nil {
		t.Errorf("Close() on unconnected client error = %v", err)
	}
}

func TestPublishValidation(t *testing.T) {
	// Validation failures are checked before any broker interaction.
	c := &Client{cfg: testConfig()}

	if err := c.Publish("", []byte("x"), 1, false); err != ErrInvalidTopic {
		t.Errorf("empty topic error = %v, want ErrInvalidTopic", err)
	}
	if err := c.Publish("t", []byte("x"), 3, false); err != ErrInvalidQoS {
		t.Errorf("qos 3 error = %v, want ErrInvalidQoS", err)
	}
	big := []byte(strings.Repeat("a", maxPayloadSize+1))
	if err := c.Publish("t", big, 1, false); err == nil {
		t.Error("oversized payload should be rejected")
	}
}
