package mqtt

import "fmt"

// Topic prefixes for the FieldFlow event bus.
//
// All event topics use the scheme: fieldflow/events/{entity}/{id}/{event}
const (
	// TopicPrefixEvents is the base for all domain event topics.
	TopicPrefixEvents = "fieldflow/events"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "fieldflow/system"
)

// Topics provides builders for FieldFlow MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
type Topics struct{}

// SystemStatus returns the topic for the core service's online/offline status.
//
// Example: fieldflow/system/status
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}

// TenantSubscription returns the topic for tenant subscription state changes.
//
// Example: fieldflow/events/tenant/42/subscription
func (Topics) TenantSubscription(tenantID int64) string {
	return fmt.Sprintf("%s/tenant/%d/subscription", TopicPrefixEvents, tenantID)
}

// TenantCreated returns the topic for tenant creation events.
//
// Example: fieldflow/events/tenant/42/created
func (Topics) TenantCreated(tenantID int64) string {
	return fmt.Sprintf("%s/tenant/%d/created", TopicPrefixEvents, tenantID)
}

// UserCreated returns the topic for user creation events.
//
// Example: fieldflow/events/user/7/created
func (Topics) UserCreated(userID int64) string {
	return fmt.Sprintf("%s/user/%d/created", TopicPrefixEvents, userID)
}

// StockReserved returns the topic for stock reservation events.
//
// Example: fieldflow/events/stock/123/reserved
func (Topics) StockReserved(itemID int64) string {
	return fmt.Sprintf("%s/stock/%d/reserved", TopicPrefixEvents, itemID)
}
