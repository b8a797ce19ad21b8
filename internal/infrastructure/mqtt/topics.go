package mqtt

import "fmt"

// Topic prefixes for the DB Sentinel topic hierarchy.
//
// All target topics use the flat scheme: dbsentinel/{category}/{target_id}
const (
	// TopicPrefix is the base for all DB Sentinel topics.
	TopicPrefix = "dbsentinel"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "dbsentinel/system"
)

// Topics provides builders for DB Sentinel MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	statusTopic := topics.TargetStatus("orders-primary")
//	// Returns: "dbsentinel/status/orders-primary"
type Topics struct{}

// TargetStatus returns the topic for connection status events of a target.
//
// Example: dbsentinel/status/orders-primary
func (Topics) TargetStatus(targetID string) string {
	return fmt.Sprintf("%s/status/%s", TopicPrefix, targetID)
}

// TargetHealth returns the topic for health metric snapshots of a target.
//
// Example: dbsentinel/health/orders-primary
func (Topics) TargetHealth(targetID string) string {
	return fmt.Sprintf("%s/health/%s", TopicPrefix, targetID)
}

// TargetCheck returns the topic that triggers an on-demand check of a target.
//
// Example: dbsentinel/check/orders-primary
func (Topics) TargetCheck(targetID string) string {
	return fmt.Sprintf("%s/check/%s", TopicPrefix, targetID)
}

// SystemStatus returns the service status topic, used for the online/offline
// announcements and the Last Will message.
//
// Example: dbsentinel/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// AllTargetStatuses returns a pattern matching status events of every target.
//
// Pattern: dbsentinel/status/+
func (Topics) AllTargetStatuses() string {
	return fmt.Sprintf("%s/status/+", TopicPrefix)
}

// AllTargetHealth returns a pattern matching health snapshots of every target.
//
// Pattern: dbsentinel/health/+
func (Topics) AllTargetHealth() string {
	return fmt.Sprintf("%s/health/+", TopicPrefix)
}

// AllTargetChecks returns a pattern matching check triggers for every target.
//
// Pattern: dbsentinel/check/+
func (Topics) AllTargetChecks() string {
	return fmt.Sprintf("%s/check/+", TopicPrefix)
}

// AllTopics returns a pattern matching all DB Sentinel topics.
// Use with caution - this receives ALL traffic.
//
// Pattern: dbsentinel/#
func (Topics) AllTopics() string {
	return "dbsentinel/#"
}

// CheckTarget extracts the target ID from a check trigger topic, returning
// false when the topic does not match the scheme.
func CheckTarget(topic string) (string, bool) {
	prefix := TopicPrefix + "/check/"
	if len(topic) <= len(prefix) || topic[:len(prefix)] != prefix {
		return "", false
	}
	return topic[len(prefix):], true
}
