// Package notifications delivers processing milestones via ntfy.
//
// The default implementation publishes to the topic configured in config.toml
// and gracefully degrades to a no-op when no topic is set. Delivery is best
// effort: the pipeline logs a failed push and continues, so a notification
// outage never affects interview results.
//
// Extend this package if you need alternative transports; pipeline code
// depends only on the Service interface.
package notifications
