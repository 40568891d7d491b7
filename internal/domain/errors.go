package domain

import "fmt"

// ConfigurationError reports malformed event or pricing configuration.
type ConfigurationError struct {
	EventName string // empty when not tied to a specific event
	Field     string
	Reason    string
}

func (e *ConfigurationError) Error() string {
	if e.EventName == "" {
		return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid event %q: %s: %s", e.EventName, e.Field, e.Reason)
}
