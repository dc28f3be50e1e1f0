package pricing

import "fmt"

// ConfigurationError reports a selection the model cannot price.
type ConfigurationError struct {
	Field  string
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("configuration error: %s: %s %q", e.Field, e.Reason, e.Key)
}
