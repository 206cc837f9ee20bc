package registry

import (
	"errors"
	"fmt"
)

var ErrExecutorNotRegistered = errors.New("action type not registered")

// ConfigurationError reports an unusable executor setup: an unregistered
// action type or a config that fails its schema.
type ConfigurationError struct {
	ActionType string
	Err        error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("executor %s: %v", e.ActionType, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// IsConfigurationError checks whether err is an executor setup failure.
func IsConfigurationError(err error) bool {
	var configErr *ConfigurationError

	return errors.As(err, &configErr)
}
