package scope

import (
	"errors"
	"fmt"
)

// ErrWrongMode is returned if a mode-specific accessor is called while the
// channel is in the other mode.
var ErrWrongMode = errors.New("wrong channel mode")

// ConfigError is returned when a configuration change is rejected. The
// change is atomic: on error the channel keeps its previous configuration
// and mode.
type ConfigError struct {
	Param  string
	Value  interface{}
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s=%v: %s", e.Param, e.Value, e.Reason)
}

func newConfigError(param string, value interface{}, reason string) *ConfigError {
	return &ConfigError{Param: param, Value: value, Reason: reason}
}
