// internal/browser/errors.go
package browser

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is. Each typed error below matches exactly one of them.
var (
	ErrConfiguration         = errors.New("invalid browser configuration")
	ErrSessionInitialization = errors.New("browser session initialization failed")
	ErrInvalidSessionState   = errors.New("invalid session state")
)

// ConfigurationError reports a settings value the session cannot run with.
// It is returned before any browser process is started.
type ConfigurationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s=%q %s", e.Field, e.Value, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// SessionInitializationError wraps the failure of one acquisition step.
type SessionInitializationError struct {
	Step string
	Err  error
}

func (e *SessionInitializationError) Error() string {
	return fmt.Sprintf("failed to initialize browser session (%s): %v", e.Step, e.Err)
}

func (e *SessionInitializationError) Unwrap() error { return e.Err }

func (e *SessionInitializationError) Is(target error) bool { return target == ErrSessionInitialization }

// InvalidSessionStateError is returned when an operation is called while the
// session is in a state that does not allow it.
type InvalidSessionStateError struct {
	Op    string
	State State
}

func (e *InvalidSessionStateError) Error() string {
	return fmt.Sprintf("cannot call %s while the session is %s", e.Op, e.State)
}

func (e *InvalidSessionStateError) Is(target error) bool { return target == ErrInvalidSessionState }
