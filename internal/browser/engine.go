// internal/browser/engine.go
package browser

import "strings"

// EngineKind identifies a browser engine family.
type EngineKind string

const (
	Chromium EngineKind = "chromium"
	Firefox  EngineKind = "firefox"
	WebKit   EngineKind = "webkit"
)

// Engines lists every supported engine in a stable order.
var Engines = []EngineKind{Chromium, Firefox, WebKit}

func (e EngineKind) String() string { return string(e) }

// ParseEngine resolves a configured engine name, ignoring case and surrounding
// whitespace. Anything outside the supported set is a *ConfigurationError.
func ParseEngine(name string) (EngineKind, error) {
	normalized := EngineKind(strings.ToLower(strings.TrimSpace(name)))
	for _, e := range Engines {
		if e == normalized {
			return e, nil
		}
	}
	return "", &ConfigurationError{
		Field:  "browser.engine",
		Value:  name,
		Reason: "must be one of chromium, firefox, webkit",
	}
}
