package model

import (
	"encoding/json"
	"strconv"
	"strings"
)

type SignalType string

const (
	SignalJSRuntimeError        SignalType = "JS_RUNTIME_ERROR"
	SignalConsoleError          SignalType = "CONSOLE_ERROR"
	SignalValidationBug         SignalType = "VALIDATION_BUG"
	SignalAPIError              SignalType = "API_ERROR"
	SignalAuthError             SignalType = "AUTH_ERROR"
	SignalNetworkError          SignalType = "NETWORK_ERROR"
	SignalUIInteractionFailure  SignalType = "UI_INTERACTION_FAILURE"
	SignalPromiseRejection      SignalType = "PROMISE_REJECTION"
	SignalAsyncError            SignalType = "ASYNC_ERROR"
	SignalPlaywrightTestFailure SignalType = "PLAYWRIGHT_TEST_FAILURE"
	SignalPlaywrightE2EError    SignalType = "PLAYWRIGHT_E2E_ERROR"
	SignalUnknown               SignalType = "UNKNOWN"
)

// RawSignal is a signal exactly as a monitor or test runner sent it.
// Any field may be missing or carry an unexpected type.
type RawSignal map[string]any

// String returns the first non-empty string-ish value among keys.
// Numbers and booleans are rendered; objects and arrays are ignored.
func (r RawSignal) String(keys ...string) string {
	for _, k := range keys {
		if s := stringify(r[k]); s != "" {
			return s
		}
	}
	return ""
}

// Int reads a numeric field, accepting JSON numbers and numeric strings.
func (r RawSignal) Int(key string) (int, bool) {
	switch v := r[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case int64:
		return int(v), true
	case json.Number:
		i, err := v.Int64()
		return int(i), err == nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(v))
		return i, err == nil
	}
	return 0, false
}

// Raw returns the untouched value for key.
func (r RawSignal) Raw(key string) any {
	return r[key]
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}

// SignalExtras holds the type-specific fields kept from a raw signal.
type SignalExtras struct {
	Endpoint    string `json:"endpoint,omitempty"`
	HTTPStatus  int    `json:"status,omitempty"`
	ButtonText  string `json:"buttonText,omitempty"`
	ButtonID    string `json:"buttonId,omitempty"`
	Selector    string `json:"selector,omitempty"`
	FailureType string `json:"failureType,omitempty"`
	TestName    string `json:"testName,omitempty"`
	TestFile    string `json:"testFile,omitempty"`
	Expected    string `json:"expected,omitempty"`
	Actual      string `json:"actual,omitempty"`
	Source      string `json:"source,omitempty"`
}

// InterpretedSignal is the canonical form of a raw signal. Type and Severity
// are always set.
type InterpretedSignal struct {
	Type     SignalType   `json:"type"`
	Title    string       `json:"title"`
	Message  string       `json:"message"`
	Severity Severity     `json:"severity"`
	Stack    string       `json:"stack,omitempty"`
	Extras   SignalExtras `json:"extras"`
}

// Identity is the optional user/session identity carried by a signal.
type Identity struct {
	UserID    string
	SessionID string
}

// IdentityOf extracts identity from the field names different monitors use.
func IdentityOf(r RawSignal) Identity {
	return Identity{
		UserID:    r.String("userId", "user", "userEmail", "userIdHash"),
		SessionID: r.String("sessionId", "session", "sessionKey"),
	}
}
