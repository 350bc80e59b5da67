// Package analyzer turns raw client signals into canonical, fingerprinted
// bug candidates. Everything here is pure.
package analyzer

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/surya021104/bug-tracker/internal/model"
)

const failureRapidClicks = "RAPID_CLICKS"

// Interpret maps a raw signal to its canonical form. It never fails:
// unknown shapes land in the UNKNOWN/Low bucket.
func Interpret(raw model.RawSignal) model.InterpretedSignal {
	kind := model.SignalType(raw.String("type", "signalType"))
	message := raw.String("message")

	switch kind {
	case model.SignalJSRuntimeError:
		return model.InterpretedSignal{
			Type:     model.SignalJSRuntimeError,
			Title:    "JavaScript Runtime Error",
			Message:  message,
			Severity: model.SeverityHigh,
			Stack:    raw.String("stack"),
		}

	case model.SignalConsoleError:
		return model.InterpretedSignal{
			Type:     model.SignalConsoleError,
			Title:    "Console Error Detected",
			Message:  message,
			Severity: severityOr(raw, model.SeverityMedium),
			Stack:    raw.String("stack"),
		}

	case model.SignalValidationBug:
		return model.InterpretedSignal{
			Type:     model.SignalValidationBug,
			Title:    "Form Validation Issue",
			Message:  message,
			Severity: severityOr(raw, model.SeverityHigh),
		}

	case model.SignalAPIError:
		return interpretAPIError(raw)

	case model.SignalNetworkError:
		return model.InterpretedSignal{
			Type:     model.SignalNetworkError,
			Title:    "Network Connectivity Issue",
			Message:  message,
			Severity: model.SeverityHigh,
		}

	case model.SignalUIInteractionFailure:
		return interpretUIFailure(raw)

	case model.SignalPromiseRejection:
		return model.InterpretedSignal{
			Type:     model.SignalAsyncError,
			Title:    "Unhandled Promise Rejection",
			Message:  message,
			Severity: model.SeverityMedium,
			Stack:    raw.String("stack"),
		}

	case model.SignalPlaywrightTestFailure:
		return model.InterpretedSignal{
			Type:     model.SignalPlaywrightTestFailure,
			Title:    firstNonEmpty(message, raw.String("title"), "Playwright Test Failed"),
			Message:  firstNonEmpty(message, "Automated test failure detected"),
			Severity: severityOr(raw, model.SeverityHigh),
			Stack:    raw.String("stack"),
			Extras: model.SignalExtras{
				TestName: raw.String("testName"),
				TestFile: raw.String("testFile"),
				Expected: raw.String("expected"),
				Actual:   raw.String("actual"),
				Source:   "playwright",
			},
		}
	}

	return model.InterpretedSignal{
		Type:     model.SignalUnknown,
		Title:    firstNonEmpty(raw.String("title"), message, "Unknown Application Error"),
		Message:  firstNonEmpty(message, "Unknown issue"),
		Severity: severityOr(raw, model.SeverityLow),
		Stack:    raw.String("stack"),
	}
}

// InterpretAll interprets a batch, skipping nil entries.
func InterpretAll(raws []model.RawSignal) []model.InterpretedSignal {
	out := make([]model.InterpretedSignal, 0, len(raws))
	for _, raw := range raws {
		if raw == nil {
			continue
		}
		out = append(out, Interpret(raw))
	}
	return out
}

func interpretAPIError(raw model.RawSignal) model.InterpretedSignal {
	endpoint := raw.String("endpoint")
	status, hasStatus := raw.Int("status")
	extras := model.SignalExtras{Endpoint: endpoint, HTTPStatus: status}

	if status == 401 || status == 403 {
		msg := fmt.Sprintf("Unauthorized request to %s", endpoint)
		return model.InterpretedSignal{
			Type:     model.SignalAuthError,
			Title:    msg,
			Message:  msg,
			Severity: model.SeverityCritical,
			Extras:   extras,
		}
	}

	statusText := "an unknown status"
	if hasStatus {
		statusText = strconv.Itoa(status)
	}
	severity := model.SeverityMedium
	if status >= 500 {
		severity = model.SeverityHigh
	}
	return model.InterpretedSignal{
		Type:     model.SignalAPIError,
		Title:    "API Endpoint Failure",
		Message:  fmt.Sprintf("%s returned %s", firstNonEmpty(endpoint, "unknown endpoint"), statusText),
		Severity: severity,
		Extras:   extras,
	}
}

func interpretUIFailure(raw model.RawSignal) model.InterpretedSignal {
	failureType := raw.String("failureType")
	severity := model.SeverityMedium
	if failureType == failureRapidClicks {
		severity = model.SeverityHigh
	}

	stack, _ := json.Marshal(map[string]any{
		"selector":    raw.String("selector"),
		"position":    raw.Raw("position"),
		"failureType": failureType,
	})

	return model.InterpretedSignal{
		Type:     model.SignalUIInteractionFailure,
		Title:    "Button Failure: " + firstNonEmpty(raw.String("buttonText"), "Unknown Button"),
		Message:  raw.String("message"),
		Severity: severity,
		Stack:    string(stack),
		Extras: model.SignalExtras{
			ButtonText:  raw.String("buttonText"),
			ButtonID:    raw.String("buttonId"),
			Selector:    raw.String("selector"),
			FailureType: failureType,
		},
	}
}

func severityOr(raw model.RawSignal, fallback model.Severity) model.Severity {
	if sev, ok := model.ParseSeverity(raw.String("severity")); ok {
		return sev
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
