package analyzer_test

import (
	"encoding/json"

	"github.com/google/go-cmp/cmp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/surya021104/bug-tracker/internal/analyzer"
	"github.com/surya021104/bug-tracker/internal/model"
)

func decode(body string) model.RawSignal {
	var raw model.RawSignal
	Expect(json.Unmarshal([]byte(body), &raw)).To(Succeed())
	return raw
}

var _ = Describe("Interpret", func() {
	It("retypes 401 API errors as critical auth failures", func() {
		got := analyzer.Interpret(decode(`{"type":"API_ERROR","status":401,"endpoint":"/x","url":"http://a/p"}`))

		want := model.InterpretedSignal{
			Type:     model.SignalAuthError,
			Title:    "Unauthorized request to /x",
			Message:  "Unauthorized request to /x",
			Severity: model.SeverityCritical,
			Extras:   model.SignalExtras{Endpoint: "/x", HTTPStatus: 401},
		}
		Expect(cmp.Diff(want, got)).To(BeEmpty())
	})

	It("treats 403 the same as 401", func() {
		got := analyzer.Interpret(decode(`{"type":"API_ERROR","status":"403","endpoint":"/admin"}`))
		Expect(got.Type).To(Equal(model.SignalAuthError))
		Expect(got.Severity).To(Equal(model.SeverityCritical))
	})

	DescribeTable("API error severity by status",
		func(body string, severity model.Severity, message string) {
			got := analyzer.Interpret(decode(body))
			Expect(got.Type).To(Equal(model.SignalAPIError))
			Expect(got.Title).To(Equal("API Endpoint Failure"))
			Expect(got.Severity).To(Equal(severity))
			Expect(got.Message).To(Equal(message))
		},
		Entry("server error", `{"type":"API_ERROR","status":502,"endpoint":"/orders"}`, model.SeverityHigh, "/orders returned 502"),
		Entry("client error", `{"type":"API_ERROR","status":404,"endpoint":"/orders/9"}`, model.SeverityMedium, "/orders/9 returned 404"),
		Entry("missing fields", `{"type":"API_ERROR"}`, model.SeverityMedium, "unknown endpoint returned an unknown status"),
	)

	DescribeTable("fixed templates per type",
		func(body string, typ model.SignalType, title string, severity model.Severity) {
			got := analyzer.Interpret(decode(body))
			Expect(got.Type).To(Equal(typ))
			Expect(got.Title).To(Equal(title))
			Expect(got.Severity).To(Equal(severity))
		},
		Entry("js runtime", `{"type":"JS_RUNTIME_ERROR","message":"x is undefined","severity":"Low"}`,
			model.SignalJSRuntimeError, "JavaScript Runtime Error", model.SeverityHigh),
		Entry("console default", `{"type":"CONSOLE_ERROR","message":"boom"}`,
			model.SignalConsoleError, "Console Error Detected", model.SeverityMedium),
		Entry("console override", `{"type":"CONSOLE_ERROR","message":"boom","severity":"critical"}`,
			model.SignalConsoleError, "Console Error Detected", model.SeverityCritical),
		Entry("console bogus severity", `{"type":"CONSOLE_ERROR","severity":"urgent"}`,
			model.SignalConsoleError, "Console Error Detected", model.SeverityMedium),
		Entry("validation", `{"type":"VALIDATION_BUG","message":"email accepted"}`,
			model.SignalValidationBug, "Form Validation Issue", model.SeverityHigh),
		Entry("network", `{"type":"NETWORK_ERROR","message":"offline"}`,
			model.SignalNetworkError, "Network Connectivity Issue", model.SeverityHigh),
		Entry("promise", `{"type":"PROMISE_REJECTION","message":"nope"}`,
			model.SignalAsyncError, "Unhandled Promise Rejection", model.SeverityMedium),
		Entry("signalType fallback key", `{"signalType":"NETWORK_ERROR"}`,
			model.SignalNetworkError, "Network Connectivity Issue", model.SeverityHigh),
	)

	Describe("UI interaction failures", func() {
		It("escalates rapid clicks and records the selector", func() {
			got := analyzer.Interpret(decode(`{
				"type":"UI_INTERACTION_FAILURE",
				"buttonText":"Pay now",
				"buttonId":"pay",
				"selector":"#pay",
				"failureType":"RAPID_CLICKS",
				"position":{"x":10,"y":20},
				"message":"clicked 5 times"
			}`))

			Expect(got.Title).To(Equal("Button Failure: Pay now"))
			Expect(got.Severity).To(Equal(model.SeverityHigh))
			Expect(got.Extras.ButtonID).To(Equal("pay"))
			Expect(got.Stack).To(MatchJSON(`{"selector":"#pay","position":{"x":10,"y":20},"failureType":"RAPID_CLICKS"}`))
		})

		It("names unknown buttons", func() {
			got := analyzer.Interpret(decode(`{"type":"UI_INTERACTION_FAILURE","failureType":"NO_RESPONSE"}`))
			Expect(got.Title).To(Equal("Button Failure: Unknown Button"))
			Expect(got.Severity).To(Equal(model.SeverityMedium))
		})
	})

	Describe("Playwright failures", func() {
		It("prefers the message as title and tags the source", func() {
			got := analyzer.Interpret(decode(`{
				"type":"PLAYWRIGHT_TEST_FAILURE",
				"message":"expected cart count 1",
				"testName":"adds to cart",
				"testFile":"cart.spec.ts"
			}`))
			Expect(got.Title).To(Equal("expected cart count 1"))
			Expect(got.Severity).To(Equal(model.SeverityHigh))
			Expect(got.Extras.Source).To(Equal("playwright"))
			Expect(got.Extras.TestFile).To(Equal("cart.spec.ts"))
		})

		It("falls back to literal defaults", func() {
			got := analyzer.Interpret(decode(`{"type":"PLAYWRIGHT_TEST_FAILURE"}`))
			Expect(got.Title).To(Equal("Playwright Test Failed"))
			Expect(got.Message).To(Equal("Automated test failure detected"))
		})
	})

	Describe("unknown shapes", func() {
		It("degrades to UNKNOWN/Low", func() {
			got := analyzer.Interpret(model.RawSignal{})
			Expect(got).To(Equal(model.InterpretedSignal{
				Type:     model.SignalUnknown,
				Title:    "Unknown Application Error",
				Message:  "Unknown issue",
				Severity: model.SeverityLow,
			}))
		})

		It("buckets unrecognized types as UNKNOWN but keeps title and severity", func() {
			got := analyzer.Interpret(decode(`{"type":"CUSTOM","bugType":"CHECKOUT","message":"price wrong","severity":"High"}`))
			Expect(got.Type).To(Equal(model.SignalUnknown))
			Expect(got.Title).To(Equal("price wrong"))
			Expect(got.Severity).To(Equal(model.SeverityHigh))
		})

		It("tolerates wrongly typed fields", func() {
			got := analyzer.Interpret(decode(`{"type":["JS"],"message":{"a":1},"title":null}`))
			Expect(got.Type).To(Equal(model.SignalUnknown))
			Expect(got.Title).To(Equal("Unknown Application Error"))
		})

		It("is total on a nil bag", func() {
			Expect(func() { analyzer.Interpret(nil) }).NotTo(Panic())
		})
	})
})

var _ = Describe("InterpretAll", func() {
	It("skips nil entries", func() {
		Expect(analyzer.InterpretAll([]model.RawSignal{nil})).To(BeEmpty())
		Expect(analyzer.InterpretAll(nil)).To(BeEmpty())
		Expect(analyzer.InterpretAll([]model.RawSignal{{"type": "NETWORK_ERROR"}, nil})).To(HaveLen(1))
	})
})
