package enrich_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/surya021104/bug-tracker/common/llm"
	"github.com/surya021104/bug-tracker/internal/enrich"
	"github.com/surya021104/bug-tracker/internal/model"
)

type fakeClient struct {
	chatFn  func(ctx context.Context, req llm.Request, result any) (*llm.Response, error)
	lastReq llm.Request
}

func (f *fakeClient) Chat(ctx context.Context, req llm.Request, result any) (*llm.Response, error) {
	f.lastReq = req
	return f.chatFn(ctx, req, result)
}

func (f *fakeClient) Model() string { return "fake" }

func replyWith(content string) func(context.Context, llm.Request, any) (*llm.Response, error) {
	return func(_ context.Context, _ llm.Request, result any) (*llm.Response, error) {
		if err := llm.Decode(content, result); err != nil {
			return nil, err
		}
		return &llm.Response{}, nil
	}
}

var _ = Describe("Composer", func() {
	var (
		ctx    context.Context
		signal model.InterpretedSignal
	)

	BeforeEach(func() {
		ctx = context.Background()
		signal = model.InterpretedSignal{
			Type:     model.SignalAPIError,
			Title:    "API Failure",
			Message:  "/api/orders returned 500",
			Severity: model.SeverityHigh,
			Stack:    "at submit (checkout.js:10)",
		}
	})

	It("maps a generated report", func() {
		client := &fakeClient{chatFn: replyWith(`{
			"bug_id": "BUG-2026-101",
			"title": "Order submission fails with 500",
			"description": "Submitting an order returns a server error",
			"module": "Checkout",
			"steps_to_reproduce": "1. Add item\n2. Submit",
			"actual_output": "500 error",
			"expected_output": "Order created",
			"priority": "high",
			"severity": "Critical",
			"assignee": "Backend Dev"
		}`)}

		bug := enrich.NewComposer(client, time.Second).Compose(ctx, signal, "https://shop.test/checkout")

		Expect(bug.AIAnalyzed).To(BeTrue())
		Expect(bug.Title).To(Equal("Order submission fails with 500"))
		Expect(bug.Module).To(Equal("Checkout"))
		Expect(bug.Priority).To(Equal(model.PriorityHigh))
		Expect(bug.Severity).To(Equal(model.SeverityCritical))
		Expect(bug.Steps).To(Equal("1. Add item\n2. Submit"))
		Expect(bug.Labels).To(Equal([]string{"API_ERROR", enrich.LabelAutoGenerated}))

		Expect(client.lastReq.UserPrompt).To(ContainSubstring("Error Type: API_ERROR"))
		Expect(client.lastReq.UserPrompt).To(ContainSubstring("https://shop.test/checkout"))
		Expect(client.lastReq.UserPrompt).To(ContainSubstring("Stack: at submit"))
		Expect(client.lastReq.SchemaName).To(Equal("bug_report"))
	})

	It("keeps the signal severity when the generator returns an unknown one", func() {
		client := &fakeClient{chatFn: replyWith(`{"title":"x","severity":"Catastrophic","priority":"Urgent"}`)}

		bug := enrich.NewComposer(client, time.Second).Compose(ctx, signal, "")
		Expect(bug.Severity).To(Equal(model.SeverityHigh))
		Expect(bug.Priority).To(Equal(model.PriorityMedium))
	})

	DescribeTable("falls back",
		func(client llm.Client) {
			bug := enrich.NewComposer(client, 50*time.Millisecond).Compose(ctx, signal, "https://shop.test")
			Expect(bug).To(Equal(enrich.Fallback(signal)))
		},
		Entry("without a generator", nil),
		Entry("on a transport error", &fakeClient{chatFn: func(context.Context, llm.Request, any) (*llm.Response, error) {
			return nil, errors.New("connection reset")
		}}),
		Entry("on malformed output", &fakeClient{chatFn: replyWith(`not json at all`)}),
		Entry("on an empty title", &fakeClient{chatFn: replyWith(`{"title":"   "}`)}),
		Entry("on timeout", &fakeClient{chatFn: func(ctx context.Context, _ llm.Request, _ any) (*llm.Response, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}}),
	)

	It("fills the fallback table", func() {
		bug := enrich.Fallback(model.InterpretedSignal{Type: model.SignalUnknown})

		Expect(bug.Title).To(Equal("Unknown Error"))
		Expect(bug.Description).To(BeEmpty())
		Expect(bug.Severity).To(Equal(model.SeverityMedium))
		Expect(bug.Priority).To(Equal(model.PriorityMedium))
		Expect(bug.Labels).To(Equal([]string{"UNKNOWN", enrich.LabelAIFailed}))
		Expect(bug.Steps).To(Equal("1. Open the application\n2. Replicate the reported action"))
		Expect(bug.Actual).To(Equal("Error occurred"))
		Expect(bug.Expected).To(Equal("Application should function without errors"))
		Expect(bug.Assignee).To(Equal("Backend Dev"))
		Expect(bug.Environment).To(Equal("Unknown - requires investigation"))
		Expect(bug.AIAnalyzed).To(BeFalse())
	})

	It("requires a description for free-text reports", func() {
		_, err := enrich.NewComposer(&fakeClient{}, time.Second).Report(ctx, "  ")
		Expect(err).To(MatchError(enrich.ErrDescriptionNeeded))
	})
})
