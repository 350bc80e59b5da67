package service_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/surya021104/bug-tracker/common/llm"
	"github.com/surya021104/bug-tracker/internal/enrich"
	"github.com/surya021104/bug-tracker/internal/model"
	"github.com/surya021104/bug-tracker/internal/service"
	"github.com/surya021104/bug-tracker/internal/store"
)

var _ = Describe("IngestService", func() {
	var (
		ctx      context.Context
		backend  *store.MemoryBackend
		producer *recordingProducer
		clock    time.Time
		services *service.Services
	)

	runtimeError := func(url string) model.RawSignal {
		return model.RawSignal{
			"type":    "JS_RUNTIME_ERROR",
			"message": "Cannot read properties of undefined (reading 'total')",
			"url":     url,
		}
	}

	custom := func(title string) model.RawSignal {
		return model.RawSignal{"type": "CUSTOM", "title": title, "message": title + " happened"}
	}

	newKey := func(rateLimit int, active bool) string {
		Expect(backend.APIKeys().Create(ctx, &model.APIKey{
			ID:          42,
			Key:         "APP_PROD_TEST_KEY",
			AppID:       "shop-production",
			AppName:     "Shop",
			Environment: model.EnvProduction,
			IsActive:    active,
			RateLimit:   rateLimit,
			CreatedAt:   clock,
		})).To(Succeed())
		return "APP_PROD_TEST_KEY"
	}

	BeforeEach(func() {
		ctx = context.Background()
		backend = store.NewMemory()
		producer = &recordingProducer{}
		clock = time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
		services = service.NewServices(backend, producer, nil).WithClock(func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		})
	})

	It("ignores an empty signal", func() {
		result, err := services.Ingest().Ingest(ctx, service.IngestRequest{})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Status).To(Equal(service.IngestIgnored))
		Expect(producer.kinds()).To(BeEmpty())
	})

	It("checks the key before ignoring an empty signal", func() {
		_, err := services.Ingest().Ingest(ctx, service.IngestRequest{APIKey: "APP_BOGUS"})
		Expect(err).To(MatchError(service.ErrInvalidAPIKey))
		Expect(producer.kinds()).To(BeEmpty())
	})

	It("creates an issue with fallback enrichment when no generator is configured", func() {
		result, err := services.Ingest().Ingest(ctx, service.IngestRequest{
			Signal: runtimeError("https://shop.test/cart?x=1"),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Status).To(Equal(service.IngestCreated))
		Expect(result.BugID).To(MatchRegexp(`^BUG-\d+-[0-9a-f]{4}$`))

		issue, err := backend.Issues().GetByBugID(ctx, result.BugID)
		Expect(err).NotTo(HaveOccurred())
		Expect(issue.Title).To(Equal("JavaScript Runtime Error"))
		Expect(issue.Status).To(Equal(model.StatusTodo))
		Expect(issue.Severity).To(Equal(model.SeverityHigh))
		Expect(issue.Category).To(Equal(model.CategoryFunctional))
		Expect(issue.IsAuto).To(BeTrue())
		Expect(issue.AIAnalyzed).To(BeFalse())
		Expect(issue.Occurrences).To(Equal(int64(1)))
		Expect(issue.CreatedBy).To(Equal("Auto-Monitor"))
		Expect(issue.Module).To(Equal("Application"))
		Expect(issue.Labels).To(Equal([]string{"JS_RUNTIME_ERROR", enrich.LabelAIFailed}))
		Expect(issue.AppID).To(Equal("default"))
		Expect(issue.AppName).To(Equal("Legacy"))
		Expect(issue.AffectedUsers).To(BeZero())

		Expect(producer.kinds()).To(Equal([]model.NotificationKind{model.NotificationNewBug}))
		Expect(producer.sent[0].Issue.BugID).To(Equal(result.BugID))
	})

	It("is idempotent for repeated signals", func() {
		signal := runtimeError("https://shop.test/cart")
		signal["userId"] = "u-1"

		first, err := services.Ingest().Ingest(ctx, service.IngestRequest{Signal: signal})
		Expect(err).NotTo(HaveOccurred())

		for range 2 {
			again, err := services.Ingest().Ingest(ctx, service.IngestRequest{Signal: signal})
			Expect(err).NotTo(HaveOccurred())
			Expect(again.Status).To(Equal(service.IngestDuplicate))
			Expect(again.BugID).To(Equal(first.BugID))
		}

		issue, _ := backend.Issues().GetByBugID(ctx, first.BugID)
		Expect(issue.Occurrences).To(Equal(int64(3)))
		Expect(issue.AffectedUsers).To(Equal(int64(3)))
		Expect(issue.AffectedSessions).To(BeZero())
		Expect(issue.LastOccurrence.After(issue.CreatedAt)).To(BeTrue())

		all, _ := backend.Issues().List(ctx, store.IssueFilter{})
		Expect(all).To(HaveLen(1))
		Expect(producer.kinds()).To(Equal([]model.NotificationKind{
			model.NotificationNewBug, model.NotificationBugUpdated, model.NotificationBugUpdated,
		}))
	})

	It("falls back to the normalized title when signatures differ", func() {
		first, err := services.Ingest().Ingest(ctx, service.IngestRequest{Signal: runtimeError("https://shop.test/cart")})
		Expect(err).NotTo(HaveOccurred())

		second, err := services.Ingest().Ingest(ctx, service.IngestRequest{Signal: runtimeError("https://shop.test/checkout")})
		Expect(err).NotTo(HaveOccurred())
		Expect(second.Status).To(Equal(service.IngestDuplicate))
		Expect(second.BugID).To(Equal(first.BugID))
	})

	Describe("admission", func() {
		It("rejects unknown and inactive keys", func() {
			_, err := services.Ingest().Ingest(ctx, service.IngestRequest{Signal: custom("a"), APIKey: "nope"})
			Expect(err).To(MatchError(service.ErrInvalidAPIKey))

			key := newKey(10, false)
			_, err = services.Ingest().Ingest(ctx, service.IngestRequest{Signal: custom("a"), APIKey: key})
			Expect(err).To(MatchError(service.ErrInvalidAPIKey))
		})

		It("admits exactly rateLimit creations per hour", func() {
			key := newKey(2, true)

			for _, title := range []string{"Checkout broke", "Search broke"} {
				result, err := services.Ingest().Ingest(ctx, service.IngestRequest{Signal: custom(title), APIKey: key})
				Expect(err).NotTo(HaveOccurred())
				Expect(result.Status).To(Equal(service.IngestCreated))
				Expect(result.Issue.AppID).To(Equal("shop-production"))
				Expect(result.Issue.Environment).To(Equal(model.EnvProduction))
			}

			_, err := services.Ingest().Ingest(ctx, service.IngestRequest{Signal: custom("Profile broke"), APIKey: key})
			Expect(err).To(MatchError(service.ErrRateLimited))

			k, _ := backend.APIKeys().GetByID(ctx, 42)
			Expect(k.LastUsedAt).NotTo(BeNil())
		})

		It("lets internal test signals bypass the gate", func() {
			result, err := services.Ingest().Ingest(ctx, service.IngestRequest{
				Signal: model.RawSignal{
					"type":     "PLAYWRIGHT_TEST_FAILURE",
					"message":  "expected cart badge to show 1",
					"testFile": "cart.spec.ts",
				},
				APIKey: "not-a-real-key",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Status).To(Equal(service.IngestCreated))
			Expect(result.Issue.AppID).To(Equal("bugbuddy-tests"))
			Expect(result.Issue.AppName).To(Equal("cart.spec.ts"))
			Expect(result.Issue.Environment).To(Equal("Test"))
			Expect(result.Issue.CreatedBy).To(Equal("BugBuddy"))
			Expect(result.Issue.Module).To(Equal("BugBuddy Tests"))
		})
	})

	It("uses the generated report when the generator answers", func() {
		client := &mockLLMClient{chatFn: func(_ context.Context, _ llm.Request, result any) (*llm.Response, error) {
			return &llm.Response{}, llm.Decode(`{"title":"Cart total crashes","description":"d","module":"Cart",
				"steps_to_reproduce":"1. open cart","actual_output":"crash","expected_output":"total",
				"priority":"High","severity":"Critical","assignee":"Frontend Dev"}`, result)
		}}
		services = service.NewServices(backend, producer, enrich.NewComposer(client, time.Second))

		result, err := services.Ingest().Ingest(ctx, service.IngestRequest{Signal: runtimeError("https://shop.test/cart")})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Issue.AIAnalyzed).To(BeTrue())
		Expect(result.Issue.Title).To(Equal("Cart total crashes"))
		Expect(result.Issue.Module).To(Equal("Cart"))
		Expect(result.Issue.Priority).To(Equal(model.PriorityHigh))
		Expect(result.Issue.Labels).To(ContainElement(enrich.LabelAutoGenerated))
	})

	It("publishes nothing when the store write fails", func() {
		failing := backendWithIssues{
			Backend: backend,
			issues: &mockIssueStore{
				IssueStore: backend.Issues(),
				insertFn: func(context.Context, *model.Issue) error {
					return errors.New("disk full")
				},
			},
		}
		services = service.NewServices(failing, producer, nil)

		_, err := services.Ingest().Ingest(ctx, service.IngestRequest{Signal: runtimeError("https://shop.test")})
		Expect(err).To(MatchError(ContainSubstring("disk full")))
		Expect(producer.kinds()).To(BeEmpty())
	})

	It("does not fail when publishing fails", func() {
		producer.err = errors.New("redis down")

		result, err := services.Ingest().Ingest(ctx, service.IngestRequest{Signal: runtimeError("https://shop.test")})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Status).To(Equal(service.IngestCreated))
	})
})
