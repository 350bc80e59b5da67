package service_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/surya021104/bug-tracker/internal/model"
	"github.com/surya021104/bug-tracker/internal/service"
	"github.com/surya021104/bug-tracker/internal/store"
)

var _ = Describe("APIKeyService", func() {
	var (
		ctx     context.Context
		backend *store.MemoryBackend
		keys    service.APIKeyService
		now     time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		backend = store.NewMemory()
		now = time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
		keys = service.NewAPIKeyService(backend, func() time.Time { return now })
	})

	It("maps a missing key to the default tenant", func() {
		meta, err := keys.Admit(ctx, "")
		Expect(err).NotTo(HaveOccurred())
		Expect(meta).To(Equal(service.DefaultTenant))
	})

	Describe("Generate", func() {
		It("derives app id, preview and default rate limit", func() {
			generated, err := keys.Generate(ctx, service.GenerateKeyParams{AppName: "My  Shop", Environment: model.EnvStaging})
			Expect(err).NotTo(HaveOccurred())

			Expect(generated.Key).To(MatchRegexp(`^APP_STAG_[0-9A-Z]+_[0-9A-F]{32}$`))
			Expect(generated.APIKey.AppID).To(Equal("my-shop-staging"))
			Expect(generated.APIKey.RateLimit).To(Equal(2000))
			Expect(generated.APIKey.IsActive).To(BeTrue())
			Expect(generated.APIKey.Preview).To(Equal(generated.Key[:8] + "********" + generated.Key[len(generated.Key)-4:]))

			meta, err := keys.Admit(ctx, generated.Key)
			Expect(err).NotTo(HaveOccurred())
			Expect(meta.AppID).To(Equal("my-shop-staging"))
		})

		DescribeTable("validates input",
			func(params service.GenerateKeyParams, expected error) {
				_, err := keys.Generate(ctx, params)
				Expect(err).To(MatchError(expected))
			},
			Entry("blank name", service.GenerateKeyParams{AppName: " ", Environment: model.EnvProduction}, service.ErrAppNameRequired),
			Entry("unknown environment", service.GenerateKeyParams{AppName: "Shop", Environment: "qa"}, service.ErrInvalidEnvironment),
		)
	})

	It("lists keys with hourly usage", func() {
		generated, err := keys.Generate(ctx, service.GenerateKeyParams{AppName: "Shop", Environment: model.EnvProduction, RateLimit: 4})
		Expect(err).NotTo(HaveOccurred())
		Expect(backend.Issues().Insert(ctx, &model.Issue{BugID: "BUG-1", AppID: generated.APIKey.AppID, CreatedAt: now.Add(-10 * time.Minute)})).To(Succeed())
		Expect(backend.Issues().Insert(ctx, &model.Issue{BugID: "BUG-2", AppID: generated.APIKey.AppID, CreatedAt: now.Add(-2 * time.Hour)})).To(Succeed())

		list, err := keys.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(list).To(HaveLen(1))
		Expect(list[0].CurrentUsage).To(Equal(int64(1)))
		Expect(list[0].UsagePercent).To(Equal(25))
	})

	It("toggles and deletes keys", func() {
		generated, err := keys.Generate(ctx, service.GenerateKeyParams{AppName: "Shop", Environment: model.EnvDevelopment})
		Expect(err).NotTo(HaveOccurred())

		toggled, err := keys.Toggle(ctx, generated.APIKey.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(toggled.IsActive).To(BeFalse())

		_, err = keys.Admit(ctx, generated.Key)
		Expect(err).To(MatchError(service.ErrInvalidAPIKey))

		Expect(keys.Delete(ctx, generated.APIKey.ID)).To(Succeed())
		Expect(keys.Delete(ctx, generated.APIKey.ID)).To(MatchError(service.ErrAPIKeyNotFound))
		_, err = keys.Toggle(ctx, generated.APIKey.ID)
		Expect(err).To(MatchError(service.ErrAPIKeyNotFound))
	})
})
