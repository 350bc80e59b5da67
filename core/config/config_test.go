package config_test

import (
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/surya021104/bug-tracker/core/config"
)

var _ = Describe("Load", func() {
	setEnv := func(key, value string) {
		prev, had := os.LookupEnv(key)
		Expect(os.Setenv(key, value)).To(Succeed())
		DeferCleanup(func() {
			if had {
				_ = os.Setenv(key, prev)
			} else {
				_ = os.Unsetenv(key)
			}
		})
	}

	BeforeEach(func() {
		setEnv("BUGTRACKER_ENV", "test")
	})

	It("applies defaults", func() {
		cfg, err := config.Load(config.ServiceTypeServer)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Port).To(Equal("4000"))
		Expect(cfg.Storage.Backend).To(Equal(config.BackendPostgres))
		Expect(cfg.Enrichment.Timeout).To(Equal(30 * time.Second))
		Expect(cfg.Notify.Stream).To(Equal("bug_notifications"))
		Expect(cfg.OTel.ServiceName).To(Equal("bug-tracker-server"))
	})

	It("rejects an unknown backend", func() {
		setEnv("STORAGE_BACKEND", "mongo")
		_, err := config.Load(config.ServiceTypeServer)
		Expect(err).To(MatchError(ContainSubstring("unknown STORAGE_BACKEND")))
	})

	It("requires arango settings for the arangodb backend", func() {
		setEnv("STORAGE_BACKEND", config.BackendArangoDB)
		setEnv("ARANGO_URL", "")
		_, err := config.Load(config.ServiceTypeServer)
		Expect(err).To(HaveOccurred())
	})

	It("caps the enrichment timeout at thirty seconds", func() {
		setEnv("ENRICHMENT_TIMEOUT", "45s")
		_, err := config.Load(config.ServiceTypeServer)
		Expect(err).To(MatchError(ContainSubstring("ENRICHMENT_TIMEOUT")))
	})

	DescribeTable("LLMConfig.Enabled",
		func(cfg config.LLMConfig, expected bool) {
			Expect(cfg.Enabled()).To(Equal(expected))
		},
		Entry("no key", config.LLMConfig{Provider: "openai"}, false),
		Entry("openai", config.LLMConfig{Provider: "openai", APIKey: "k"}, true),
		Entry("anthropic", config.LLMConfig{Provider: "anthropic", APIKey: "k"}, true),
		Entry("unknown provider", config.LLMConfig{Provider: "cohere", APIKey: "k"}, false),
	)
})
