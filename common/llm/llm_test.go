package llm_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/surya021104/bug-tracker/common/llm"
)

type sample struct {
	Title string `json:"title"`
	Steps string `json:"steps"`
}

var _ = Describe("SanitizeJSON", func() {
	DescribeTable("replaces control characters with spaces",
		func(input, expected string) {
			Expect(llm.SanitizeJSON(input)).To(Equal(expected))
		},
		Entry("clean input unchanged", `{"a":"b"}`, `{"a":"b"}`),
		Entry("raw newline in a string", "{\"a\":\"x\ny\"}", `{"a":"x y"}`),
		Entry("tab and bell", "{\"a\":\"x\t\ay\"}", `{"a":"x  y"}`),
		Entry("C1 control range", "{\"a\":\"x\u0085y\"}", `{"a":"x y"}`),
		Entry("markdown fence", "```json\n{\"a\":1}\n```", `{"a":1}`),
	)
})

var _ = Describe("Decode", func() {
	It("decodes after sanitizing", func() {
		var out sample
		Expect(llm.Decode("{\"title\":\"Cart\",\"steps\":\"1. open\n2. click\"}", &out)).To(Succeed())
		Expect(out).To(Equal(sample{Title: "Cart", Steps: "1. open 2. click"}))
	})

	It("rejects garbage", func() {
		var out sample
		Expect(llm.Decode("not json at all", &out)).To(HaveOccurred())
	})

	It("flags empty content", func() {
		var out sample
		Expect(llm.Decode("  \n ", &out)).To(MatchError(llm.ErrEmptyResponse))
	})
})

var _ = Describe("GenerateSchema", func() {
	It("lists every field and forbids extras", func() {
		raw, err := json.Marshal(llm.GenerateSchema[sample]())
		Expect(err).NotTo(HaveOccurred())

		var doc map[string]any
		Expect(json.Unmarshal(raw, &doc)).To(Succeed())
		Expect(doc["additionalProperties"]).To(BeFalse())
		Expect(doc["properties"]).To(HaveKey("title"))
		Expect(doc["required"]).To(ConsistOf("title", "steps"))
	})
})

var _ = Describe("New", func() {
	It("requires an API key", func() {
		_, err := llm.New(llm.Config{Provider: llm.ProviderOpenAI})
		Expect(err).To(MatchError(llm.ErrAPIKeyRequired))
	})

	It("rejects unknown providers", func() {
		_, err := llm.New(llm.Config{Provider: "cohere", APIKey: "k"})
		Expect(errors.Is(err, llm.ErrUnknownProvider)).To(BeTrue())
	})

	DescribeTable("builds provider clients with default models",
		func(provider, model string) {
			c, err := llm.New(llm.Config{Provider: provider, APIKey: "k"})
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Model()).To(Equal(model))
		},
		Entry("openai", llm.ProviderOpenAI, "gpt-4o-mini"),
		Entry("anthropic", llm.ProviderAnthropic, "claude-sonnet-4-5-20250514"),
	)
})

var _ = Describe("IsRetryable", func() {
	ctx := context.Background()

	It("does not retry deadlines", func() {
		Expect(llm.IsRetryable(ctx, fmt.Errorf("chat: %w", context.DeadlineExceeded))).To(BeFalse())
	})

	It("retries plain transport errors", func() {
		Expect(llm.IsRetryable(ctx, errors.New("connection reset"))).To(BeTrue())
	})

	It("ignores nil", func() {
		Expect(llm.IsRetryable(ctx, nil)).To(BeFalse())
	})
})
