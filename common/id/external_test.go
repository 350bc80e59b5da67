package id_test

import (
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/surya021104/bug-tracker/common/id"
)

var _ = Describe("external ids", func() {
	now := time.UnixMilli(1700000000123)

	Describe("NewBugID", func() {
		It("embeds the millisecond timestamp and a 4 char suffix", func() {
			bugID := id.NewBugID(now)
			Expect(bugID).To(MatchRegexp(`^BUG-1700000000123-[0-9a-f]{4}$`))
		})

		It("varies the suffix between calls", func() {
			seen := map[string]bool{}
			for range 50 {
				seen[id.NewBugID(now)] = true
			}
			Expect(len(seen)).To(BeNumerically(">", 1))
		})
	})

	Describe("NewAPIKey", func() {
		It("uses the environment prefix and 32 hex chars", func() {
			key := id.NewAPIKey("production", now)
			Expect(key).To(MatchRegexp(`^APP_PROD_[0-9A-Z]+_[0-9A-F]{32}$`))
		})

		It("keeps short environments intact", func() {
			Expect(id.NewAPIKey("qa", now)).To(HavePrefix("APP_QA_"))
		})
	})

	DescribeTable("MaskAPIKey",
		func(key, expected string) {
			Expect(id.MaskAPIKey(key)).To(Equal(expected))
		},
		Entry("short keys untouched", "APP_DEV", "APP_DEV"),
		Entry("caps stars at eight", "APP_DEVE_ABCDEFGHIJKLMNOP_1234", "APP_DEVE********1234"),
		Entry("fewer stars for medium keys", "ABCDEFGH12WXYZ", "ABCDEFGH**WXYZ"),
	)

	It("never leaks the middle of a generated key", func() {
		key := id.NewAPIKey("staging", now)
		masked := id.MaskAPIKey(key)
		Expect(masked).To(HavePrefix(key[:8]))
		Expect(masked).To(HaveSuffix(key[len(key)-4:]))
		Expect(strings.Count(masked, "*")).To(Equal(8))
	})
})
