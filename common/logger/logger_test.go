package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/surya021104/bug-tracker/common/logger"
)

var _ = Describe("LogFields", func() {
	It("merges newer non-empty values over older ones", func() {
		ctx := logger.WithLogFields(context.Background(), logger.LogFields{
			BugID:     logger.Ptr("BUG-1"),
			AppID:     logger.Ptr("shop-production"),
			Component: "bugtracker.service.ingest",
		})
		ctx = logger.WithLogFields(ctx, logger.LogFields{BugID: logger.Ptr("BUG-2")})

		fields := logger.GetLogFields(ctx)
		Expect(*fields.BugID).To(Equal("BUG-2"))
		Expect(*fields.AppID).To(Equal("shop-production"))
		Expect(fields.Component).To(Equal("bugtracker.service.ingest"))
	})

	It("returns empty fields for a bare context", func() {
		Expect(logger.GetLogFields(context.Background())).To(Equal(logger.LogFields{}))
	})
})

var _ = Describe("TraceHandler", func() {
	It("writes context fields as attributes", func() {
		var buf bytes.Buffer
		log := slog.New(logger.NewTraceHandler(slog.NewJSONHandler(&buf, nil)))

		ctx := logger.WithLogFields(context.Background(), logger.LogFields{
			Signature:        logger.Ptr("abc123"),
			NotificationKind: logger.Ptr("new-bug"),
		})
		log.InfoContext(ctx, "hello")

		var record map[string]any
		Expect(json.Unmarshal(buf.Bytes(), &record)).To(Succeed())
		Expect(record).To(HaveKeyWithValue("signature", "abc123"))
		Expect(record).To(HaveKeyWithValue("notification_kind", "new-bug"))
		Expect(record).NotTo(HaveKey("trace_id"))
	})
})

var _ = DescribeTable("Truncate",
	func(in string, n int, expected string) {
		Expect(logger.Truncate(in, n)).To(Equal(expected))
	},
	Entry("short", "abc", 5, "abc"),
	Entry("exact", "abcde", 5, "abcde"),
	Entry("long", "abcdefgh", 3, "abc..."),
)
