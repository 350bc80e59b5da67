package sink_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/surya021104/bug-tracker/core/config"
	"github.com/surya021104/bug-tracker/internal/model"
	"github.com/surya021104/bug-tracker/internal/sink"
)

type gitlabCall struct {
	Method string
	Path   string
	Query  string
	Body   map[string]any
}

var _ = Describe("GitLabSink", func() {
	var (
		ctx    context.Context
		server *httptest.Server
		mu     sync.Mutex
		calls  []gitlabCall
		s      sink.Sink
	)

	BeforeEach(func() {
		ctx = context.Background()
		calls = nil

		mux := http.NewServeMux()
		record := func(r *http.Request) {
			mu.Lock()
			defer mu.Unlock()
			c := gitlabCall{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery}
			_ = json.NewDecoder(r.Body).Decode(&c.Body)
			calls = append(calls, c)
		}
		mux.HandleFunc("/api/v4/projects/42/issues", func(w http.ResponseWriter, r *http.Request) {
			record(r)
			w.Header().Set("Content-Type", "application/json")
			if r.Method == http.MethodPost {
				w.WriteHeader(http.StatusCreated)
				_, _ = w.Write([]byte(`{"id":100,"iid":7,"web_url":"https://gitlab.example/issues/7"}`))
				return
			}
			_, _ = w.Write([]byte(`[{"id":100,"iid":7}]`))
		})
		mux.HandleFunc("/api/v4/projects/42/issues/7", func(w http.ResponseWriter, r *http.Request) {
			record(r)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":100,"iid":7,"state":"closed"}`))
		})
		server = httptest.NewServer(mux)
		DeferCleanup(server.Close)

		var err error
		s, err = sink.NewGitLabSink(config.GitLabConfig{Token: "t", BaseURL: server.URL, ProjectID: "42"})
		Expect(err).NotTo(HaveOccurred())
	})

	It("creates a labelled issue for a new bug", func() {
		err := s.Deliver(ctx, model.Notification{
			Kind:  model.NotificationNewBug,
			BugID: "BUG-9",
			Issue: &model.Issue{BugID: "BUG-9", Title: "Cart empty", Severity: model.SeverityHigh, Module: "Cart", Steps: "1. Open cart"},
		})
		Expect(err).NotTo(HaveOccurred())

		Expect(calls).To(HaveLen(1))
		Expect(calls[0].Method).To(Equal(http.MethodPost))
		Expect(calls[0].Body["title"]).To(Equal("[BUG-9] Cart empty"))
		Expect(calls[0].Body["labels"]).To(ContainSubstring("bug-tracker::BUG-9"))
		Expect(calls[0].Body["description"]).To(ContainSubstring("Steps to reproduce"))
	})

	It("rejects a new bug without its issue", func() {
		err := s.Deliver(ctx, model.Notification{Kind: model.NotificationNewBug, BugID: "BUG-9"})
		Expect(err).To(HaveOccurred())
		Expect(calls).To(BeEmpty())
	})

	It("closes the mirrored issue when the bug is deleted", func() {
		Expect(s.Deliver(ctx, model.Notification{Kind: model.NotificationIssueDeleted, BugID: "BUG-9"})).To(Succeed())

		Expect(calls).To(HaveLen(2))
		Expect(calls[0].Method).To(Equal(http.MethodGet))
		Expect(calls[0].Query).To(ContainSubstring("bug-tracker%3A%3ABUG-9"))
		Expect(calls[1].Method).To(Equal(http.MethodPut))
		Expect(calls[1].Body["state_event"]).To(Equal("close"))
	})

	It("ignores updates", func() {
		Expect(s.Deliver(ctx, model.Notification{Kind: model.NotificationBugUpdated, BugID: "BUG-9"})).To(Succeed())
		Expect(calls).To(BeEmpty())
	})
})
