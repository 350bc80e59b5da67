package handler_test

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/surya021104/bug-tracker/internal/http/handler"
	"github.com/surya021104/bug-tracker/internal/model"
	"github.com/surya021104/bug-tracker/internal/service"
	"github.com/surya021104/bug-tracker/internal/store"
)

var _ = Describe("IssueHandler", func() {
	var (
		router *gin.Engine
		svc    *mockIssueService
	)

	BeforeEach(func() {
		router = gin.New()
		svc = &mockIssueService{}
		h := handler.NewIssueHandler(svc)
		router.GET("/api/issues", h.List)
		router.POST("/api/issues", h.Create)
		router.GET("/api/issues/:id", h.Get)
		router.PATCH("/api/issues/:id/status", h.UpdateStatus)
		router.DELETE("/api/issues/:id", h.Delete)
	})

	Describe("List", func() {
		It("binds the query filters", func() {
			var got store.IssueFilter
			svc.listFn = func(_ context.Context, f store.IssueFilter) ([]model.Issue, error) {
				got = f
				return []model.Issue{{BugID: "BUG-1"}}, nil
			}

			w := do(router, http.MethodGet, "/api/issues?appId=shop-production&status=Open&limit=5", nil)
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(got).To(Equal(store.IssueFilter{AppID: "shop-production", Status: model.StatusOpen, Limit: 5}))
			Expect(w.Body.String()).To(ContainSubstring(`"id":"BUG-1"`))
		})

		It("rejects a malformed limit", func() {
			w := do(router, http.MethodGet, "/api/issues?limit=lots", nil)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("Create", func() {
		It("maps the request onto a manual issue", func() {
			var got service.ManualIssue
			svc.createFn = func(_ context.Context, p service.ManualIssue) (*service.CreateIssueResult, error) {
				got = p
				return &service.CreateIssueResult{Issue: &model.Issue{BugID: "BUG-2", Title: p.Title}}, nil
			}

			w := do(router, http.MethodPost, "/api/issues", map[string]string{
				"title": "Login broken", "type": "UI", "severity": "High",
			})
			Expect(w.Code).To(Equal(http.StatusCreated))
			Expect(got.Title).To(Equal("Login broken"))
			Expect(got.Category).To(Equal("UI"))
			Expect(got.Severity).To(Equal(model.SeverityHigh))

			resp := decode(w)
			Expect(resp["success"]).To(BeTrue())
			Expect(resp["duplicate"]).To(BeFalse())
		})

		It("reports a duplicate with its message", func() {
			svc.createFn = func(context.Context, service.ManualIssue) (*service.CreateIssueResult, error) {
				return &service.CreateIssueResult{
					Issue:     &model.Issue{BugID: "BUG-1", Occurrences: 2},
					Duplicate: true,
					Message:   service.DuplicateManualMessage,
				}, nil
			}

			w := do(router, http.MethodPost, "/api/issues", map[string]string{"title": "Login broken"})
			Expect(w.Code).To(Equal(http.StatusOK))
			resp := decode(w)
			Expect(resp["duplicate"]).To(BeTrue())
			Expect(resp["message"]).To(Equal(service.DuplicateManualMessage))
		})

		It("requires a title", func() {
			svc.createFn = func(context.Context, service.ManualIssue) (*service.CreateIssueResult, error) {
				return nil, service.ErrTitleRequired
			}
			w := do(router, http.MethodPost, "/api/issues", map[string]string{"title": " "})
			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(decode(w)["error"]).To(Equal("Title required"))
		})
	})

	Describe("UpdateStatus", func() {
		It("passes status and actor through", func() {
			var (
				gotStatus model.Status
				gotActor  *model.Actor
			)
			svc.updateStatusFn = func(_ context.Context, bugID string, status model.Status, actor *model.Actor) (*model.Issue, error) {
				gotStatus, gotActor = status, actor
				return &model.Issue{BugID: bugID, Status: status}, nil
			}

			w := do(router, http.MethodPatch, "/api/issues/BUG-1/status", map[string]any{
				"status":      "Fixed",
				"currentUser": map[string]string{"empId": "E42", "name": "Ana"},
			})
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(gotStatus).To(Equal(model.StatusFixed))
			Expect(gotActor).To(Equal(&model.Actor{EmpID: "E42", Name: "Ana"}))
		})

		DescribeTable("maps service errors",
			func(err error, code int) {
				svc.updateStatusFn = func(context.Context, string, model.Status, *model.Actor) (*model.Issue, error) {
					return nil, err
				}
				w := do(router, http.MethodPatch, "/api/issues/BUG-1/status", map[string]string{"status": "Open"})
				Expect(w.Code).To(Equal(code))
			},
			Entry("missing status", service.ErrStatusRequired, http.StatusBadRequest),
			Entry("unknown issue", service.ErrIssueNotFound, http.StatusNotFound),
			Entry("store failure", errors.New("deadlock"), http.StatusInternalServerError),
		)
	})

	It("gets one issue", func() {
		svc.getFn = func(_ context.Context, bugID string) (*model.Issue, error) {
			return &model.Issue{BugID: bugID}, nil
		}
		w := do(router, http.MethodGet, "/api/issues/BUG-7", nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(decode(w)["id"]).To(Equal("BUG-7"))
	})

	It("returns 404 for an unknown issue", func() {
		w := do(router, http.MethodGet, "/api/issues/BUG-404", nil)
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})

	Describe("Delete", func() {
		It("confirms the deletion", func() {
			svc.deleteFn = func(_ context.Context, bugID string) (*model.Issue, error) {
				return &model.Issue{BugID: bugID}, nil
			}
			w := do(router, http.MethodDelete, "/api/issues/BUG-3", nil)
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(decode(w)).To(Equal(map[string]any{"success": true, "message": "Issue deleted", "id": "BUG-3"}))
		})

		It("returns 404 for an unknown issue", func() {
			svc.deleteFn = func(context.Context, string) (*model.Issue, error) {
				return nil, service.ErrIssueNotFound
			}
			w := do(router, http.MethodDelete, "/api/issues/BUG-3", nil)
			Expect(w.Code).To(Equal(http.StatusNotFound))
		})
	})
})
