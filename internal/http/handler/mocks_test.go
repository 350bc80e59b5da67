package handler_test

import (
	"context"

	"github.com/surya021104/bug-tracker/internal/model"
	"github.com/surya021104/bug-tracker/internal/service"
	"github.com/surya021104/bug-tracker/internal/store"
)

type mockIngestService struct {
	ingestFn func(ctx context.Context, req service.IngestRequest) (*service.IngestResult, error)
}

func (m *mockIngestService) Ingest(ctx context.Context, req service.IngestRequest) (*service.IngestResult, error) {
	if m.ingestFn != nil {
		return m.ingestFn(ctx, req)
	}
	return &service.IngestResult{Status: service.IngestIgnored}, nil
}

type mockIssueService struct {
	createFn       func(ctx context.Context, params service.ManualIssue) (*service.CreateIssueResult, error)
	updateStatusFn func(ctx context.Context, bugID string, status model.Status, actor *model.Actor) (*model.Issue, error)
	getFn          func(ctx context.Context, bugID string) (*model.Issue, error)
	listFn         func(ctx context.Context, filter store.IssueFilter) ([]model.Issue, error)
	deleteFn       func(ctx context.Context, bugID string) (*model.Issue, error)
}

func (m *mockIssueService) Create(ctx context.Context, params service.ManualIssue) (*service.CreateIssueResult, error) {
	if m.createFn != nil {
		return m.createFn(ctx, params)
	}
	return nil, nil
}

func (m *mockIssueService) UpdateStatus(ctx context.Context, bugID string, status model.Status, actor *model.Actor) (*model.Issue, error) {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, bugID, status, actor)
	}
	return nil, nil
}

func (m *mockIssueService) Get(ctx context.Context, bugID string) (*model.Issue, error) {
	if m.getFn != nil {
		return m.getFn(ctx, bugID)
	}
	return nil, service.ErrIssueNotFound
}

func (m *mockIssueService) List(ctx context.Context, filter store.IssueFilter) ([]model.Issue, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter)
	}
	return []model.Issue{}, nil
}

func (m *mockIssueService) Delete(ctx context.Context, bugID string) (*model.Issue, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, bugID)
	}
	return nil, nil
}

type mockAPIKeyService struct {
	generateFn func(ctx context.Context, params service.GenerateKeyParams) (*service.GeneratedKey, error)
	listFn     func(ctx context.Context) ([]service.KeyUsage, error)
	toggleFn   func(ctx context.Context, keyID int64) (*model.APIKey, error)
	deleteFn   func(ctx context.Context, keyID int64) error
}

func (m *mockAPIKeyService) Admit(context.Context, string) (model.AppMeta, error) {
	return service.DefaultTenant, nil
}

func (m *mockAPIKeyService) Generate(ctx context.Context, params service.GenerateKeyParams) (*service.GeneratedKey, error) {
	if m.generateFn != nil {
		return m.generateFn(ctx, params)
	}
	return nil, nil
}

func (m *mockAPIKeyService) List(ctx context.Context) ([]service.KeyUsage, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return []service.KeyUsage{}, nil
}

func (m *mockAPIKeyService) Toggle(ctx context.Context, keyID int64) (*model.APIKey, error) {
	if m.toggleFn != nil {
		return m.toggleFn(ctx, keyID)
	}
	return nil, nil
}

func (m *mockAPIKeyService) Delete(ctx context.Context, keyID int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, keyID)
	}
	return nil
}

type mockReportService struct {
	generateFn func(ctx context.Context, description string) (*model.BugReport, error)
}

func (m *mockReportService) Generate(ctx context.Context, description string) (*model.BugReport, error) {
	if m.generateFn != nil {
		return m.generateFn(ctx, description)
	}
	return nil, nil
}
