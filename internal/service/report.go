package service

import (
	"context"
	"errors"
	"strings"

	"github.com/surya021104/bug-tracker/internal/enrich"
	"github.com/surya021104/bug-tracker/internal/model"
)

type ReportService interface {
	// Generate turns a plain-language description into a structured report.
	// Unlike ingestion it surfaces generator failures.
	Generate(ctx context.Context, description string) (*model.BugReport, error)
}

type reportService struct {
	composer *enrich.Composer
}

func NewReportService(composer *enrich.Composer) ReportService {
	return &reportService{composer: composer}
}

func (s *reportService) Generate(ctx context.Context, description string) (*model.BugReport, error) {
	if strings.TrimSpace(description) == "" {
		return nil, ErrDescriptionNeeded
	}
	report, err := s.composer.Report(ctx, description)
	if errors.Is(err, enrich.ErrDescriptionNeeded) {
		return nil, ErrDescriptionNeeded
	}
	return report, err
}
