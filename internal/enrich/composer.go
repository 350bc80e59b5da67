// Package enrich turns interpreted signals into full bug reports using the
// configured report generator, with a deterministic fallback.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/surya021104/bug-tracker/common/llm"
	"github.com/surya021104/bug-tracker/common/logger"
	"github.com/surya021104/bug-tracker/internal/model"
)

const (
	DefaultTimeout = 30 * time.Second

	LabelAutoGenerated = "AUTO_GENERATED"
	LabelAIFailed      = "AI_FAILED"
)

var (
	ErrNoGenerator       = errors.New("no report generator configured")
	ErrEmptyTitle        = errors.New("report generator returned an empty title")
	ErrDescriptionNeeded = errors.New("description is required")
)

const systemPrompt = "You are a senior QA engineer who creates professional bug reports. " +
	"Always respond with valid JSON only. Never leave fields empty."

const userPromptTemplate = `You are a senior QA engineer and bug analyst.

I will provide a plain language bug description.
Convert it into a complete, professional bug report.

User's description: %q

Rules:
- Do not leave any field empty
- Do not add assumptions unless logical
- Be concise, professional, and bug-tracker ready
- Priority must be one of: Blocker, Critical, High, Medium, Low
- Severity must be one of: Critical, High, Medium, Low
- Assignee must be one of: Frontend Dev, Backend Dev, Full Stack, QA, DevOps`

var bugReportSchema = llm.GenerateSchema[model.BugReport]()

// Composer produces enriched bug reports. A nil client always yields the
// fallback.
type Composer struct {
	client  llm.Client
	timeout time.Duration
}

func NewComposer(client llm.Client, timeout time.Duration) *Composer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Composer{client: client, timeout: timeout}
}

// Compose never fails: any generator problem is logged and answered with
// Fallback(sig).
func (c *Composer) Compose(ctx context.Context, sig model.InterpretedSignal, url string) model.EnrichedBug {
	span := logger.StartSpan(ctx, "enrich.compose")
	defer span.End()
	ctx = span.Context()

	report, err := c.Report(ctx, describeSignal(sig, url))
	if err != nil {
		span.RecordError(err)
		slog.WarnContext(ctx, "enrichment failed, using fallback report",
			"error", err,
			"signal_type", sig.Type)
		return Fallback(sig)
	}

	severity, ok := model.ParseSeverity(report.Severity)
	if !ok {
		severity = sig.Severity
	}
	priority, ok := model.ParsePriority(report.Priority)
	if !ok {
		priority = model.PriorityMedium
	}

	return model.EnrichedBug{
		Title:       strings.TrimSpace(report.Title),
		Description: report.Description,
		Module:      strings.TrimSpace(report.Module),
		Severity:    severity,
		Priority:    priority,
		Steps:       report.StepsToReproduce,
		Actual:      report.ActualOutput,
		Expected:    report.ExpectedOutput,
		Assignee:    report.Assignee,
		Labels:      []string{string(sig.Type), LabelAutoGenerated},
		AIAnalyzed:  true,
	}
}

// Report asks the generator for a structured report of a free-text
// description, bounded by the composer timeout.
func (c *Composer) Report(ctx context.Context, description string) (*model.BugReport, error) {
	if strings.TrimSpace(description) == "" {
		return nil, ErrDescriptionNeeded
	}
	if c.client == nil {
		return nil, ErrNoGenerator
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	var report model.BugReport
	resp, err := c.client.Chat(ctx, llm.Request{
		SystemPrompt: systemPrompt,
		UserPrompt:   fmt.Sprintf(userPromptTemplate, description),
		SchemaName:   "bug_report",
		Schema:       bugReportSchema,
		Temperature:  llm.Temp(0.3),
	}, &report)
	if err != nil {
		return nil, fmt.Errorf("generating bug report: %w", err)
	}
	if strings.TrimSpace(report.Title) == "" {
		return nil, ErrEmptyTitle
	}

	slog.DebugContext(ctx, "bug report generated",
		"model", c.client.Model(),
		"prompt_tokens", resp.PromptTokens,
		"completion_tokens", resp.CompletionTokens,
		"duration_ms", time.Since(start).Milliseconds())

	return &report, nil
}

// Fallback is the report used when the generator is unavailable.
func Fallback(sig model.InterpretedSignal) model.EnrichedBug {
	title := sig.Title
	if title == "" {
		title = "Unknown Error"
	}
	severity := sig.Severity
	if severity == "" {
		severity = model.SeverityMedium
	}
	actual := sig.Message
	if actual == "" {
		actual = "Error occurred"
	}
	return model.EnrichedBug{
		Title:                 title,
		Description:           sig.Message,
		Severity:              severity,
		Priority:              model.PriorityMedium,
		PriorityJustification: "Default priority due to AI failure",
		Labels:                []string{string(sig.Type), LabelAIFailed},
		Steps:                 "1. Open the application\n2. Replicate the reported action",
		Actual:                actual,
		Expected:              "Application should function without errors",
		Assignee:              "Backend Dev",
		Environment:           "Unknown - requires investigation",
		AIAnalyzed:            false,
	}
}

func describeSignal(sig model.InterpretedSignal, url string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Error Type: %s\n", sig.Type)
	fmt.Fprintf(&b, "Message: %s\n", sig.Message)
	fmt.Fprintf(&b, "URL: %s\n", url)
	fmt.Fprintf(&b, "Severity: %s", sig.Severity)
	if sig.Stack != "" {
		fmt.Fprintf(&b, "\nStack: %s", sig.Stack)
	}
	return b.String()
}
