package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/surya021104/bug-tracker/internal/analyzer"
	"github.com/surya021104/bug-tracker/internal/model"
	"github.com/surya021104/bug-tracker/internal/queue"
	"github.com/surya021104/bug-tracker/internal/store"
)

const reconcileConcurrency = 4

// DuplicateGroup is one set of issues judged to be the same bug.
type DuplicateGroup struct {
	Key     string   `json:"key" yaml:"key"`
	Keeper  string   `json:"keeper" yaml:"keeper"`
	Removed []string `json:"removed" yaml:"removed"`
	Folded  int64    `json:"foldedOccurrences" yaml:"foldedOccurrences"`
}

type ReconcileReport struct {
	Scanned int              `json:"scanned" yaml:"scanned"`
	Removed int              `json:"removed" yaml:"removed"`
	DryRun  bool             `json:"dryRun" yaml:"dryRun"`
	Groups  []DuplicateGroup `json:"groups" yaml:"groups"`
	// Modules counts surviving issues per module and digit-normalized title.
	Modules map[string]map[string]int `json:"modules" yaml:"modules"`
}

type ReconcileService interface {
	Run(ctx context.Context, dryRun bool) (*ReconcileReport, error)
}

type reconcileService struct {
	stores   store.Provider
	txRunner TxRunner
	producer queue.Producer
}

func NewReconcileService(stores store.Provider, txRunner TxRunner, producer queue.Producer) ReconcileService {
	return &reconcileService{stores: stores, txRunner: txRunner, producer: producer}
}

func (s *reconcileService) Run(ctx context.Context, dryRun bool) (*ReconcileReport, error) {
	issues, err := s.stores.Issues().List(ctx, store.IssueFilter{})
	if err != nil {
		return nil, fmt.Errorf("listing issues: %w", err)
	}

	groups := groupDuplicates(issues)
	report := &ReconcileReport{Scanned: len(issues), DryRun: dryRun}

	removed := make(map[string]bool)
	for _, g := range groups {
		dg := DuplicateGroup{Key: g.key, Keeper: g.issues[0].BugID}
		for _, dup := range g.issues[1:] {
			dg.Removed = append(dg.Removed, dup.BugID)
			dg.Folded += dup.Occurrences
			removed[dup.BugID] = true
		}
		report.Removed += len(dg.Removed)
		report.Groups = append(report.Groups, dg)
	}

	if !dryRun && len(groups) > 0 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(reconcileConcurrency)
		for _, group := range groups {
			g.Go(func() error {
				return s.fold(gctx, group.issues[0], group.issues[1:])
			})
		}
		if err := g.Wait(); err != nil {
			return report, err
		}
	}

	report.Modules = moduleSummary(issues, removed)

	slog.InfoContext(ctx, "reconciliation complete",
		"scanned", report.Scanned,
		"groups", len(report.Groups),
		"removed", report.Removed,
		"dry_run", dryRun)
	return report, nil
}

// fold moves the duplicates' counters onto keeper, then deletes them. Both
// steps share one transaction; the keeper is written first so a failure never
// drops counts.
func (s *reconcileService) fold(ctx context.Context, keeper model.Issue, dups []model.Issue) error {
	occ := model.Occurrence{At: keeper.LastOccurrence}
	for _, d := range dups {
		occ.Count += d.Occurrences
		occ.Users += d.AffectedUsers
		occ.Sessions += d.AffectedSessions
		if d.LastOccurrence.After(occ.At) {
			occ.At = d.LastOccurrence
		}
	}

	var (
		updated *model.Issue
		deleted = make(map[string]*model.Issue, len(dups))
	)
	err := s.txRunner.WithTx(ctx, func(stores store.Provider) error {
		var err error
		updated, err = stores.Issues().RecordOccurrence(ctx, keeper.BugID, occ)
		if err != nil {
			return fmt.Errorf("folding into %s: %w", keeper.BugID, err)
		}
		for _, d := range dups {
			snapshot, err := stores.Issues().Delete(ctx, d.BugID)
			if err != nil {
				return fmt.Errorf("deleting duplicate %s: %w", d.BugID, err)
			}
			deleted[d.BugID] = snapshot
		}
		return nil
	})
	if err != nil {
		return err
	}

	publish(ctx, s.producer, model.NotificationBugUpdated, keeper.BugID, updated)
	for _, d := range dups {
		publish(ctx, s.producer, model.NotificationIssueDeleted, d.BugID, deleted[d.BugID])
	}
	return nil
}

type duplicateGroup struct {
	key    string
	issues []model.Issue // oldest first
}

// groupDuplicates keys issues by signature, else by loose title, and returns
// the groups with more than one member ordered by key.
func groupDuplicates(issues []model.Issue) []duplicateGroup {
	byKey := make(map[string][]model.Issue)
	for _, issue := range issues {
		key := issue.Signature
		if key == "" {
			key = analyzer.LooseTitleKey(issue.Title)
		}
		byKey[key] = append(byKey[key], issue)
	}

	var out []duplicateGroup
	for key, members := range byKey {
		if len(members) < 2 {
			continue
		}
		sort.SliceStable(members, func(a, b int) bool { return members[a].CreatedAt.Before(members[b].CreatedAt) })
		out = append(out, duplicateGroup{key: key, issues: members})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].key < out[b].key })
	return out
}

var digitsRe = regexp.MustCompile(`\d+`)

func moduleSummary(issues []model.Issue, removed map[string]bool) map[string]map[string]int {
	out := make(map[string]map[string]int)
	for _, issue := range issues {
		if removed[issue.BugID] {
			continue
		}
		mod := issue.Module
		if mod == "" {
			mod = "General"
		}
		title := issue.Title
		if title == "" {
			title = "Untitled"
		}
		title = strings.TrimSpace(digitsRe.ReplaceAllString(title, "N"))

		if out[mod] == nil {
			out[mod] = make(map[string]int)
		}
		out[mod][title]++
	}
	return out
}
