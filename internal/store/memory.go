package store

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/surya021104/bug-tracker/internal/model"
)

// MemoryBackend keeps everything in process. It backs tests and acts as the
// degraded mode when the durable store is unreachable at startup. WithTx
// serializes transactional callers but does not roll back.
type MemoryBackend struct {
	mu     sync.RWMutex
	txMu   sync.Mutex
	issues []*model.Issue
	keys   []*model.APIKey
}

func NewMemory() *MemoryBackend {
	return &MemoryBackend{}
}

func (b *MemoryBackend) Issues() IssueStore   { return memoryIssues{b} }
func (b *MemoryBackend) APIKeys() APIKeyStore { return memoryKeys{b} }
func (b *MemoryBackend) Name() string         { return "memory" }
func (b *MemoryBackend) Close()               {}

func (b *MemoryBackend) WithTx(ctx context.Context, fn func(stores Provider) error) error {
	b.txMu.Lock()
	defer b.txMu.Unlock()
	return fn(b)
}

type memoryIssues struct{ b *MemoryBackend }

func (s memoryIssues) GetByBugID(_ context.Context, bugID string) (*model.Issue, error) {
	s.b.mu.RLock()
	defer s.b.mu.RUnlock()
	if i := s.b.issueIndex(bugID); i >= 0 {
		return cloneIssue(s.b.issues[i]), nil
	}
	return nil, ErrNotFound
}

func (s memoryIssues) GetByBugIDForUpdate(ctx context.Context, bugID string) (*model.Issue, error) {
	return s.GetByBugID(ctx, bugID)
}

func (s memoryIssues) FindBySignature(_ context.Context, signature string) (*model.Issue, error) {
	if signature == "" {
		return nil, ErrNotFound
	}
	return s.oldest(func(i *model.Issue) bool { return i.Signature == signature })
}

func (s memoryIssues) FindByNormalizedTitle(_ context.Context, normalizedTitle string) (*model.Issue, error) {
	return s.oldest(func(i *model.Issue) bool { return model.NormalizeTitle(i.Title) == normalizedTitle })
}

func (s memoryIssues) oldest(match func(*model.Issue) bool) (*model.Issue, error) {
	s.b.mu.RLock()
	defer s.b.mu.RUnlock()
	var found *model.Issue
	for _, i := range s.b.issues {
		if match(i) && (found == nil || i.CreatedAt.Before(found.CreatedAt)) {
			found = i
		}
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return cloneIssue(found), nil
}

func (s memoryIssues) Insert(_ context.Context, issue *model.Issue) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	if s.b.issueIndex(issue.BugID) >= 0 {
		return ErrConflict
	}
	s.b.issues = append(s.b.issues, cloneIssue(issue))
	return nil
}

func (s memoryIssues) RecordOccurrence(_ context.Context, bugID string, occ model.Occurrence) (*model.Issue, error) {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	i := s.b.issueIndex(bugID)
	if i < 0 {
		return nil, ErrNotFound
	}
	issue := s.b.issues[i]
	issue.Occurrences += occ.Count
	issue.AffectedUsers += occ.Users
	issue.AffectedSessions += occ.Sessions
	if occ.At.After(issue.LastOccurrence) {
		issue.LastOccurrence = occ.At
	}
	issue.UpdatedAt = occ.At
	return cloneIssue(issue), nil
}

func (s memoryIssues) UpdateStatus(_ context.Context, issue *model.Issue) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	i := s.b.issueIndex(issue.BugID)
	if i < 0 {
		return ErrNotFound
	}
	stored := s.b.issues[i]
	stored.Status = issue.Status
	stored.OpenedBy = issue.OpenedBy
	stored.OpenedAt = issue.OpenedAt
	stored.FixedBy = issue.FixedBy
	stored.FixedAt = issue.FixedAt
	stored.ClosedAt = issue.ClosedAt
	stored.ResolvedAt = issue.ResolvedAt
	stored.UpdatedAt = issue.UpdatedAt
	return nil
}

func (s memoryIssues) CountSince(_ context.Context, appID string, since time.Time) (int64, error) {
	s.b.mu.RLock()
	defer s.b.mu.RUnlock()
	var n int64
	for _, i := range s.b.issues {
		if i.AppID == appID && !i.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (s memoryIssues) List(_ context.Context, filter IssueFilter) ([]model.Issue, error) {
	s.b.mu.RLock()
	defer s.b.mu.RUnlock()
	out := make([]model.Issue, 0, len(s.b.issues))
	for _, i := range s.b.issues {
		if filter.AppID != "" && i.AppID != filter.AppID {
			continue
		}
		if filter.AppName != "" && i.AppName != filter.AppName {
			continue
		}
		if filter.Status != "" && i.Status != filter.Status {
			continue
		}
		out = append(out, *cloneIssue(i))
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s memoryIssues) Delete(_ context.Context, bugID string) (*model.Issue, error) {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	i := s.b.issueIndex(bugID)
	if i < 0 {
		return nil, ErrNotFound
	}
	deleted := s.b.issues[i]
	s.b.issues = slices.Delete(s.b.issues, i, i+1)
	return deleted, nil
}

// issueIndex requires b.mu.
func (b *MemoryBackend) issueIndex(bugID string) int {
	return slices.IndexFunc(b.issues, func(i *model.Issue) bool { return i.BugID == bugID })
}

func cloneIssue(i *model.Issue) *model.Issue {
	c := *i
	c.Labels = slices.Clone(i.Labels)
	c.OpenedAt = cloneTime(i.OpenedAt)
	c.FixedAt = cloneTime(i.FixedAt)
	c.ClosedAt = cloneTime(i.ClosedAt)
	c.ResolvedAt = cloneTime(i.ResolvedAt)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

type memoryKeys struct{ b *MemoryBackend }

func (s memoryKeys) find(match func(*model.APIKey) bool) (*model.APIKey, error) {
	s.b.mu.RLock()
	defer s.b.mu.RUnlock()
	for _, k := range s.b.keys {
		if match(k) {
			c := *k
			c.LastUsedAt = cloneTime(k.LastUsedAt)
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (s memoryKeys) GetByKey(_ context.Context, key string) (*model.APIKey, error) {
	return s.find(func(k *model.APIKey) bool { return k.Key == key })
}

func (s memoryKeys) GetByID(_ context.Context, id int64) (*model.APIKey, error) {
	return s.find(func(k *model.APIKey) bool { return k.ID == id })
}

func (s memoryKeys) GetByAppID(_ context.Context, appID string) (*model.APIKey, error) {
	return s.find(func(k *model.APIKey) bool { return k.AppID == appID && k.IsActive })
}

func (s memoryKeys) Create(_ context.Context, key *model.APIKey) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	for _, k := range s.b.keys {
		if k.Key == key.Key || k.ID == key.ID {
			return ErrConflict
		}
	}
	c := *key
	s.b.keys = append(s.b.keys, &c)
	return nil
}

func (s memoryKeys) List(_ context.Context) ([]model.APIKey, error) {
	s.b.mu.RLock()
	defer s.b.mu.RUnlock()
	out := make([]model.APIKey, 0, len(s.b.keys))
	for _, k := range s.b.keys {
		c := *k
		c.LastUsedAt = cloneTime(k.LastUsedAt)
		out = append(out, c)
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	return out, nil
}

func (s memoryKeys) update(id int64, fn func(*model.APIKey)) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	for _, k := range s.b.keys {
		if k.ID == id {
			fn(k)
			return nil
		}
	}
	return ErrNotFound
}

func (s memoryKeys) SetActive(_ context.Context, id int64, active bool) error {
	return s.update(id, func(k *model.APIKey) { k.IsActive = active })
}

func (s memoryKeys) Touch(_ context.Context, id int64, at time.Time) error {
	return s.update(id, func(k *model.APIKey) { k.LastUsedAt = &at })
}

func (s memoryKeys) Delete(_ context.Context, id int64) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	i := slices.IndexFunc(s.b.keys, func(k *model.APIKey) bool { return k.ID == id })
	if i < 0 {
		return ErrNotFound
	}
	s.b.keys = slices.Delete(s.b.keys, i, i+1)
	return nil
}
