package service

import (
	"time"

	"github.com/surya021104/bug-tracker/internal/enrich"
	"github.com/surya021104/bug-tracker/internal/queue"
	"github.com/surya021104/bug-tracker/internal/store"
)

type Services struct {
	backend  store.Backend
	producer queue.Producer
	composer *enrich.Composer
	now      func() time.Time
}

func NewServices(backend store.Backend, producer queue.Producer, composer *enrich.Composer) *Services {
	if composer == nil {
		composer = enrich.NewComposer(nil, 0)
	}
	return &Services{
		backend:  backend,
		producer: producer,
		composer: composer,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the wall clock, for tests.
func (s *Services) WithClock(now func() time.Time) *Services {
	s.now = now
	return s
}

func (s *Services) APIKeys() APIKeyService {
	return NewAPIKeyService(s.backend, s.now)
}

func (s *Services) Ingest() IngestService {
	return NewIngestService(s.backend, s.APIKeys(), s.composer, s.producer, s.now)
}

func (s *Services) Issues() IssueService {
	return NewIssueService(s.backend, s.backend, s.producer, s.now)
}

func (s *Services) Reports() ReportService {
	return NewReportService(s.composer)
}

func (s *Services) Reconcile() ReconcileService {
	return NewReconcileService(s.backend, s.backend, s.producer)
}
