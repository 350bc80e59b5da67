package worker

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/surya021104/bug-tracker/internal/queue"
	"github.com/surya021104/bug-tracker/internal/sink"
)

// Processor fans a notification out to every configured sink. A failing sink
// fails the message so it is retried; sinks that already succeeded see it again.
type Processor struct {
	sinks []sink.Sink
}

func NewProcessor(sinks ...sink.Sink) *Processor {
	return &Processor{sinks: sinks}
}

func (p *Processor) Process(ctx context.Context, msg queue.Message) error {
	if len(p.sinks) == 0 {
		slog.InfoContext(ctx, "notification received, no sinks configured",
			"kind", msg.Notification.Kind)
		return nil
	}

	var g errgroup.Group
	for _, s := range p.sinks {
		g.Go(func() error {
			if err := s.Deliver(ctx, msg.Notification); err != nil {
				return fmt.Errorf("%s sink: %w", s.Name(), err)
			}
			slog.DebugContext(ctx, "notification delivered", "sink", s.Name())
			return nil
		})
	}
	return g.Wait()
}
