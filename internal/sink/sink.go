// Package sink delivers issue notifications to systems outside the tracker.
package sink

import (
	"context"

	"github.com/surya021104/bug-tracker/internal/model"
)

// Sink receives every notification. Kinds a sink does not handle are a no-op.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, n model.Notification) error
}
