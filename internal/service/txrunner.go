package service

import (
	"context"

	"github.com/surya021104/bug-tracker/internal/store"
)

// TxRunner runs functions within a transaction and provides stores bound to that transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(stores store.Provider) error) error
}
