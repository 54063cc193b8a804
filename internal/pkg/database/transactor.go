package database

import "context"

// Transactor runs fn inside a transaction carried by the context it passes
// to fn. Repositories pick the transaction up from that context. A call made
// with a context that already carries a transaction joins it.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
