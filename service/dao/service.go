package dao

import "context"

// Service abstracts keyed storage of entities so that components such as the
// pending-approval registry do not depend on a concrete store.
type Service[K comparable, T any] interface {
	Save(ctx context.Context, t *T) error

	Load(ctx context.Context, id K) (*T, error)

	Delete(ctx context.Context, id K) error

	List(ctx context.Context) ([]*T, error)
}
