package domain

import "context"

// Repository is the remote product store behind the admin views.
type Repository interface {
	List(ctx context.Context, q ListQuery) (PagedResult, error)
	Get(ctx context.Context, id int64) (Record, error)
	Create(ctx context.Context, record Record) (Record, error)
	Update(ctx context.Context, id int64, record Record) (Record, error)
}
