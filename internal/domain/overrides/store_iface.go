package overrides

import "context"

type StoreAPI interface {
	ListOverrides(ctx context.Context, filter Filter) ([]Override, error)
	GetOverride(ctx context.Context, key Key) (Override, error)
	UpsertOverride(ctx context.Context, o Override) (Override, error)
	DeleteOverride(ctx context.Context, key Key) (bool, error)
}
