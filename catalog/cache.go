package catalog

import "context"

// Cache stores serialized ListItems results in generations. Get reports the
// current generation even on a miss; Set writes into the generation the
// caller read, so a result computed before an Invalidate lands in a
// generation nobody reads anymore.
type Cache interface {
	Get(ctx context.Context, key string) (value []byte, gen int64, hit bool, err error)
	Set(ctx context.Context, gen int64, key string, value []byte) error
	Invalidate(ctx context.Context) error
}

// NopCache never hits.
type NopCache struct{}

func (NopCache) Get(context.Context, string) ([]byte, int64, bool, error) { return nil, 0, false, nil }
func (NopCache) Set(context.Context, int64, string, []byte) error          { return nil }
func (NopCache) Invalidate(context.Context) error                         { return nil }
