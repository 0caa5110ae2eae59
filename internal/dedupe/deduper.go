package dedupe

import "context"

// Deduplicator guards event processing against redelivery. IsDuplicate
// only checks; MarkSeen records the ID once processing succeeded, so a
// failed attempt stays eligible for retry.
type Deduplicator interface {
	IsDuplicate(ctx context.Context, id string) (bool, error)
	MarkSeen(ctx context.Context, id string) error
	Health(ctx context.Context) error
}
