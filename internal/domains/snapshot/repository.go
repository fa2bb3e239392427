package snapshot

import "context"

// Repository is the append-only snapshot metadata log
type Repository interface {
	// Record appends one metadata row. Rows are never updated.
	Record(ctx context.Context, meta *Metadata) error

	// Latest returns the most recently created row, or (nil, nil)
	// when nothing has ever been published.
	Latest(ctx context.Context) (*Metadata, error)
}
