package candidates

import "context"

// Repo persists candidate records.
type Repo interface {
	// Insert stores one record and returns ErrConflict on a unique violation.
	Insert(ctx context.Context, rec StoredRecord) error
	// Search returns matching records ordered by creation time. Empty filters match all rows.
	Search(ctx context.Context, f Filters) ([]StoredRecord, error)
}
