package candidates

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo with the same unique
// constraints as the SQL table.
type MemoryRepo struct {
	mu   sync.RWMutex
	rows []StoredRecord
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{}
}

// Insert stores a record unless its id, emails or mobile is taken.
func (r *MemoryRepo) Insert(ctx context.Context, rec StoredRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.rows {
		if existing.ID == rec.ID || existing.Emails == rec.Emails || existing.Mobile == rec.Mobile {
			return ErrConflict
		}
	}
	r.rows = append(r.rows, rec)
	return nil
}

// Search filters rows the way SQLRepo does, with case-insensitive contains matches.
func (r *MemoryRepo) Search(ctx context.Context, f Filters) ([]StoredRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f = f.Normalized()

	r.mu.RLock()
	out := make([]StoredRecord, 0, len(r.rows))
	for _, rec := range r.rows {
		if matches(rec, f) {
			out = append(out, rec)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func matches(rec StoredRecord, f Filters) bool {
	if f.CreatedAt != "" && (len(rec.CreatedAt) < 10 || rec.CreatedAt[:10] != f.CreatedAt) {
		return false
	}
	return containsFold(rec.Graduation, f.Graduation) &&
		containsFold(rec.TotalYearsOfExperience, f.Experience) &&
		containsFold(rec.Mobile, f.Mobile)
}

func containsFold(s, sub string) bool {
	if sub == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
