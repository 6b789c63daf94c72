package candidates

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"resume-ingest/internal/shared/metrics"
	"resume-ingest/internal/shared/telemetry"
)

// Service contains business logic for candidate records.
type Service struct {
	Repo Repo
	// Now defaults to time.Now. Timestamps are stored in local time.
	Now func() time.Time

	// Serializes inserts so two records sharing an email cannot race past
	// the unique check.
	mu sync.Mutex
}

// NewService constructs a Service.
func NewService(repo Repo) *Service {
	return &Service{Repo: repo, Now: time.Now}
}

// Insert stores records with one shared timestamp. Records that collide on
// emails or mobile are skipped. It returns how many were stored and how many
// were offered.
func (s *Service) Insert(ctx context.Context, records []Record) (inserted, total int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	createdAt := now().Format(CreatedAtLayout)

	for _, rec := range records {
		total++
		stored := StoredRecord{
			ID:        uuid.NewString(),
			Record:    rec,
			CreatedAt: createdAt,
		}
		if err := s.Repo.Insert(ctx, stored); err != nil {
			if errors.Is(err, ErrConflict) {
				telemetry.Info("records.duplicate_skipped", map[string]any{
					"name": rec.Name,
				})
				metrics.AddRecordsDuplicate(1)
				continue
			}
			return inserted, total, fmt.Errorf("insert record %d: %w", total, err)
		}
		inserted++
		metrics.AddRecordsInserted(1)
	}
	return inserted, total, nil
}

// Search returns records matching every set filter. An empty filter set
// returns the whole table; callers that must refuse that check IsEmpty first.
func (s *Service) Search(ctx context.Context, f Filters) ([]StoredRecord, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return s.Repo.Search(ctx, f.Normalized())
}
