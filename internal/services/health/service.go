package health

import (
	"context"
	"database/sql"
	"time"
)

const pingTimeout = 2 * time.Second

// Service encapsulates health-related checks.
type Service struct {
	DB *sql.DB
	// PipelineReady reports whether batch uploads are accepted.
	PipelineReady func() bool
}

// Status is the health payload.
type Status struct {
	OK       bool   `json:"ok"`
	Database string `json:"database"`
	Pipeline bool   `json:"pipeline"`
}

// NewService constructs a new health service.
func NewService(db *sql.DB, pipelineReady func() bool) *Service {
	return &Service{DB: db, PipelineReady: pipelineReady}
}

// Status pings the database when one is configured. A missing pipeline does
// not make the service unhealthy since search still works.
func (s *Service) Status(ctx context.Context) Status {
	st := Status{OK: true, Database: "memory"}
	if s == nil {
		return st
	}
	if s.DB != nil {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		if err := s.DB.PingContext(pingCtx); err != nil {
			st.OK = false
			st.Database = "unreachable"
		} else {
			st.Database = "ok"
		}
	}
	if s.PipelineReady != nil {
		st.Pipeline = s.PipelineReady()
	}
	return st
}
