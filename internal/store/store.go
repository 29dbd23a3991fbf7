// Package store persists completed screening runs. The engine itself never
// touches storage; commands save a run after the caller has its result.
package store

import (
	"context"
	"time"

	"github.com/sells-group/envscreen/internal/screening"
)

// RunSummary is the listing row for a stored run.
type RunSummary struct {
	ID        string    `json:"id"`
	Lon       float64   `json:"lon"`
	Lat       float64   `json:"lat"`
	Domains   int       `json:"domains"`
	CreatedAt time.Time `json:"created_at"`
}

// Store defines screening-run persistence.
type Store interface {
	SaveRun(ctx context.Context, run *screening.Run) error
	GetRun(ctx context.Context, id string) (*screening.Run, error)
	ListRuns(ctx context.Context, limit, offset int) ([]RunSummary, error)

	Migrate(ctx context.Context) error
	Close() error
}
