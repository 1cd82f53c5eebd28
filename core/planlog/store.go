package planlog

import (
	"time"

	"github.com/gridloom/bessarb/core/model"
)

// Record is one optimization run as persisted to the plan log.
type Record struct {
	Timestamp  time.Time            `json:"timestamp"`
	Trigger    string               `json:"trigger"`
	Success    bool                 `json:"success"`
	Error      string               `json:"error,omitempty"`
	NetBenefit float64              `json:"net_benefit"`
	CyclesUsed float64              `json:"cycles_used"`
	Intervals  []model.PlanInterval `json:"intervals,omitempty"`
}

// Query filters plan log records by time range. Zero bounds are open.
type Query struct {
	Start time.Time
	End   time.Time
}

// Matches reports whether r falls inside the query range.
func (q Query) Matches(r Record) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	return true
}

// Store persists optimization run records.
type Store interface {
	Append(r Record) error
	Query(q Query) ([]Record, error)
	Close() error
}

// NopStore discards all records.
type NopStore struct{}

func (NopStore) Append(Record) error           { return nil }
func (NopStore) Query(Query) ([]Record, error) { return nil, nil }
func (NopStore) Close() error                  { return nil }
