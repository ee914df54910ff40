// internal/wizard/finalize.go
package wizard

import (
	"context"
	"time"
)

// Finalizer moves a persisted draft to its terminal status.
type Finalizer struct {
	store      RecordStore
	table      string
	totalSteps int
	terminal   Status
	now        func() time.Time
}

func NewFinalizer(store RecordStore, totalSteps int) *Finalizer {
	return &Finalizer{
		store:      store,
		table:      ApplicationsTable,
		totalSteps: totalSteps,
		terminal:   StatusCompleted,
		now:        time.Now,
	}
}

func (f *Finalizer) Submit(ctx context.Context, id string) error {
	if id == "" {
		return &SubmissionError{Err: ErrNoDraftPersisted}
	}

	_, err := f.store.Update(ctx, f.table, id, Record{
		"status":       string(f.terminal),
		"current_step": f.totalSteps,
		"submitted_at": f.now().UTC(),
	})
	if err != nil {
		return &SubmissionError{DraftID: id, Err: err}
	}
	return nil
}
