// internal/wizard/persist.go
package wizard

import (
	"context"
	"reflect"
	"slices"
	"sync"

	"github.com/sirupsen/logrus"
)

// DraftAdapter maps wizard snapshots onto exactly one record: created on
// the first save, updated by identity afterwards.
type DraftAdapter struct {
	store                  RecordStore
	table                  string
	continueOnPersistError bool
	log                    logrus.FieldLogger

	// mu serializes saves, so overlapping first saves cannot both create
	// and the store observes saves in issue order.
	mu        sync.Mutex
	id        string
	lastSaved Record
}

type AdapterOption func(*DraftAdapter)

// WithContinueOnPersistError sets whether a failed save still lets the
// wizard advance.
func WithContinueOnPersistError(continueOnError bool) AdapterOption {
	return func(a *DraftAdapter) { a.continueOnPersistError = continueOnError }
}

func WithAdapterLogger(log logrus.FieldLogger) AdapterOption {
	return func(a *DraftAdapter) { a.log = log }
}

// WithIdentity binds the adapter to an already persisted draft.
func WithIdentity(id string) AdapterOption {
	return func(a *DraftAdapter) { a.id = id }
}

func NewDraftAdapter(store RecordStore, opts ...AdapterOption) *DraftAdapter {
	a := &DraftAdapter{
		store:                  store,
		table:                  ApplicationsTable,
		continueOnPersistError: true,
		log:                    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ID returns the persisted identity, empty until the first create succeeds.
func (a *DraftAdapter) ID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.id
}

func (a *DraftAdapter) ContinueOnPersistError() bool { return a.continueOnPersistError }

// Save creates or updates the draft record for step, recording
// completed ∪ {step} as the completed set.
func (a *DraftAdapter) Save(ctx context.Context, snapshot Draft, step int, completed []int) (string, error) {
	steps := slices.Clone(completed)
	if !slices.Contains(steps, step) {
		steps = append(steps, step)
	}
	slices.Sort(steps)

	record := draftRecord(snapshot, step, steps)

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.id == "" {
		return a.create(ctx, record)
	}
	return a.id, a.update(ctx, record)
}

// SaveFields writes only the field columns. It reports false when nothing
// has been persisted yet, since edits never create the record.
func (a *DraftAdapter) SaveFields(ctx context.Context, snapshot Draft) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.id == "" {
		return false, nil
	}

	record := fieldColumns(snapshot)
	if _, err := a.store.Update(ctx, a.table, a.id, record); err != nil {
		a.log.WithError(err).WithField("draft_id", a.id).Warn("Failed to auto-save draft fields")
		return false, &PersistenceError{Op: "update", DraftID: a.id, Err: err}
	}
	if a.lastSaved != nil {
		for k, v := range record {
			a.lastSaved[k] = v
		}
	}
	return true, nil
}

func (a *DraftAdapter) create(ctx context.Context, record Record) (string, error) {
	created, err := a.store.Create(ctx, a.table, record)
	if err != nil {
		a.log.WithError(err).WithField("table", a.table).Warn("Failed to create draft")
		return "", &PersistenceError{Op: "create", Err: err}
	}

	id := IDOf(created)
	if id == "" {
		return "", &PersistenceError{Op: "create", Err: ErrRecordNotFound}
	}

	a.id = id
	a.lastSaved = record
	a.log.WithFields(logrus.Fields{
		"draft_id": id,
		"step":     record["current_step"],
	}).Debug("Draft created")
	return id, nil
}

func (a *DraftAdapter) update(ctx context.Context, record Record) error {
	if reflect.DeepEqual(a.lastSaved, record) {
		return nil
	}

	if _, err := a.store.Update(ctx, a.table, a.id, record); err != nil {
		a.log.WithError(err).WithField("draft_id", a.id).Warn("Failed to update draft")
		return &PersistenceError{Op: "update", DraftID: a.id, Err: err}
	}

	a.lastSaved = record
	return nil
}
