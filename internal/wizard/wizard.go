// internal/wizard/wizard.go
package wizard

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/sirupsen/logrus"
)

// SessionContext identifies the user driving a wizard. It is passed in at
// construction; the wizard never looks up the current user on its own.
type SessionContext struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	AccountType string `json:"account_type"`
}

// Progress is the externally visible state of a wizard.
type Progress struct {
	DraftID         string `json:"draft_id,omitempty"`
	Flavor          string `json:"flavor"`
	CurrentStep     int    `json:"current_step"`
	TotalSteps      int    `json:"total_steps"`
	StepKey         string `json:"step_key"`
	CompletedSteps  []int  `json:"completed_steps"`
	ProgressPercent int    `json:"progress_percent"`
	IsFinalStep     bool   `json:"is_final_step"`
	Status          Status `json:"status"`
	Warning         string `json:"warning,omitempty"`
	PersistErr      error  `json:"-"`
}

type options struct {
	productID              string
	continueOnPersistError bool
	autoSave               bool
	draft                  *Draft
	log                    logrus.FieldLogger
}

type Option func(*options)

// ForProduct associates the draft with the product it applies to.
func ForProduct(productID string) Option {
	return func(o *options) { o.productID = productID }
}

func ContinueOnPersistError(continueOnError bool) Option {
	return func(o *options) { o.continueOnPersistError = continueOnError }
}

// AutoSaveOnEdit persists field edits once the draft has an identity.
func AutoSaveOnEdit(enabled bool) Option {
	return func(o *options) { o.autoSave = enabled }
}

// FromDraft resumes a previously persisted draft.
func FromDraft(d Draft) Option {
	return func(o *options) { o.draft = &d }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(o *options) { o.log = log }
}

// Wizard drives one draft through the steps of a flavor.
type Wizard struct {
	mu        sync.Mutex
	flavor    Flavor
	fields    *Accumulator
	machine   *StepMachine
	adapter   *DraftAdapter
	finalizer *Finalizer
	autoSave  bool
	status    Status
	log       logrus.FieldLogger
}

func New(flavor Flavor, session SessionContext, store RecordStore, opts ...Option) (*Wizard, error) {
	if session.UserID == "" {
		return nil, errors.New("wizard requires a session user")
	}

	o := options{continueOnPersistError: true, log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(&o)
	}

	machine, err := NewStepMachine(flavor.TotalSteps())
	if err != nil {
		return nil, err
	}

	draft := Draft{
		ApplicantID: session.UserID,
		ProductID:   o.productID,
		Flavor:      flavor.Name,
		Status:      StatusDraft,
	}
	if o.draft != nil {
		draft = *o.draft
		if draft.ApplicantID != session.UserID {
			return nil, fmt.Errorf("draft %s belongs to another user", draft.ID)
		}
		if draft.Status != "" && draft.Status != StatusDraft {
			return nil, ErrDraftSubmitted
		}
		draft.Status = StatusDraft
		if err := machine.Restore(resumeStep(draft, machine.Total()), draft.CompletedSteps); err != nil {
			return nil, fmt.Errorf("resume draft %s: %w", draft.ID, err)
		}
	}

	log := o.log.WithFields(logrus.Fields{"flavor": flavor.Name, "user_id": session.UserID})
	adapterOpts := []AdapterOption{
		WithContinueOnPersistError(o.continueOnPersistError),
		WithAdapterLogger(log),
	}
	if draft.ID != "" {
		adapterOpts = append(adapterOpts, WithIdentity(draft.ID))
	}

	w := &Wizard{
		flavor:    flavor,
		fields:    NewAccumulator(draft),
		machine:   machine,
		adapter:   NewDraftAdapter(store, adapterOpts...),
		finalizer: NewFinalizer(store, flavor.TotalSteps()),
		autoSave:  o.autoSave,
		status:    StatusDraft,
		log:       log,
	}
	w.syncProgress()
	return w, nil
}

// resumeStep picks the step to reopen: the one after the last persisted
// step when that step was completed.
func resumeStep(d Draft, total int) int {
	step := d.CurrentStep
	if step < 1 {
		return 1
	}
	if step > total {
		return total
	}
	if slices.Contains(d.CompletedSteps, step) && step < total {
		return step + 1
	}
	return step
}

func (w *Wizard) Flavor() Flavor { return w.flavor }

// Next validates the current step, saves the snapshot and advances.
func (w *Wizard) Next(ctx context.Context) (Progress, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.status != StatusDraft {
		return w.progress(), ErrDraftSubmitted
	}
	if w.machine.IsFinalStep() {
		return w.progress(), ErrAtFinalStep
	}

	step := w.machine.Current()
	snapshot := w.fields.Snapshot()
	result := w.flavor.Validate(step, snapshot)
	if !result.OK() {
		return w.progress(), w.validationError(step, result)
	}

	_, saveErr := w.adapter.Save(ctx, snapshot, step, w.machine.CompletedSteps())
	if saveErr != nil && !w.adapter.ContinueOnPersistError() {
		return w.progress(), saveErr
	}

	if _, err := w.machine.Advance(func() ValidationResult { return result }); err != nil {
		return w.progress(), err
	}
	w.syncProgress()

	p := w.progress()
	if saveErr != nil {
		w.log.WithError(saveErr).WithField("step", step).Warn("Draft not saved, continuing")
		p.Warning = "your progress could not be saved"
		p.PersistErr = saveErr
	}
	return p, nil
}

func (w *Wizard) Previous() Progress {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.status == StatusDraft {
		w.machine.Retreat()
		w.syncProgress()
	}
	return w.progress()
}

func (w *Wizard) Set(ctx context.Context, f Field, v Value) error {
	return w.edit(ctx, func() error { return w.fields.Set(f, v) })
}

func (w *Wizard) Toggle(ctx context.Context, f Field, token string) error {
	return w.edit(ctx, func() error { return w.fields.ToggleListMember(f, token) })
}

// SetMany applies several edits and auto-saves once.
func (w *Wizard) SetMany(ctx context.Context, values map[Field]Value) error {
	return w.edit(ctx, func() error {
		for f, v := range values {
			if err := w.fields.Set(f, v); err != nil {
				return err
			}
		}
		return nil
	})
}

func (w *Wizard) edit(ctx context.Context, apply func() error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.status != StatusDraft {
		return ErrDraftSubmitted
	}
	if err := apply(); err != nil {
		return err
	}
	if !w.autoSave {
		return nil
	}

	if _, err := w.adapter.SaveFields(ctx, w.fields.Snapshot()); err != nil && !w.adapter.ContinueOnPersistError() {
		return err
	}
	return nil
}

// Submit saves the final step and finalizes the draft. Only valid on the
// final step; fails with ErrNoDraftPersisted when no save has reached the
// store, including this one.
func (w *Wizard) Submit(ctx context.Context) (Progress, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.status != StatusDraft {
		return w.progress(), ErrDraftSubmitted
	}
	if !w.machine.IsFinalStep() {
		return w.progress(), ErrNotFinalStep
	}

	step := w.machine.Current()
	snapshot := w.fields.Snapshot()
	result := w.flavor.Validate(step, snapshot)
	if !result.OK() {
		return w.progress(), w.validationError(step, result)
	}

	// The final save may be the first one to reach the store; the identity
	// is read only after it.
	if _, err := w.adapter.Save(ctx, snapshot, step, w.machine.CompletedSteps()); err != nil {
		if !w.adapter.ContinueOnPersistError() {
			return w.progress(), err
		}
		w.log.WithError(err).WithField("draft_id", w.adapter.ID()).Warn("Final step not saved, submitting anyway")
	}

	id := w.adapter.ID()

	if err := w.finalizer.Submit(ctx, id); err != nil {
		return w.progress(), err
	}

	w.machine.Complete()
	w.status = StatusCompleted
	w.syncProgress()
	w.log.WithField("draft_id", id).Info("Application submitted")
	return w.progress(), nil
}

func (w *Wizard) Progress() Progress {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.progress()
}

func (w *Wizard) Snapshot() Draft {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fields.Snapshot()
}

func (w *Wizard) validationError(step int, result ValidationResult) error {
	key := ""
	if def, ok := w.flavor.Step(step); ok {
		key = def.Key
	}
	return &ValidationError{Step: step, StepKey: key, Missing: slices.Clone(result.Missing)}
}

func (w *Wizard) syncProgress() {
	w.fields.setProgress(w.adapter.ID(), w.machine.Current(), w.machine.CompletedSteps(), w.status)
}

func (w *Wizard) progress() Progress {
	key := ""
	if def, ok := w.flavor.Step(w.machine.Current()); ok {
		key = def.Key
	}
	return Progress{
		DraftID:         w.adapter.ID(),
		Flavor:          w.flavor.Name,
		CurrentStep:     w.machine.Current(),
		TotalSteps:      w.machine.Total(),
		StepKey:         key,
		CompletedSteps:  w.machine.CompletedSteps(),
		ProgressPercent: w.machine.ProgressPercent(),
		IsFinalStep:     w.machine.IsFinalStep(),
		Status:          w.status,
	}
}
