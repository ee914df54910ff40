// internal/services/wizard_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/partnerlink/partnerlink-backend/internal/config"
	"github.com/partnerlink/partnerlink-backend/internal/models"
	"github.com/partnerlink/partnerlink-backend/internal/utils"
	"github.com/partnerlink/partnerlink-backend/internal/wizard"
)

// ProductFinder resolves the product a partner application targets.
type ProductFinder interface {
	FindActive(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// DraftLoader reads a persisted draft back for resuming.
type DraftLoader interface {
	LoadDraft(ctx context.Context, id, applicantID uuid.UUID) (wizard.Draft, error)
}

// SubmissionListener runs the side effects of a submitted application.
type SubmissionListener interface {
	Submitted(ctx context.Context, applicationID uuid.UUID) error
}

type StartWizardRequest struct {
	Flavor    string     `json:"flavor" validate:"required"`
	ProductID *uuid.UUID `json:"product_id,omitempty"`
}

// WizardState is what clients render for a live session.
type WizardState struct {
	SessionID uuid.UUID        `json:"session_id"`
	Title     string           `json:"title"`
	Progress  wizard.Progress  `json:"progress"`
	Step      wizard.StepDef   `json:"step"`
	Steps     []wizard.StepDef `json:"steps"`
	Draft     wizard.Draft     `json:"draft"`
	Resumed   bool             `json:"resumed"`
}

type wizardSession struct {
	id       uuid.UUID
	owner    string
	wizard   *wizard.Wizard
	resumed  bool
	lastUsed time.Time
}

// WizardService holds the live wizard sessions of all users. Sessions are
// in memory only; everything worth keeping is in the draft record, so an
// evicted or lost session is recovered with Resume.
type WizardService struct {
	store    wizard.RecordStore
	products ProductFinder
	drafts   DraftLoader
	listener SubmissionListener
	config   config.WizardConfig
	log      logrus.FieldLogger
	now      func() time.Time

	mu       sync.RWMutex
	sessions map[uuid.UUID]*wizardSession
}

func NewWizardService(store wizard.RecordStore, products ProductFinder, drafts DraftLoader, listener SubmissionListener, cfg config.WizardConfig) *WizardService {
	return &WizardService{
		store:    store,
		products: products,
		drafts:   drafts,
		listener: listener,
		config:   cfg,
		log:      logrus.WithField("component", "wizard"),
		now:      time.Now,
		sessions: make(map[uuid.UUID]*wizardSession),
	}
}

// Flavors lists the wizards a client can start.
func (s *WizardService) Flavors() []wizard.Flavor {
	return wizard.Flavors()
}

// Start opens a wizard. An open draft of the same flavor and product is
// resumed instead of starting a second one.
func (s *WizardService) Start(ctx context.Context, session wizard.SessionContext, req *StartWizardRequest) (*WizardState, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	applicantID, err := uuid.Parse(session.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: session user id", ErrInvalidInput)
	}

	flavor, err := wizard.LookupFlavor(req.Flavor)
	if err != nil {
		return nil, err
	}

	productID := ""
	switch {
	case flavor.RequiresTarget && req.ProductID == nil:
		return nil, fmt.Errorf("%w: %s requires a product", ErrInvalidInput, flavor.Name)
	case !flavor.RequiresTarget && req.ProductID != nil:
		return nil, fmt.Errorf("%w: %s does not take a product", ErrInvalidInput, flavor.Name)
	case req.ProductID != nil:
		product, err := s.products.FindActive(ctx, *req.ProductID)
		if err != nil {
			return nil, err
		}
		if product.VendorID == applicantID {
			return nil, fmt.Errorf("vendors cannot apply to their own product: %w", ErrForbidden)
		}
		productID = product.ID.String()
		if err := s.ensureNotApplied(ctx, session.UserID, flavor.Name, productID); err != nil {
			return nil, err
		}
	}

	open, err := s.openDraftID(ctx, session.UserID, flavor.Name, productID)
	if err != nil {
		return nil, err
	}
	if open != "" {
		if live := s.liveSessionFor(session.UserID, open); live != nil {
			return s.state(live), nil
		}
		return s.resume(ctx, session, applicantID, open)
	}

	w, err := wizard.New(flavor, session, s.store, s.wizardOptions(wizard.ForProduct(productID))...)
	if err != nil {
		return nil, err
	}
	if err := s.prefill(ctx, w, session); err != nil {
		return nil, err
	}

	return s.state(s.register(session.UserID, w, false)), nil
}

// Resume reopens a persisted draft owned by the session user.
func (s *WizardService) Resume(ctx context.Context, session wizard.SessionContext, applicationID uuid.UUID) (*WizardState, error) {
	applicantID, err := uuid.Parse(session.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: session user id", ErrInvalidInput)
	}
	if live := s.liveSessionFor(session.UserID, applicationID.String()); live != nil {
		return s.state(live), nil
	}
	return s.resume(ctx, session, applicantID, applicationID.String())
}

func (s *WizardService) resume(ctx context.Context, session wizard.SessionContext, applicantID uuid.UUID, draftID string) (*WizardState, error) {
	id, err := uuid.Parse(draftID)
	if err != nil {
		return nil, fmt.Errorf("%w: draft id %q", ErrInvalidInput, draftID)
	}
	draft, err := s.drafts.LoadDraft(ctx, id, applicantID)
	if err != nil {
		return nil, err
	}
	flavor, err := wizard.LookupFlavor(draft.Flavor)
	if err != nil {
		return nil, err
	}

	w, err := wizard.New(flavor, session, s.store, s.wizardOptions(wizard.FromDraft(draft))...)
	if err != nil {
		return nil, err
	}
	return s.state(s.register(session.UserID, w, true)), nil
}

func (s *WizardService) State(sessionID uuid.UUID, userID string) (*WizardState, error) {
	sess, err := s.get(sessionID, userID)
	if err != nil {
		return nil, err
	}
	return s.state(sess), nil
}

// SetFields applies raw JSON values to named fields.
func (s *WizardService) SetFields(ctx context.Context, sessionID uuid.UUID, userID string, raw map[string]interface{}) (*WizardState, error) {
	sess, err := s.get(sessionID, userID)
	if err != nil {
		return nil, err
	}

	values := make(map[wizard.Field]wizard.Value, len(raw))
	for name, v := range raw {
		field, ok := wizard.LookupField(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", wizard.ErrUnknownField, name)
		}
		value, err := wizard.ParseValue(field, v)
		if err != nil {
			return nil, err
		}
		values[field] = value
	}

	if err := sess.wizard.SetMany(ctx, values); err != nil {
		return nil, err
	}
	return s.state(sess), nil
}

func (s *WizardService) Toggle(ctx context.Context, sessionID uuid.UUID, userID, fieldName, token string) (*WizardState, error) {
	sess, err := s.get(sessionID, userID)
	if err != nil {
		return nil, err
	}
	field, ok := wizard.LookupField(fieldName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", wizard.ErrUnknownField, fieldName)
	}
	if err := sess.wizard.Toggle(ctx, field, token); err != nil {
		return nil, err
	}
	return s.state(sess), nil
}

func (s *WizardService) Next(ctx context.Context, sessionID uuid.UUID, userID string) (*WizardState, error) {
	sess, err := s.get(sessionID, userID)
	if err != nil {
		return nil, err
	}
	flavor := sess.wizard.Flavor().Name

	progress, err := sess.wizard.Next(ctx)
	if err != nil {
		var verr *wizard.ValidationError
		switch {
		case errors.As(err, &verr):
			wizardTransitions.WithLabelValues(flavor, "invalid").Inc()
		default:
			wizardTransitions.WithLabelValues(flavor, "error").Inc()
		}
		return nil, err
	}

	outcome := "advanced"
	if progress.PersistErr != nil {
		outcome = "advanced_unsaved"
	}
	wizardTransitions.WithLabelValues(flavor, outcome).Inc()

	state := s.state(sess)
	state.Progress = progress
	return state, nil
}

func (s *WizardService) Previous(sessionID uuid.UUID, userID string) (*WizardState, error) {
	sess, err := s.get(sessionID, userID)
	if err != nil {
		return nil, err
	}
	sess.wizard.Previous()
	return s.state(sess), nil
}

// Submit finalizes the draft. Notification failures are logged; the
// submission itself has already been recorded.
func (s *WizardService) Submit(ctx context.Context, sessionID uuid.UUID, userID string) (*WizardState, error) {
	sess, err := s.get(sessionID, userID)
	if err != nil {
		return nil, err
	}
	flavor := sess.wizard.Flavor().Name

	progress, err := sess.wizard.Submit(ctx)
	if err != nil {
		wizardSubmissions.WithLabelValues(flavor, "failed").Inc()
		return nil, err
	}
	wizardSubmissions.WithLabelValues(flavor, "submitted").Inc()

	if id, perr := uuid.Parse(progress.DraftID); perr == nil && s.listener != nil {
		if err := s.listener.Submitted(ctx, id); err != nil {
			s.log.WithError(err).WithField("draft_id", progress.DraftID).Warn("Post-submission hooks failed")
		}
	}

	state := s.state(sess)
	state.Progress = progress
	return state, nil
}

// Discard drops the live session. The persisted draft is kept and can be
// resumed later.
func (s *WizardService) Discard(sessionID uuid.UUID, userID string) error {
	if _, err := s.get(sessionID, userID); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.sessions, sessionID)
	wizardActiveSessions.Set(float64(len(s.sessions)))
	s.mu.Unlock()
	return nil
}

// StartJanitor evicts idle sessions until ctx is done.
func (s *WizardService) StartJanitor(ctx context.Context) {
	interval := s.config.JanitorInterval
	if interval <= 0 {
		interval = time.Minute
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := s.evictIdle(); n > 0 {
					s.log.WithField("evicted", n).Debug("Evicted idle wizard sessions")
				}
			}
		}
	}()
}

func (s *WizardService) evictIdle() int {
	if s.config.SessionTTL <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.config.SessionTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, sess := range s.sessions {
		if sess.lastUsed.Before(cutoff) {
			delete(s.sessions, id)
			evicted++
		}
	}
	wizardActiveSessions.Set(float64(len(s.sessions)))
	return evicted
}

func (s *WizardService) wizardOptions(extra ...wizard.Option) []wizard.Option {
	return append([]wizard.Option{
		wizard.ContinueOnPersistError(s.config.ContinueOnPersistError),
		wizard.AutoSaveOnEdit(s.config.AutoSaveOnEdit),
		wizard.WithLogger(s.log),
	}, extra...)
}

// prefill copies the identity provider's contact details into a new draft.
func (s *WizardService) prefill(ctx context.Context, w *wizard.Wizard, session wizard.SessionContext) error {
	values := map[wizard.Field]wizard.Value{}
	if session.Name != "" {
		values[wizard.FieldName] = wizard.TextValue(session.Name)
	}
	if session.Email != "" {
		values[wizard.FieldEmail] = wizard.TextValue(session.Email)
	}
	if len(values) == 0 {
		return nil
	}
	return w.SetMany(ctx, values)
}

func (s *WizardService) openDraftID(ctx context.Context, applicantID, flavor, productID string) (string, error) {
	rows, err := s.store.ListWhere(ctx, wizard.ApplicationsTable, wizard.Predicate{
		"applicant_id": applicantID,
		"flavor":       flavor,
		"product_id":   nullable(productID),
		"status":       string(wizard.StatusDraft),
	}, "updated_at desc")
	if err != nil {
		return "", fmt.Errorf("failed to look up open drafts: %w", err)
	}
	if len(rows) == 0 {
		return "", nil
	}
	return wizard.IDOf(rows[0]), nil
}

// ensureNotApplied rejects a second application to a product while an
// earlier one is under review or approved.
func (s *WizardService) ensureNotApplied(ctx context.Context, applicantID, flavor, productID string) error {
	for _, status := range []models.ApplicationStatus{models.ApplicationStatusCompleted, models.ApplicationStatusApproved} {
		rows, err := s.store.ListWhere(ctx, wizard.ApplicationsTable, wizard.Predicate{
			"applicant_id": applicantID,
			"flavor":       flavor,
			"product_id":   productID,
			"status":       string(status),
		}, "")
		if err != nil {
			return fmt.Errorf("failed to look up applications: %w", err)
		}
		if len(rows) > 0 {
			return fmt.Errorf("application %s is already %s: %w", wizard.IDOf(rows[0]), status, ErrConflict)
		}
	}
	return nil
}

func (s *WizardService) register(owner string, w *wizard.Wizard, resumed bool) *wizardSession {
	sess := &wizardSession{
		id:       uuid.New(),
		owner:    owner,
		wizard:   w,
		resumed:  resumed,
		lastUsed: s.now(),
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	wizardActiveSessions.Set(float64(len(s.sessions)))
	s.mu.Unlock()

	wizardSessionsStarted.WithLabelValues(w.Flavor().Name, strconv.FormatBool(resumed)).Inc()
	return sess
}

func (s *WizardService) get(sessionID uuid.UUID, userID string) (*wizardSession, error) {
	s.mu.RLock()
	sess, ok := s.sessions[sessionID]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("wizard session %s: %w", sessionID, ErrNotFound)
	}
	if sess.owner != userID {
		return nil, fmt.Errorf("wizard session %s: %w", sessionID, ErrForbidden)
	}

	s.mu.Lock()
	sess.lastUsed = s.now()
	s.mu.Unlock()
	return sess, nil
}

// liveSessionFor finds the owner's in-memory session for draftID. Progress
// waits on the wizard's own lock, so it is read outside the registry lock.
func (s *WizardService) liveSessionFor(owner, draftID string) *wizardSession {
	type candidate struct {
		sess     *wizardSession
		lastUsed time.Time
	}

	s.mu.RLock()
	var owned []candidate
	for _, sess := range s.sessions {
		if sess.owner == owner {
			owned = append(owned, candidate{sess: sess, lastUsed: sess.lastUsed})
		}
	}
	s.mu.RUnlock()

	var found []candidate
	for _, c := range owned {
		progress := c.sess.wizard.Progress()
		if progress.DraftID == draftID && progress.Status == wizard.StatusDraft {
			found = append(found, c)
		}
	}
	if len(found) == 0 {
		return nil
	}
	sort.Slice(found, func(i, j int) bool { return found[i].lastUsed.After(found[j].lastUsed) })

	s.mu.Lock()
	found[0].sess.lastUsed = s.now()
	s.mu.Unlock()
	return found[0].sess
}

func (s *WizardService) state(sess *wizardSession) *WizardState {
	flavor := sess.wizard.Flavor()
	progress := sess.wizard.Progress()
	step, _ := flavor.Step(progress.CurrentStep)
	return &WizardState{
		SessionID: sess.id,
		Title:     flavor.Title,
		Progress:  progress,
		Step:      step,
		Steps:     flavor.Steps,
		Draft:     sess.wizard.Snapshot(),
		Resumed:   sess.resumed,
	}
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
