// Package flow holds the outer application state machine: the journey from
// the welcome screen through onboarding, product selection, underwriting and
// payment to the dashboard. The KYC sub-flow is owned by the kyc package;
// this controller only observes its completion signal.
package flow

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/zolani/khusela/internal/kyc"
	"github.com/zolani/khusela/internal/models"
)

type Stage string

const (
	StageWelcome      Stage = "welcome"
	StageOnboarding   Stage = "onboarding"
	StageProducts     Stage = "products"
	StageUnderwriting Stage = "underwriting"
	StagePayment      Stage = "payment"
	StageDashboard    Stage = "dashboard"
)

var (
	ErrNotAuthenticated = errors.New("no authenticated session")
	ErrWrongStage       = errors.New("action not valid for the current stage")
)

// TokenStore is the process-wide session store holding issued auth tokens.
// Putting and removing tokens is the only side effect the controller owns
// directly; everything else goes through collaborators.
type TokenStore interface {
	Put(ctx context.Context, token, userID string) error
	Remove(ctx context.Context, token string) error
}

type AuthRecord struct {
	Token  string
	UserID string
}

// Controller is the outer state machine for one user's application journey.
// It keeps a single previous stage for back navigation, not a full history:
// repeated GoBack calls are not guaranteed to walk further back.
type Controller struct {
	mu       sync.Mutex
	stage    Stage
	previous Stage
	hasPrev  bool
	auth     *AuthRecord

	kycDone    bool
	kycRecord  *models.IdentityRecord
	underwrite *Decision

	tokens TokenStore
	logger *slog.Logger
}

// Decision is the outcome of an underwriting submission.
type Decision struct {
	Approved bool
	Message  string
	PolicyID string
}

func NewController(tokens TokenStore, logger *slog.Logger) *Controller {
	return &Controller{
		stage:  StageWelcome,
		tokens: tokens,
		logger: logger,
	}
}

func (c *Controller) Stage() Stage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stage
}

func (c *Controller) Auth() *AuthRecord {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.auth == nil {
		return nil
	}
	record := *c.auth
	return &record
}

func (c *Controller) setStage(stage Stage) {
	c.previous = c.stage
	c.hasPrev = true
	c.stage = stage
}

// GoBack returns to exactly the immediately prior stage.
func (c *Controller) GoBack() Stage {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.hasPrev {
		c.stage, c.previous = c.previous, c.stage
	}
	return c.stage
}

// SignedUp records a fresh signup: the user is authenticated and moves into
// the onboarding stage to complete identity verification.
func (c *Controller) SignedUp(ctx context.Context, token, userID string) error {
	if err := c.tokens.Put(ctx, token, userID); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.auth = &AuthRecord{Token: token, UserID: userID}
	c.setStage(StageOnboarding)
	return nil
}

// LoggedIn records a returning user's login and lands them on the dashboard.
func (c *Controller) LoggedIn(ctx context.Context, token, userID string) error {
	if err := c.tokens.Put(ctx, token, userID); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.auth = &AuthRecord{Token: token, UserID: userID}
	c.setStage(StageDashboard)
	return nil
}

// Logout revokes the session token and forces the stage back to welcome.
func (c *Controller) Logout(ctx context.Context) error {
	c.mu.Lock()
	auth := c.auth
	c.auth = nil
	c.stage = StageWelcome
	c.hasPrev = false
	c.mu.Unlock()

	if auth == nil {
		return ErrNotAuthenticated
	}

	return c.tokens.Remove(ctx, auth.Token)
}

// OnKYCComplete is the single completion signal from the KYC sub-flow. The
// finished record is kept for the later stages; the journey moves on to
// product selection.
func (c *Controller) OnKYCComplete(record models.IdentityRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.kycDone = true
	c.kycRecord = &record
	c.setStage(StageProducts)

	c.logger.Info("kyc completed", "phone", record.PhoneNumber)
}

// AbandonOnboarding handles an explicit cancel of the KYC sub-flow: the
// whole onboarding stage is abandoned and the user returns to welcome.
func (c *Controller) AbandonOnboarding() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.kycDone = false
	c.kycRecord = nil
	c.stage = StageWelcome
	c.hasPrev = false
}

func (c *Controller) KYCComplete() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kycDone
}

func (c *Controller) IdentityRecord() *models.IdentityRecord {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.kycRecord == nil {
		return nil
	}
	record := *c.kycRecord
	return &record
}

// ProductChosen moves an onboarded user from product selection to the
// underwriting questions.
func (c *Controller) ProductChosen() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stage != StageProducts {
		return ErrWrongStage
	}

	c.setStage(StageUnderwriting)
	return nil
}

// UnderwritingResolved records the decision. Approval moves the journey to
// payment; a decline keeps the user on the underwriting stage with the
// decline message so they can review or abandon.
func (c *Controller) UnderwritingResolved(decision Decision) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stage != StageUnderwriting {
		return ErrWrongStage
	}

	c.underwrite = &decision
	if decision.Approved {
		c.setStage(StagePayment)
	}
	return nil
}

func (c *Controller) Underwriting() *Decision {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.underwrite == nil {
		return nil
	}
	decision := *c.underwrite
	return &decision
}

// PaymentConfirmed completes the journey: the policy is live and the user
// lands on the dashboard.
func (c *Controller) PaymentConfirmed() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stage != StagePayment {
		return ErrWrongStage
	}

	c.setStage(StageDashboard)
	return nil
}

// Store keeps one flow controller per user for the lifetime of the process.
type Store struct {
	mu          sync.Mutex
	controllers map[string]*Controller

	tokens TokenStore
	logger *slog.Logger
}

func NewStore(tokens TokenStore, logger *slog.Logger) *Store {
	return &Store{
		controllers: make(map[string]*Controller),
		tokens:      tokens,
		logger:      logger,
	}
}

func (st *Store) For(userID string) *Controller {
	st.mu.Lock()
	defer st.mu.Unlock()

	if controller, ok := st.controllers[userID]; ok {
		return controller
	}

	controller := NewController(st.tokens, st.logger)
	st.controllers[userID] = controller
	return controller
}

// EnterOnboarding wires the user's KYC machine to this controller's
// completion signal.
func (st *Store) EnterOnboarding(userID string, kycStore *kyc.Store) *kyc.Machine {
	controller := st.For(userID)
	return kycStore.Enter(userID, controller.OnKYCComplete)
}
