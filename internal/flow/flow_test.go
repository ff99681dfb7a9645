package flow

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zolani/khusela/internal/mocks"
	"github.com/zolani/khusela/internal/models"
)

func newTestController() (*Controller, *mocks.MockTokenStore) {
	tokens := mocks.NewMockTokenStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewController(tokens, logger), tokens
}

func TestSignupLandsOnOnboarding(t *testing.T) {
	controller, tokens := newTestController()

	require.NoError(t, controller.SignedUp(context.Background(), "token-1", "user-1"))
	require.Equal(t, StageOnboarding, controller.Stage())

	userID, found, err := tokens.Lookup(context.Background(), "token-1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "user-1", userID)
}

func TestLoginLandsOnDashboard(t *testing.T) {
	controller, _ := newTestController()

	require.NoError(t, controller.LoggedIn(context.Background(), "token-1", "user-1"))
	require.Equal(t, StageDashboard, controller.Stage())
}

func TestLogoutRevokesTokenAndReturnsToWelcome(t *testing.T) {
	controller, tokens := newTestController()

	require.NoError(t, controller.LoggedIn(context.Background(), "token-1", "user-1"))
	require.NoError(t, controller.Logout(context.Background()))

	require.Equal(t, StageWelcome, controller.Stage())
	require.Nil(t, controller.Auth())

	_, found, err := tokens.Lookup(context.Background(), "token-1")
	require.NoError(t, err)
	require.False(t, found)
}

func TestGoBackSwapsWithPreviousStageOnly(t *testing.T) {
	controller, _ := newTestController()

	require.NoError(t, controller.SignedUp(context.Background(), "token-1", "user-1"))
	controller.OnKYCComplete(models.IdentityRecord{PhoneNumber: "+27601234567"})
	require.Equal(t, StageProducts, controller.Stage())

	require.Equal(t, StageOnboarding, controller.GoBack())

	// A second GoBack swaps back, it does not walk further into history.
	require.Equal(t, StageProducts, controller.GoBack())
}

func TestKYCCompletionMovesToProducts(t *testing.T) {
	controller, _ := newTestController()
	require.NoError(t, controller.SignedUp(context.Background(), "token-1", "user-1"))

	controller.OnKYCComplete(models.IdentityRecord{
		PhoneNumber: "+27601234567",
		Extracted:   &models.ExtractedIdentity{IDNumber: "9001015800086"},
	})

	require.Equal(t, StageProducts, controller.Stage())
	require.True(t, controller.KYCComplete())

	record := controller.IdentityRecord()
	require.NotNil(t, record)
	require.Equal(t, "+27601234567", record.PhoneNumber)
}

func TestAbandonOnboardingReturnsToWelcome(t *testing.T) {
	controller, _ := newTestController()
	require.NoError(t, controller.SignedUp(context.Background(), "token-1", "user-1"))

	controller.AbandonOnboarding()

	require.Equal(t, StageWelcome, controller.Stage())
	require.False(t, controller.KYCComplete())
	require.Nil(t, controller.IdentityRecord())
}

func TestUnderwritingApprovalAdvancesToPayment(t *testing.T) {
	controller, _ := newTestController()
	require.NoError(t, controller.SignedUp(context.Background(), "token-1", "user-1"))
	controller.OnKYCComplete(models.IdentityRecord{})
	require.NoError(t, controller.ProductChosen())

	err := controller.UnderwritingResolved(Decision{Approved: true, PolicyID: "pol-1"})
	require.NoError(t, err)
	require.Equal(t, StagePayment, controller.Stage())
}

func TestUnderwritingDeclineStaysOnUnderwriting(t *testing.T) {
	controller, _ := newTestController()
	require.NoError(t, controller.SignedUp(context.Background(), "token-1", "user-1"))
	controller.OnKYCComplete(models.IdentityRecord{})
	require.NoError(t, controller.ProductChosen())

	err := controller.UnderwritingResolved(Decision{Approved: false, Message: "declined", PolicyID: "pol-1"})
	require.NoError(t, err)
	require.Equal(t, StageUnderwriting, controller.Stage())

	decision := controller.Underwriting()
	require.NotNil(t, decision)
	require.False(t, decision.Approved)
}

func TestStageTransitionsRejectedOutOfOrder(t *testing.T) {
	controller, _ := newTestController()

	require.ErrorIs(t, controller.ProductChosen(), ErrWrongStage)
	require.ErrorIs(t, controller.UnderwritingResolved(Decision{Approved: true}), ErrWrongStage)
	require.ErrorIs(t, controller.PaymentConfirmed(), ErrWrongStage)
}

func TestPaymentConfirmedCompletesJourney(t *testing.T) {
	controller, _ := newTestController()
	require.NoError(t, controller.SignedUp(context.Background(), "token-1", "user-1"))
	controller.OnKYCComplete(models.IdentityRecord{})
	require.NoError(t, controller.ProductChosen())
	require.NoError(t, controller.UnderwritingResolved(Decision{Approved: true, PolicyID: "pol-1"}))

	require.NoError(t, controller.PaymentConfirmed())
	require.Equal(t, StageDashboard, controller.Stage())
}

func TestStoreReturnsSameControllerPerUser(t *testing.T) {
	tokens := mocks.NewMockTokenStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := NewStore(tokens, logger)

	first := store.For("user-1")
	second := store.For("user-1")
	other := store.For("user-2")

	require.Same(t, first, second)
	require.NotSame(t, first, other)
}
