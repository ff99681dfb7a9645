package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zolani/khusela/internal/context"
	"github.com/zolani/khusela/internal/errHandler"
	"github.com/zolani/khusela/internal/helper"
	"github.com/zolani/khusela/internal/mocks"
	"github.com/zolani/khusela/internal/models"
)

func newTestClaimHandler(claimRepo *mocks.MockClaimRepo, policyRepo *mocks.MockPolicyRepo) *ClaimHandler {
	var baseURL = "http://localhost"
	var wg sync.WaitGroup

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	activityRepo := new(mocks.MockActivityRepo)
	activityRepo.On("Insert", mock.Anything).Return(&models.ActivityLog{}, nil)

	return &ClaimHandler{
		ClaimRepo:    claimRepo,
		PolicyRepo:   policyRepo,
		ActivityRepo: activityRepo,
		ErrHandler:   errHandler.New("", baseURL, nil, logger),
		Helper:       helper.New(&baseURL, &wg, &mocks.MockErrorHandler{}),
	}
}

func claimRequest(t *testing.T, method, target, id string, body any) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, target, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if id != "" {
		req.SetPathValue("id", id)
	}

	return context.ContextSetAuthenticatedUser(req, &models.User{
		ID:          "user-1",
		PhoneNumber: "+27601234567",
		Status:      models.UserAccountActiveStatus,
	})
}

func TestHandleInitiateClaim_ActivePolicy(t *testing.T) {
	claimRepo := new(mocks.MockClaimRepo)
	policyRepo := new(mocks.MockPolicyRepo)

	policyRepo.On("GetOne", "policy-1").Return(&models.Policy{
		ID:     "policy-1",
		UserID: "user-1",
		Status: models.PolicyStatusActive,
	}, true, nil)
	claimRepo.On("Insert", mock.MatchedBy(func(claim *models.Claim) bool {
		return claim.PolicyID == "policy-1" &&
			claim.BeneficiaryName == "Naledi Mokoena" &&
			claim.Status == models.ClaimStatusSubmitted
	})).Return("claim-1", nil)

	claimHandler := newTestClaimHandler(claimRepo, policyRepo)

	rr := httptest.NewRecorder()
	req := claimRequest(t, "POST", "/claims", "", map[string]string{
		"policy_id":        "policy-1",
		"beneficiary_name": "Naledi Mokoena",
		"claim_details":    "Funeral cover claim for a covered family member.",
	})
	claimHandler.HandleInitiateClaim(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	claimRepo.AssertExpectations(t)

	var response map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))

	data, ok := response["data"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "claim-1", data["id"])
	require.Equal(t, models.ClaimStatusSubmitted, data["status"])
	require.NotEmpty(t, data["next_step"])
}

func TestHandleInitiateClaim_PolicyNotActive(t *testing.T) {
	claimRepo := new(mocks.MockClaimRepo)
	policyRepo := new(mocks.MockPolicyRepo)

	policyRepo.On("GetOne", "policy-1").Return(&models.Policy{
		ID:     "policy-1",
		UserID: "user-1",
		Status: models.PolicyStatusPendingActivation,
	}, true, nil)

	claimHandler := newTestClaimHandler(claimRepo, policyRepo)

	rr := httptest.NewRecorder()
	req := claimRequest(t, "POST", "/claims", "", map[string]string{
		"policy_id":        "policy-1",
		"beneficiary_name": "Naledi Mokoena",
		"claim_details":    "Funeral cover claim.",
	})
	claimHandler.HandleInitiateClaim(rr, req)

	require.Equal(t, http.StatusConflict, rr.Code)
	claimRepo.AssertNotCalled(t, "Insert", mock.Anything)
}

func TestHandleInitiateClaim_SomeoneElsesPolicyIsNotFound(t *testing.T) {
	claimRepo := new(mocks.MockClaimRepo)
	policyRepo := new(mocks.MockPolicyRepo)

	policyRepo.On("GetOne", "policy-2").Return(&models.Policy{
		ID:     "policy-2",
		UserID: "user-2",
		Status: models.PolicyStatusActive,
	}, true, nil)

	claimHandler := newTestClaimHandler(claimRepo, policyRepo)

	rr := httptest.NewRecorder()
	req := claimRequest(t, "POST", "/claims", "", map[string]string{
		"policy_id":        "policy-2",
		"beneficiary_name": "Naledi Mokoena",
		"claim_details":    "Funeral cover claim.",
	})
	claimHandler.HandleInitiateClaim(rr, req)

	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandleGetClaim_ReturnsStatusAndNextStep(t *testing.T) {
	claimRepo := new(mocks.MockClaimRepo)

	claimRepo.On("GetOne", "claim-1").Return(&models.Claim{
		ID:              "claim-1",
		PolicyID:        "policy-1",
		UserID:          "user-1",
		BeneficiaryName: "Naledi Mokoena",
		Details:         "Funeral cover claim.",
		Status:          models.ClaimStatusUnderReview,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}, true, nil)

	claimHandler := newTestClaimHandler(claimRepo, new(mocks.MockPolicyRepo))

	rr := httptest.NewRecorder()
	req := claimRequest(t, "GET", "/claims/claim-1", "claim-1", nil)
	claimHandler.HandleGetClaim(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var response map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))

	data, ok := response["data"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, models.ClaimStatusUnderReview, data["status"])
	require.Equal(t, "An assessor may contact you for supporting documents.", data["next_step"])
}

func TestHandleCancelClaim_PendingClaim(t *testing.T) {
	claimRepo := new(mocks.MockClaimRepo)

	claimRepo.On("GetOne", "claim-1").Return(&models.Claim{
		ID:     "claim-1",
		UserID: "user-1",
		Status: models.ClaimStatusSubmitted,
	}, true, nil)
	claimRepo.On("Cancel", "claim-1", "Submitted in error").Return(nil)

	claimHandler := newTestClaimHandler(claimRepo, new(mocks.MockPolicyRepo))

	rr := httptest.NewRecorder()
	req := claimRequest(t, "POST", "/claims/claim-1/cancel", "claim-1", map[string]string{
		"reason": "Submitted in error",
	})
	claimHandler.HandleCancelClaim(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	claimRepo.AssertExpectations(t)
}

func TestHandleCancelClaim_DecidedClaimConflicts(t *testing.T) {
	claimRepo := new(mocks.MockClaimRepo)

	claimRepo.On("GetOne", "claim-1").Return(&models.Claim{
		ID:     "claim-1",
		UserID: "user-1",
		Status: models.ClaimStatusPaid,
	}, true, nil)

	claimHandler := newTestClaimHandler(claimRepo, new(mocks.MockPolicyRepo))

	rr := httptest.NewRecorder()
	req := claimRequest(t, "POST", "/claims/claim-1/cancel", "claim-1", map[string]string{
		"reason": "Changed my mind",
	})
	claimHandler.HandleCancelClaim(rr, req)

	require.Equal(t, http.StatusConflict, rr.Code)
	claimRepo.AssertNotCalled(t, "Cancel", mock.Anything, mock.Anything)
}
