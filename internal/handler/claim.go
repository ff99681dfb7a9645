package handler

import (
	"net/http"

	"github.com/zolani/khusela/internal/context"
	"github.com/zolani/khusela/internal/errHandler"
	"github.com/zolani/khusela/internal/funcs"
	"github.com/zolani/khusela/internal/helper"
	"github.com/zolani/khusela/internal/models"
	"github.com/zolani/khusela/internal/repository"
	"github.com/zolani/khusela/internal/request"
	"github.com/zolani/khusela/internal/response"
	"github.com/zolani/khusela/internal/validator"
)

type ClaimHandler struct {
	ClaimRepo    repository.ClaimRepository
	PolicyRepo   repository.PolicyRepository
	ActivityRepo repository.ActivityRepository

	ErrHandler *errHandler.ErrorRepository
	Helper     *helper.HelperRepository
}

func NewClaimHandler(handler *ClaimHandler) *ClaimHandler {
	return handler
}

type claimResponseData struct {
	ID           string `json:"id"`
	PolicyID     string `json:"policy_id"`
	Beneficiary  string `json:"beneficiary"`
	Details      string `json:"details"`
	Status       string `json:"status"`
	NextStep     string `json:"next_step,omitempty"`
	CancelReason string `json:"cancel_reason,omitempty"`
	SubmittedAt  string `json:"submitted_at"`
	LastUpdate   string `json:"last_update"`
}

func claimResponse(claim *models.Claim) claimResponseData {
	data := claimResponseData{
		ID:          claim.ID,
		PolicyID:    claim.PolicyID,
		Beneficiary: claim.BeneficiaryName,
		Details:     claim.Details,
		Status:      claim.Status,
		NextStep:    claimNextStep(claim.Status),
		SubmittedAt: funcs.FormatDate(claim.CreatedAt),
		LastUpdate:  funcs.FormatDate(claim.UpdatedAt),
	}
	if claim.CancelReason.Valid {
		data.CancelReason = claim.CancelReason.String
	}
	return data
}

// claimNextStep tells the claimant what happens next for the statuses
// that still have a next step.
func claimNextStep(status string) string {
	switch status {
	case models.ClaimStatusSubmitted:
		return "Our claims team will review your submission."
	case models.ClaimStatusUnderReview:
		return "An assessor may contact you for supporting documents."
	case models.ClaimStatusApproved:
		return "Your payout is being processed."
	default:
		return ""
	}
}

// HandleInitiateClaim opens a claim against one of the caller's active
// policies. Assessment is manual, so a new claim always starts out as
// submitted.
func (h *ClaimHandler) HandleInitiateClaim(w http.ResponseWriter, r *http.Request) {
	var input struct {
		PolicyID        string              `json:"policy_id"`
		BeneficiaryName string              `json:"beneficiary_name"`
		ClaimDetails    string              `json:"claim_details"`
		Validator       validator.Validator `json:"-"`
	}

	if err := request.DecodeJSON(w, r, &input); err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Validator.Check(validator.NotBlank(input.PolicyID), "Policy is required")
	input.Validator.Check(validator.NotBlank(input.BeneficiaryName), "Beneficiary name is required")
	input.Validator.Check(validator.NotBlank(input.ClaimDetails), "Claim details are required")
	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	user := context.ContextGetAuthenticatedUser(r)

	policy, found, err := h.PolicyRepo.GetOne(input.PolicyID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !found || policy.UserID != user.ID {
		h.ErrHandler.NotFound(w, r)
		return
	}
	if policy.Status != models.PolicyStatusActive {
		h.ErrHandler.Conflict(w, r, "Claims can only be made against an active policy")
		return
	}

	claim := &models.Claim{
		PolicyID:        policy.ID,
		UserID:          user.ID,
		BeneficiaryName: input.BeneficiaryName,
		Details:         input.ClaimDetails,
		Status:          models.ClaimStatusSubmitted,
	}

	id, err := h.ClaimRepo.Insert(claim)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	claim.ID = id

	h.Helper.BackgroundTask(r, func() error {
		_, err := h.ActivityRepo.Insert(&models.ActivityLog{
			UserID:      user.ID,
			Entity:      models.ActivityLogClaimEntity,
			EntityId:    id,
			Description: ClaimActivityLogSubmittedDescription,
		})
		return err
	})

	message := "Your claim has been received. We'll review it shortly and keep you updated on the status."
	err = response.JSONCreatedResponse(w, claimResponse(claim), message)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *ClaimHandler) HandleListClaims(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	claims, err := h.ClaimRepo.ListForUser(user.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	data := make([]claimResponseData, 0, len(claims))
	for i := range claims {
		data = append(data, claimResponse(&claims[i]))
	}

	err = response.JSONOkResponse(w, data, "Data retrieved successfully", nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *ClaimHandler) HandleGetClaim(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	claim, found, err := h.ClaimRepo.GetOne(r.PathValue("id"))
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !found || claim.UserID != user.ID {
		h.ErrHandler.NotFound(w, r)
		return
	}

	err = response.JSONOkResponse(w, claimResponse(claim), "Data retrieved successfully", nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleCancelClaim withdraws a claim that has not been decided yet.
func (h *ClaimHandler) HandleCancelClaim(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Reason    string              `json:"reason"`
		Validator validator.Validator `json:"-"`
	}

	if err := request.DecodeJSON(w, r, &input); err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Validator.Check(validator.NotBlank(input.Reason), "A cancellation reason is required")
	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	user := context.ContextGetAuthenticatedUser(r)

	claim, found, err := h.ClaimRepo.GetOne(r.PathValue("id"))
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !found || claim.UserID != user.ID {
		h.ErrHandler.NotFound(w, r)
		return
	}
	if claim.Status != models.ClaimStatusSubmitted && claim.Status != models.ClaimStatusUnderReview {
		h.ErrHandler.Conflict(w, r, "This claim can no longer be cancelled")
		return
	}

	if err := h.ClaimRepo.Cancel(claim.ID, input.Reason); err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	h.Helper.BackgroundTask(r, func() error {
		_, err := h.ActivityRepo.Insert(&models.ActivityLog{
			UserID:      user.ID,
			Entity:      models.ActivityLogClaimEntity,
			EntityId:    claim.ID,
			Description: ClaimActivityLogCancelledDescription,
		})
		return err
	})

	message := "Claim cancelled"
	err = response.JSONOkResponse(w, nil, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}
