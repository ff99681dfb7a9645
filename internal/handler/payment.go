package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/zolani/khusela/internal/context"
	"github.com/zolani/khusela/internal/errHandler"
	"github.com/zolani/khusela/internal/flow"
	"github.com/zolani/khusela/internal/helper"
	"github.com/zolani/khusela/internal/models"
	"github.com/zolani/khusela/internal/repository"
	"github.com/zolani/khusela/internal/request"
	"github.com/zolani/khusela/internal/response"
	"github.com/zolani/khusela/internal/stream"
	"github.com/zolani/khusela/internal/validator"
)

type PaymentHandler struct {
	PolicyRepo   repository.PolicyRepository
	ActivityRepo repository.ActivityRepository
	Flows        *flow.Store
	Kafka        *stream.KafkaStream

	ErrHandler *errHandler.ErrorRepository
	Helper     *helper.HelperRepository
}

func NewPaymentHandler(handler *PaymentHandler) *PaymentHandler {
	return handler
}

// HandleSetup records the debit-order mandate for an approved policy and
// completes the journey. Activation itself is asynchronous: the handler
// produces a policy-activated event and the worker brings the policy live.
func (h *PaymentHandler) HandleSetup(w http.ResponseWriter, r *http.Request) {
	var input struct {
		PolicyID      string              `json:"policy_id"`
		AccountNumber string              `json:"account_number"`
		BranchCode    string              `json:"branch_code"`
		AccountHolder string              `json:"account_holder"`
		Validator     validator.Validator `json:"-"`
	}

	if err := request.DecodeJSON(w, r, &input); err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Validator.Check(validator.NotBlank(input.PolicyID), "Policy is required")
	input.Validator.Check(validator.IsDigits(input.AccountNumber), "Account number must be numeric")
	input.Validator.Check(validator.Between(len(input.AccountNumber), 7, 12), "Account number must be between 7 and 12 digits")
	input.Validator.Check(validator.Matches(input.BranchCode, validator.RgxBankBranchCode), "Branch code must be 6 digits")
	input.Validator.Check(validator.NotBlank(input.AccountHolder), "Account holder name is required")
	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	user := context.ContextGetAuthenticatedUser(r)
	controller := h.Flows.For(user.ID)

	policy, found, err := h.PolicyRepo.GetOne(input.PolicyID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !found || policy.UserID != user.ID {
		h.ErrHandler.NotFound(w, r)
		return
	}
	if policy.Status != models.PolicyStatusPendingActivation {
		h.ErrHandler.Conflict(w, r, "This policy is not awaiting payment setup")
		return
	}

	if err := controller.PaymentConfirmed(); err != nil {
		if errors.Is(err, flow.ErrWrongStage) {
			h.ErrHandler.Conflict(w, r, "Payment setup is not available at this stage")
			return
		}
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	h.Helper.BackgroundTask(r, func() error {
		event := PolicyActivatedEvent{
			UserID:   user.ID,
			PolicyID: policy.ID,
			Premium:  policy.PremiumAmount,
		}

		payload, err := json.Marshal(event)
		if err != nil {
			return err
		}

		return h.Kafka.ProduceMessage(stream.PolicyActivatedTopic, string(payload))
	})

	h.Helper.BackgroundTask(r, func() error {
		_, err := h.ActivityRepo.Insert(&models.ActivityLog{
			UserID:      user.ID,
			Entity:      models.ActivityLogPolicyEntity,
			EntityId:    policy.ID,
			Description: PolicyActivityLogActivatedDescription,
		})
		return err
	})

	data := map[string]any{
		"policy_id": policy.ID,
		"stage":     string(controller.Stage()),
	}

	message := "Payment set up. Your policy will be active shortly and your first premium will be collected on the 1st of next month."
	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}
