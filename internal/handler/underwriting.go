package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/zolani/khusela/internal/context"
	"github.com/zolani/khusela/internal/errHandler"
	"github.com/zolani/khusela/internal/flow"
	"github.com/zolani/khusela/internal/funcs"
	"github.com/zolani/khusela/internal/helper"
	"github.com/zolani/khusela/internal/models"
	"github.com/zolani/khusela/internal/repository"
	"github.com/zolani/khusela/internal/request"
	"github.com/zolani/khusela/internal/response"
	"github.com/zolani/khusela/internal/validator"
)

// The instant-underwriting questionnaire. Answers are yes/no strings; the
// acceptance rule below is the whole rules engine for now.
const (
	underwritingQuestionAge             = "age"
	underwritingQuestionChronicIllness  = "health"
	underwritingQuestionHospitalization = "hospitalization"
)

type UnderwritingHandler struct {
	ProductRepo  repository.ProductRepository
	PolicyRepo   repository.PolicyRepository
	ActivityRepo repository.ActivityRepository
	Flows        *flow.Store

	ErrHandler *errHandler.ErrorRepository
	Helper     *helper.HelperRepository
}

func NewUnderwritingHandler(handler *UnderwritingHandler) *UnderwritingHandler {
	return handler
}

type underwritingQuestion struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Type     string `json:"type"`
}

func underwritingQuestions() []underwritingQuestion {
	return []underwritingQuestion{
		{ID: underwritingQuestionAge, Question: "Are you between 18 and 65 years old?", Type: "yes-no"},
		{ID: underwritingQuestionChronicIllness, Question: "Do you have any chronic illnesses?", Type: "yes-no"},
		{ID: underwritingQuestionHospitalization, Question: "Have you been hospitalized in the last 12 months?", Type: "yes-no"},
	}
}

func (h *UnderwritingHandler) HandleListQuestions(w http.ResponseWriter, r *http.Request) {
	err := response.JSONOkResponse(w, underwritingQuestions(), "Data retrieved successfully", nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleSubmit runs the instant decision over the questionnaire answers and
// records the resulting policy. Approval moves the journey to payment; a
// decline records a declined policy and keeps the user on underwriting so
// they can review the reason.
func (h *UnderwritingHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var input struct {
		ProductID  string              `json:"product_id"`
		RiderIDs   []string            `json:"rider_ids"`
		Dependents int                 `json:"dependents"`
		Answers    map[string]string   `json:"answers"`
		Validator  validator.Validator `json:"-"`
	}

	if err := request.DecodeJSON(w, r, &input); err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Validator.Check(validator.NotBlank(input.ProductID), "Product is required")
	input.Validator.Check(input.Dependents >= 0, "Dependents cannot be negative")
	for _, question := range underwritingQuestions() {
		answer := input.Answers[question.ID]
		input.Validator.Check(validator.In(answer, "yes", "no"), "Please answer all questions")
	}
	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	user := context.ContextGetAuthenticatedUser(r)
	controller := h.Flows.For(user.ID)

	if !controller.KYCComplete() {
		h.ErrHandler.Conflict(w, r, "Identity verification must be completed first")
		return
	}

	product, found, err := h.ProductRepo.GetOne(input.ProductID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !found {
		h.ErrHandler.BadRequest(w, r, errors.New("unknown product"))
		return
	}

	input.Validator.Check(input.Dependents <= product.MaxCovered, "Too many dependents for this plan")
	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	premium, _, unknownRider := quotePremium(product, input.RiderIDs, input.Dependents)
	if unknownRider != "" {
		h.ErrHandler.BadRequest(w, r, errors.New("unknown rider: "+unknownRider))
		return
	}

	// Selecting a product is what moves the journey out of the products
	// stage. A re-submission after a decline is already on underwriting.
	if err := controller.ProductChosen(); err != nil && !errors.Is(err, flow.ErrWrongStage) {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if controller.Stage() != flow.StageUnderwriting {
		h.ErrHandler.Conflict(w, r, "Underwriting is not available at this stage")
		return
	}

	approved, reason := decide(input.Answers)

	policy := &models.Policy{
		UserID:        user.ID,
		ProductID:     product.ID,
		PremiumAmount: premium,
	}
	if approved {
		policy.Status = models.PolicyStatusPendingActivation
	} else {
		policy.Status = models.PolicyStatusDeclined
		policy.DecisionReason = sql.NullString{String: reason, Valid: true}
	}

	policyID, err := h.PolicyRepo.Insert(policy)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	decision := flow.Decision{
		Approved: approved,
		Message:  reason,
		PolicyID: policyID,
	}
	if approved {
		decision.Message = "Congratulations! You have been approved instantly."
	}

	if err := controller.UnderwritingResolved(decision); err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	h.Helper.BackgroundTask(r, func() error {
		_, err := h.ActivityRepo.Insert(&models.ActivityLog{
			UserID:      user.ID,
			Entity:      models.ActivityLogPolicyEntity,
			EntityId:    policyID,
			Description: PolicyActivityLogCreatedDescription,
		})
		return err
	})

	data := map[string]any{
		"policy_id":       policyID,
		"approved":        approved,
		"message":         decision.Message,
		"monthly_premium": premium,
		"display_premium": funcs.FormatRand(premium),
		"stage":           string(controller.Stage()),
	}
	if approved {
		data["next_steps"] = "Set up your payment method to activate your policy."
	}

	message := "Underwriting decision recorded"
	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// decide is the instant acceptance rule: inside the age band, no chronic
// illness, no recent hospitalization.
func decide(answers map[string]string) (bool, string) {
	if answers[underwritingQuestionAge] != "yes" {
		return false, "Cover is only available to applicants between 18 and 65 years old."
	}
	if answers[underwritingQuestionChronicIllness] != "no" {
		return false, "We are unable to offer instant cover with a chronic illness on record. An underwriter will contact you."
	}
	if answers[underwritingQuestionHospitalization] != "no" {
		return false, "We are unable to offer instant cover after a recent hospitalization. An underwriter will contact you."
	}
	return true, ""
}
