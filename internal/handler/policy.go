package handler

import (
	"net/http"

	"github.com/zolani/khusela/internal/context"
	"github.com/zolani/khusela/internal/errHandler"
	"github.com/zolani/khusela/internal/funcs"
	"github.com/zolani/khusela/internal/repository"
	"github.com/zolani/khusela/internal/response"
)

type PolicyHandler struct {
	PolicyRepo repository.PolicyRepository
	ErrHandler *errHandler.ErrorRepository
}

func NewPolicyHandler(handler *PolicyHandler) *PolicyHandler {
	return handler
}

type policyResponseData struct {
	ID             string `json:"id"`
	ProductID      string `json:"product_id"`
	Premium        string `json:"premium"`
	Status         string `json:"status"`
	DecisionReason string `json:"decision_reason,omitempty"`
	CoverStartDate string `json:"cover_start_date,omitempty"`
	CreatedAt      string `json:"created_at"`
}

func (h *PolicyHandler) HandleListPolicies(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	policies, err := h.PolicyRepo.ListForUser(user.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	data := make([]policyResponseData, 0, len(policies))
	for _, policy := range policies {
		item := policyResponseData{
			ID:        policy.ID,
			ProductID: policy.ProductID,
			Premium:   funcs.FormatRand(policy.PremiumAmount),
			Status:    policy.Status,
			CreatedAt: funcs.FormatDate(policy.CreatedAt),
		}
		if policy.DecisionReason.Valid {
			item.DecisionReason = policy.DecisionReason.String
		}
		if policy.CoverStartDate.Valid {
			item.CoverStartDate = funcs.FormatDate(policy.CoverStartDate.Time)
		}
		data = append(data, item)
	}

	err = response.JSONOkResponse(w, data, "Data retrieved successfully", nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}
