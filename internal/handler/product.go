package handler

import (
	"errors"
	"net/http"

	"github.com/zolani/khusela/internal/errHandler"
	"github.com/zolani/khusela/internal/funcs"
	"github.com/zolani/khusela/internal/models"
	"github.com/zolani/khusela/internal/repository"
	"github.com/zolani/khusela/internal/request"
	"github.com/zolani/khusela/internal/response"
	"github.com/zolani/khusela/internal/validator"
)

type ProductHandler struct {
	ProductRepo repository.ProductRepository
	ErrHandler  *errHandler.ErrorRepository
}

func NewProductHandler(handler *ProductHandler) *ProductHandler {
	return handler
}

type productResponseData struct {
	ID          string              `json:"id"`
	Tier        string              `json:"tier"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	BasePrice   float64             `json:"base_price"`
	Display     string              `json:"display_price"`
	MaxCovered  int                 `json:"max_covered"`
	Riders      []riderResponseData `json:"riders"`
}

type riderResponseData struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Display     string  `json:"display_price"`
}

func (h *ProductHandler) HandleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.ProductRepo.GetAll()
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	data := make([]productResponseData, 0, len(products))
	for _, product := range products {
		item := productResponseData{
			ID:          product.ID,
			Tier:        product.Tier,
			Name:        product.Name,
			Description: product.Description,
			BasePrice:   product.BasePrice,
			Display:     funcs.FormatRand(product.BasePrice),
			MaxCovered:  product.MaxCovered,
			Riders:      make([]riderResponseData, 0, len(product.Riders)),
		}
		for _, rider := range product.Riders {
			item.Riders = append(item.Riders, riderResponseData{
				ID:          rider.ID,
				Name:        rider.Name,
				Description: rider.Description,
				Price:       rider.Price,
				Display:     funcs.FormatRand(rider.Price),
			})
		}
		data = append(data, item)
	}

	err = response.JSONOkResponse(w, data, "Data retrieved successfully", nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleQuote prices a selection without committing to it: base premium,
// plus chosen riders, plus a loading per dependent.
func (h *ProductHandler) HandleQuote(w http.ResponseWriter, r *http.Request) {
	var input struct {
		ProductID  string              `json:"product_id"`
		RiderIDs   []string            `json:"rider_ids"`
		Dependents int                 `json:"dependents"`
		Validator  validator.Validator `json:"-"`
	}

	if err := request.DecodeJSON(w, r, &input); err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Validator.Check(validator.NotBlank(input.ProductID), "Product is required")
	input.Validator.Check(input.Dependents >= 0, "Dependents cannot be negative")
	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
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

	premium, riderTotal, unknownRider := quotePremium(product, input.RiderIDs, input.Dependents)
	if unknownRider != "" {
		h.ErrHandler.BadRequest(w, r, errors.New("unknown rider: "+unknownRider))
		return
	}

	data := map[string]any{
		"product_id":      product.ID,
		"base_price":      product.BasePrice,
		"rider_total":     riderTotal,
		"dependents":      input.Dependents,
		"monthly_premium": premium,
		"display_premium": funcs.FormatRand(premium),
	}

	err = response.JSONOkResponse(w, data, "Data retrieved successfully", nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// quotePremium computes the monthly premium for a product selection. An
// unknown rider ID aborts the quote; the caller rejects the request.
func quotePremium(product *models.Product, riderIDs []string, dependents int) (premium, riderTotal float64, unknownRider string) {
	byID := make(map[string]models.ProductRider, len(product.Riders))
	for _, rider := range product.Riders {
		byID[rider.ID] = rider
	}

	for _, id := range riderIDs {
		rider, ok := byID[id]
		if !ok {
			return 0, 0, id
		}
		riderTotal += rider.Price
	}

	premium = product.BasePrice + riderTotal + product.BasePrice*models.DependentPriceLoading*float64(dependents)
	return premium, riderTotal, ""
}
