package handler

import (
	"net/http"

	"github.com/zolani/khusela/internal/errHandler"
	"github.com/zolani/khusela/internal/response"
	"github.com/zolani/khusela/internal/version"
)

type HealthHandler struct {
	ErrHandler *errHandler.ErrorRepository
}

func NewHealthHandler(handler *HealthHandler) *HealthHandler {
	return handler
}

func (h *HealthHandler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	data := map[string]string{
		"status":  "OK",
		"version": version.Get(),
	}

	err := response.JSONOkResponse(w, data, "Server is up and running", nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}
