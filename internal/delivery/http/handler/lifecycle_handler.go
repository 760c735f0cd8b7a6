package handler

import (
	"net/http"

	"go-telehealth-booking/internal/usecase"
	"go-telehealth-booking/pkg/response"
)

type LifecycleHandler struct {
	sweepUsecase usecase.LifecycleSweepUsecase
}

func NewLifecycleHandler(sweepUsecase usecase.LifecycleSweepUsecase) *LifecycleHandler {
	return &LifecycleHandler{
		sweepUsecase: sweepUsecase,
	}
}

// RunSweep triggers one lifecycle sweep outside the periodic schedule
func (h *LifecycleHandler) RunSweep(w http.ResponseWriter, r *http.Request) {
	result, err := h.sweepUsecase.RunLifecycleSweep(r.Context())
	if err != nil {
		response.InternalServerError(w, "Failed to run lifecycle sweep")
		return
	}

	response.Success(w, http.StatusOK, "Lifecycle sweep completed", result)
}
