package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/YLCALP/ciftlik360-master-sub000/internal/apierror"
	"github.com/YLCALP/ciftlik360-master-sub000/internal/dto"
	"github.com/YLCALP/ciftlik360-master-sub000/internal/service"
)

type ConsumptionHandler struct {
	policy    service.PolicyService
	deduction service.DeductionService
}

func NewConsumptionHandler(policy service.PolicyService, deduction service.DeductionService) *ConsumptionHandler {
	return &ConsumptionHandler{policy: policy, deduction: deduction}
}

func (h *ConsumptionHandler) ListSettings(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	resp, err := h.policy.GetSettings(c.Request.Context(), owner)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ConsumptionHandler) UpsertSetting(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	var req dto.UpsertSettingRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.policy.UpsertSetting(c.Request.Context(), owner, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ConsumptionHandler) DeleteSetting(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	err := h.policy.DeleteSetting(c.Request.Context(), owner, c.Param("species"), c.Param("feed_type"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Run triggers the daily deduction for the caller. The body is optional.
func (h *ConsumptionHandler) Run(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	var req dto.RunDeductionRequest
	if c.Request.ContentLength > 0 && !bindAndValidate(c, &req) {
		return
	}
	var day *time.Time
	if req.Date != nil {
		t, err := time.Parse("2006-01-02", *req.Date)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(map[string]string{"date": "datetime"}))
			return
		}
		day = &t
	}
	resp, err := h.deduction.RunDaily(c.Request.Context(), owner, day)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ConsumptionHandler) Manual(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	var req dto.ManualConsumptionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.deduction.AddManualConsumption(c.Request.Context(), owner, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ConsumptionHandler) ListRecords(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	var f dto.ConsumptionFilter
	if !bindQuery(c, &f) {
		return
	}
	resp, err := h.deduction.ListRecords(c.Request.Context(), owner, f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ConsumptionHandler) Reverse(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.ReverseRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.deduction.ReverseConsumption(c.Request.Context(), owner, id, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

type AlertsHandler struct{ svc service.AlertService }

func NewAlertsHandler(svc service.AlertService) *AlertsHandler {
	return &AlertsHandler{svc: svc}
}

func (h *AlertsHandler) LowStock(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	resp, err := h.svc.ScanLowStock(c.Request.Context(), owner)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
