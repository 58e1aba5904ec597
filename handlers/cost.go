package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mess-backend/models"
	"mess-backend/services"
	"mess-backend/utils"
)

type CostHandler struct {
	finance *services.FinanceService
}

func NewCostHandler(finance *services.FinanceService) *CostHandler {
	return &CostHandler{finance: finance}
}

// POST /api/messes/:id/costs
func (h *CostHandler) Create(c *gin.Context) {
	messID, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid mess ID")
		return
	}
	var req models.CreateCostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	cost, err := h.finance.AddServiceCost(c.Request.Context(), messID, utils.GetCurrentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusCreated, "Service cost added", cost)
}

// GET /api/messes/:id/costs?month=YYYY-MM
func (h *CostHandler) List(c *gin.Context) {
	messID, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid mess ID")
		return
	}

	costs, err := h.finance.ListServiceCosts(c.Request.Context(), messID, utils.GetCurrentUserID(c), c.Query("month"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", costs)
}

// PUT /api/messes/:id/costs/:costId/status
func (h *CostHandler) SetStatus(c *gin.Context) {
	messID, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid mess ID")
		return
	}
	costID, err := utils.ParseUUID(c.Param("costId"))
	if err != nil {
		utils.BadRequest(c, "Invalid cost ID")
		return
	}
	var req models.SetCostStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	cost, err := h.finance.SetServiceCostStatus(c.Request.Context(), messID, costID, utils.GetCurrentUserID(c), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Status updated", cost)
}

// DELETE /api/messes/:id/costs/:costId
func (h *CostHandler) Delete(c *gin.Context) {
	messID, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid mess ID")
		return
	}
	costID, err := utils.ParseUUID(c.Param("costId"))
	if err != nil {
		utils.BadRequest(c, "Invalid cost ID")
		return
	}

	if err := h.finance.DeleteServiceCost(c.Request.Context(), messID, costID, utils.GetCurrentUserID(c)); err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Service cost deleted", nil)
}
