package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mess-backend/models"
	"mess-backend/services"
	"mess-backend/utils"
)

type MealHandler struct {
	finance *services.FinanceService
}

func NewMealHandler(finance *services.FinanceService) *MealHandler {
	return &MealHandler{finance: finance}
}

// POST /api/messes/:id/meals
func (h *MealHandler) Log(c *gin.Context) {
	messID, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid mess ID")
		return
	}
	var req models.LogMealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	meal, err := h.finance.LogMeal(c.Request.Context(), messID, utils.GetCurrentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Meal logged", meal)
}

// GET /api/messes/:id/meals?month=YYYY-MM
func (h *MealHandler) List(c *gin.Context) {
	messID, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid mess ID")
		return
	}

	meals, err := h.finance.ListMealLogs(c.Request.Context(), messID, utils.GetCurrentUserID(c), c.Query("month"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", meals)
}
