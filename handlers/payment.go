package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mess-backend/models"
	"mess-backend/services"
	"mess-backend/utils"
)

type PaymentHandler struct {
	finance *services.FinanceService
}

func NewPaymentHandler(finance *services.FinanceService) *PaymentHandler {
	return &PaymentHandler{finance: finance}
}

// POST /api/messes/:id/payments
func (h *PaymentHandler) Create(c *gin.Context) {
	messID, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid mess ID")
		return
	}
	var req models.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	payment, err := h.finance.RecordPayment(c.Request.Context(), messID, utils.GetCurrentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusCreated, "Payment recorded", payment)
}

// GET /api/messes/:id/payments?month=YYYY-MM
func (h *PaymentHandler) List(c *gin.Context) {
	messID, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid mess ID")
		return
	}

	payments, err := h.finance.ListPayments(c.Request.Context(), messID, utils.GetCurrentUserID(c), c.Query("month"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", payments)
}
