package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mess-backend/models"
	"mess-backend/services"
	"mess-backend/utils"
)

type BazarHandler struct {
	finance *services.FinanceService
}

func NewBazarHandler(finance *services.FinanceService) *BazarHandler {
	return &BazarHandler{finance: finance}
}

// POST /api/messes/:id/bazar
func (h *BazarHandler) Create(c *gin.Context) {
	messID, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid mess ID")
		return
	}
	var req models.CreateBazarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	entry, err := h.finance.AddBazar(c.Request.Context(), messID, utils.GetCurrentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusCreated, "Bazar entry added", entry)
}

// GET /api/messes/:id/bazar?month=YYYY-MM
func (h *BazarHandler) List(c *gin.Context) {
	messID, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid mess ID")
		return
	}

	entries, err := h.finance.ListBazarEntries(c.Request.Context(), messID, utils.GetCurrentUserID(c), c.Query("month"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", entries)
}

// PUT /api/messes/:id/bazar/:entryId
func (h *BazarHandler) Update(c *gin.Context) {
	messID, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid mess ID")
		return
	}
	entryID, err := utils.ParseUUID(c.Param("entryId"))
	if err != nil {
		utils.BadRequest(c, "Invalid entry ID")
		return
	}
	var req models.UpdateBazarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	entry, err := h.finance.UpdateBazar(c.Request.Context(), messID, entryID, utils.GetCurrentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Bazar entry updated", entry)
}

// PUT /api/messes/:id/bazar/:entryId/status
func (h *BazarHandler) SetStatus(c *gin.Context) {
	messID, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid mess ID")
		return
	}
	entryID, err := utils.ParseUUID(c.Param("entryId"))
	if err != nil {
		utils.BadRequest(c, "Invalid entry ID")
		return
	}
	var req models.SetCostStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	entry, err := h.finance.SetBazarStatus(c.Request.Context(), messID, entryID, utils.GetCurrentUserID(c), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Status updated", entry)
}

// DELETE /api/messes/:id/bazar/:entryId
func (h *BazarHandler) Delete(c *gin.Context) {
	messID, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid mess ID")
		return
	}
	entryID, err := utils.ParseUUID(c.Param("entryId"))
	if err != nil {
		utils.BadRequest(c, "Invalid entry ID")
		return
	}

	if err := h.finance.DeleteBazar(c.Request.Context(), messID, entryID, utils.GetCurrentUserID(c)); err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Bazar entry deleted", nil)
}
