package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"mess-backend/services"
	"mess-backend/utils"
)

type SummaryHandler struct {
	summaries *services.SummaryService
	finance   *services.FinanceService
}

func NewSummaryHandler(summaries *services.SummaryService, finance *services.FinanceService) *SummaryHandler {
	return &SummaryHandler{summaries: summaries, finance: finance}
}

// GET /api/messes/:id/summary/:month
//
// The cache version doubles as the ETag, so a client replaying its last
// version gets a cheap 304 when nothing relevant has changed.
func (h *SummaryHandler) Get(c *gin.Context) {
	messID, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid mess ID")
		return
	}

	summary, version, err := h.summaries.GetMonthlySummary(c.Request.Context(), messID, utils.GetCurrentUserID(c), c.Param("month"))
	if err != nil {
		respondError(c, err)
		return
	}

	if version != "" {
		etag := fmt.Sprintf("%q", version)
		c.Header("ETag", etag)
		if c.GetHeader("If-None-Match") == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}
	utils.SuccessResponse(c, http.StatusOK, "", summary)
}

// POST /api/messes/:id/lock/:month
func (h *SummaryHandler) LockMonth(c *gin.Context) {
	messID, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid mess ID")
		return
	}

	lock, err := h.finance.LockMonth(c.Request.Context(), messID, utils.GetCurrentUserID(c), c.Param("month"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Month locked", lock)
}

// DELETE /api/messes/:id/lock/:month
func (h *SummaryHandler) UnlockMonth(c *gin.Context) {
	messID, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid mess ID")
		return
	}

	if err := h.finance.UnlockMonth(c.Request.Context(), messID, utils.GetCurrentUserID(c), c.Param("month")); err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Month unlocked", nil)
}
