package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mess-backend/services"
	"mess-backend/utils"
)

type ActivityHandler struct {
	messes *services.MessService
}

func NewActivityHandler(messes *services.MessService) *ActivityHandler {
	return &ActivityHandler{messes: messes}
}

// GET /api/messes/:id/activity?page=1&limit=20
func (h *ActivityHandler) List(c *gin.Context) {
	messID, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid mess ID")
		return
	}

	var page utils.PaginationQuery
	if err := c.ShouldBindQuery(&page); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	activities, err := h.messes.ListActivity(c.Request.Context(), messID, utils.GetCurrentUserID(c), page.Limit, page.Offset())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", activities)
}
