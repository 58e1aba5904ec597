package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mess-backend/models"
	"mess-backend/services"
	"mess-backend/utils"
)

type MessHandler struct {
	messes *services.MessService
}

func NewMessHandler(messes *services.MessService) *MessHandler {
	return &MessHandler{messes: messes}
}

// POST /api/messes
func (h *MessHandler) Create(c *gin.Context) {
	var req models.CreateMessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	mess, err := h.messes.CreateMess(c.Request.Context(), utils.GetCurrentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusCreated, "Mess created", mess)
}

// GET /api/messes/:id
func (h *MessHandler) Get(c *gin.Context) {
	messID, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid mess ID")
		return
	}

	details, err := h.messes.GetMessDetails(c.Request.Context(), messID, utils.GetCurrentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", details)
}

// POST /api/messes/:id/join
func (h *MessHandler) Join(c *gin.Context) {
	messID, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid mess ID")
		return
	}

	if err := h.messes.RequestJoin(c.Request.Context(), messID, utils.GetCurrentUserID(c)); err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Join request submitted", nil)
}

// GET /api/messes/:id/requests
func (h *MessHandler) PendingRequests(c *gin.Context) {
	messID, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid mess ID")
		return
	}

	requests, err := h.messes.PendingRequests(c.Request.Context(), messID, utils.GetCurrentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", requests)
}

// POST /api/messes/:id/members/approve
func (h *MessHandler) ApproveMember(c *gin.Context) {
	messID, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid mess ID")
		return
	}
	var req models.ApproveMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}
	userID, err := utils.ParseUUID(req.UserID)
	if err != nil {
		utils.BadRequest(c, "Invalid user ID")
		return
	}

	if err := h.messes.ApproveMember(c.Request.Context(), messID, utils.GetCurrentUserID(c), userID); err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Member approved", nil)
}

// POST /api/messes/:id/roles
func (h *MessHandler) AssignRole(c *gin.Context) {
	messID, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid mess ID")
		return
	}
	var req models.RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}
	userID, err := utils.ParseUUID(req.UserID)
	if err != nil {
		utils.BadRequest(c, "Invalid user ID")
		return
	}

	if err := h.messes.AssignRole(c.Request.Context(), messID, utils.GetCurrentUserID(c), userID, req.Role); err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Role assigned", nil)
}

// DELETE /api/messes/:id/roles
func (h *MessHandler) RemoveRole(c *gin.Context) {
	messID, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid mess ID")
		return
	}
	var req models.RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}
	userID, err := utils.ParseUUID(req.UserID)
	if err != nil {
		utils.BadRequest(c, "Invalid user ID")
		return
	}

	if err := h.messes.RemoveRole(c.Request.Context(), messID, utils.GetCurrentUserID(c), userID, req.Role); err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Role removed", nil)
}

// DELETE /api/messes/:id/members/:userId
func (h *MessHandler) RemoveMember(c *gin.Context) {
	messID, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid mess ID")
		return
	}
	userID, err := utils.ParseUUID(c.Param("userId"))
	if err != nil {
		utils.BadRequest(c, "Invalid user ID")
		return
	}

	if err := h.messes.RemoveMember(c.Request.Context(), messID, utils.GetCurrentUserID(c), userID); err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Member removed", nil)
}

// POST /api/messes/:id/invite
func (h *MessHandler) Invite(c *gin.Context) {
	messID, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid mess ID")
		return
	}
	var req models.InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	if err := h.messes.Invite(c.Request.Context(), messID, utils.GetCurrentUserID(c), req.Email); err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Invitation sent", nil)
}
