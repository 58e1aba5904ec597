package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mess-backend/services"
	"mess-backend/storage"
	"mess-backend/utils"
)

// respondError maps service and storage error kinds to HTTP statuses.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		utils.NotFound(c, "Not found")
	case errors.Is(err, services.ErrValidation):
		utils.BadRequest(c, err.Error())
	case errors.Is(err, storage.ErrDuplicate):
		utils.BadRequest(c, "Already exists")
	case errors.Is(err, services.ErrPermissionDenied):
		utils.ErrorResponse(c, http.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrConcurrentModification):
		utils.ErrorResponse(c, http.StatusConflict, "Entry was modified concurrently, refetch and retry")
	case errors.Is(err, services.ErrMonthLocked):
		utils.ErrorResponse(c, http.StatusLocked, err.Error())
	default:
		utils.InternalError(c, "Something went wrong")
	}
}
