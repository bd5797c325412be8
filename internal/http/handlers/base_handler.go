// README: Shared handler utilities: JSON helpers, id parsing, error mapping.
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"reparto/internal/http/middleware"
	"reparto/internal/modules/dispatch"
	"reparto/internal/modules/location"
	"reparto/internal/modules/order"
	"reparto/internal/modules/rider"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

// pathID parses the :id path segment; a non-numeric id answers 400 and
// reports handled=false to the caller.
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(c, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

// writeDomainError maps module sentinel errors onto HTTP statuses. Anything
// unrecognized is an infrastructure failure: logged with the request id,
// answered as a generic 500.
func writeDomainError(c *gin.Context, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, rider.ErrValidation),
		errors.Is(err, location.ErrValidation),
		errors.Is(err, order.ErrValidation):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, rider.ErrNotFound),
		errors.Is(err, location.ErrRiderNotFound),
		errors.Is(err, order.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, order.ErrOutsideZone):
		writeError(c, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, order.ErrInvalidState),
		errors.Is(err, dispatch.ErrRiderBusy),
		errors.Is(err, dispatch.ErrRiderInactive),
		errors.Is(err, rider.ErrStatusReserved),
		errors.Is(err, rider.ErrHasOrders),
		errors.Is(err, rider.ErrUserTaken),
		errors.Is(err, rider.ErrConflict):
		writeError(c, http.StatusConflict, err.Error())
	default:
		log.Error("request failed",
			zap.String("request_id", c.GetString(middleware.ContextKeyRequestID)),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
