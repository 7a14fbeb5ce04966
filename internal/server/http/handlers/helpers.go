package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/server/http/dto"
	"github.com/polkiloo/storefront/internal/server/http/middleware"
)

// CurrentUserID extracts authenticated user identifier from context.
func CurrentUserID(c *gin.Context) int64 {
	val, ok := c.Get(middleware.UserIDContextKey)
	if !ok {
		return 0
	}
	id, _ := val.(int64)
	return id
}

// StatusFor maps an error kind to the HTTP status returned to clients.
func StatusFor(kind domainErrors.Kind) int {
	switch kind {
	case domainErrors.KindValidation, domainErrors.KindInvalidTransition:
		return http.StatusBadRequest
	case domainErrors.KindUnauthenticated:
		return http.StatusUnauthorized
	case domainErrors.KindForbidden:
		return http.StatusForbidden
	case domainErrors.KindNotFound:
		return http.StatusNotFound
	case domainErrors.KindConflict, domainErrors.KindCapacity:
		return http.StatusConflict
	case domainErrors.KindExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError aborts with {"error","kind"}. Messages of server-side kinds are
// replaced with a generic text; the original error stays on the gin context
// for the request logger.
func writeError(c *gin.Context, err error) {
	_ = c.Error(err)
	kind := domainErrors.KindOf(err)
	c.AbortWithStatusJSON(StatusFor(kind), dto.ErrorResponse{Error: publicMessage(kind, err), Kind: string(kind)})
}

func publicMessage(kind domainErrors.Kind, err error) string {
	switch kind {
	case domainErrors.KindTransient:
		return "temporary failure, please retry"
	case domainErrors.KindExternal:
		return "payment processor unavailable"
	case domainErrors.KindInternal:
		return "internal server error"
	default:
		return err.Error()
	}
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, dto.ErrorResponse{Error: message, Kind: string(domainErrors.KindValidation)})
}
