package httpx

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/foodapp/internal/apperr"
)

var statusByKind = map[apperr.Kind]int{
	apperr.KindInvalidInput:    http.StatusBadRequest,
	apperr.KindAmountMismatch:  http.StatusBadRequest,
	apperr.KindUnauthenticated: http.StatusUnauthorized,
	apperr.KindForbidden:       http.StatusForbidden,
	apperr.KindNotFound:        http.StatusNotFound,
	apperr.KindConflictOfState: http.StatusConflict,
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error    string      `json:"error" example:"Order not found"`
	Category apperr.Kind `json:"category" swaggertype:"string" example:"not_found"`
}

// StatusOf maps err to the HTTP status it is reported with.
func StatusOf(err error) int {
	if code, ok := statusByKind[apperr.KindOf(err)]; ok {
		return code
	}
	return http.StatusInternalServerError
}

// WriteError renders err as an ErrorResponse. Uncategorized errors are logged and reported as a generic server error.
func WriteError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	if kind == "" {
		rid, _ := c.Get(ridKey)
		log.Printf("[http] rid=%v %s %s internal error: %v", rid, c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Server error", Category: "internal"})
		return
	}
	c.JSON(StatusOf(err), ErrorResponse{Error: err.Error(), Category: kind})
}

// BadRequest is shorthand for an invalid_input error response.
func BadRequest(c *gin.Context, msg string) {
	WriteError(c, apperr.InvalidInput(msg))
}
