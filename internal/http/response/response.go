package response

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursecraft-backend/internal/platform/apierr"
)

type errorBody struct {
	Message string         `json:"message"`
	Code    string         `json:"code"`
	Details map[string]any `json:"details,omitempty"`
}

// RespondError writes the standard error envelope. The public message is
// the error text itself; services are expected to keep internals out of
// the errors they surface.
func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, gin.H{"error": errorBody{
		Message: msg,
		Code:    code,
		Details: apierr.DetailsOf(err),
	}})
}

// RespondServiceError maps a service error onto the envelope using the
// status/code carried by the error. Errors without a status collapse to a
// generic 500 so internals never leak to clients.
func RespondServiceError(c *gin.Context, err error) {
	status := apierr.StatusOf(err)
	var ae *apierr.Error
	if status == http.StatusInternalServerError && !errors.As(err, &ae) {
		RespondError(c, status, apierr.CodeOf(err), fmt.Errorf("internal server error"))
		return
	}
	RespondError(c, status, apierr.CodeOf(err), err)
}

func RespondOK(c *gin.Context, status int, payload any) {
	c.JSON(status, payload)
}
