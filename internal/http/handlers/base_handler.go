// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	ierr "mobility-pricing/internal/errors"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg, Code: status})
}

// writeServiceError maps a marked service error to its status. Only hints reach
// the client; 5xx without a hint get the generic status text.
func writeServiceError(c *gin.Context, err error) {
	_ = c.Error(err)
	status := ierr.HTTPStatusFromErr(err)
	msg := ierr.Hint(err)
	if msg == "" {
		msg = http.StatusText(status)
	}
	writeError(c, status, msg)
}

func paramInt64(c *gin.Context, name string) (int64, bool) {
	v, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || v <= 0 {
		writeError(c, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return v, true
}
