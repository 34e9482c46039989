package httperr

import (
	"github.com/gin-gonic/gin"
)

// Response is the error envelope every failing endpoint returns. Status rides
// along for the middleware but stays out of the body.
type Response struct {
	Status int  `json:"-"`
	Error  Body `json:"error"`
}

// Body carries the machine-readable code, a human-readable reason, and
// optional structured context such as conflicting versions.
type Body struct {
	Code   string         `json:"code"`
	Reason string         `json:"reason"`
	Meta   map[string]any `json:"meta,omitempty"`
}

func New(status int, code, reason string, meta map[string]any) Response {
	return Response{
		Status: status,
		Error:  Body{Code: code, Reason: reason, Meta: meta},
	}
}

// AbortWithError replies with the envelope and parks the original error on
// the gin error stack for the logging middleware.
func AbortWithError(c *gin.Context, err error, resp Response) {
	if err == nil {
		panic("AbortWithError: err cannot be nil")
	}

	_ = c.Error(&gin.Error{
		Err:  err,
		Type: gin.ErrorTypePublic,
		Meta: resp,
	})
	c.AbortWithStatusJSON(resp.Status, resp)
}
