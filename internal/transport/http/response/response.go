package response

import "github.com/gin-gonic/gin"

const (
	CodeOK                 = 0
	CodeBadRequest         = 40000
	CodeUnauthorized       = 40100
	CodeInvalidCredentials = 40101
	CodeInactiveUser       = 40102
	CodeNotFound           = 40400
	CodeEmailExists        = 40900
	CodeInternalServer     = 50000
	CodeUpstreamFailure    = 50200
)

type APIResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// OK writes the payload as the response body. Success responses return the
// resource directly, unwrapped; the APIResponse envelope is reserved for
// errors, where clients need the numeric code to branch on.
func OK(c *gin.Context, data interface{}) {
	c.JSON(200, data)
}

func Error(c *gin.Context, httpStatus, code int, message string) {
	c.JSON(httpStatus, APIResponse{
		Code:    code,
		Message: message,
	})
}
