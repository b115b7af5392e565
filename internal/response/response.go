package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequestIDKey is the gin context key holding the request identifier.
const RequestIDKey = "request_id"

// Code is a machine readable error category. Clients branch on it rather
// than on the message text.
type Code string

const (
	CodeBadRequest     Code = "bad_request"
	CodeUnauthorized   Code = "unauthorized"
	CodeNoReceiptData  Code = "no_receipt_data"
	CodeReceiptInvalid Code = "receipt_invalid"
	CodeUpstream       Code = "upstream_failure"
	CodeTimeout        Code = "timeout"
	CodeUnavailable    Code = "unavailable"
	CodeInternal       Code = "internal"
)

// Response is the envelope of every API reply. Code is empty on success.
type Response struct {
	Success   bool        `json:"success"`
	Code      Code        `json:"code,omitempty"`
	Message   string      `json:"message"`
	RequestID string      `json:"request_id,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

// OK replies 200 with data.
func OK(c *gin.Context, data interface{}) {
	write(c, http.StatusOK, Response{
		Success: true,
		Message: "success",
		Data:    data,
	})
}

// Fail replies with an error envelope.
func Fail(c *gin.Context, status int, code Code, message string) {
	FailData(c, status, code, message, nil)
}

// FailData replies with an error envelope carrying details in data.
func FailData(c *gin.Context, status int, code Code, message string, data interface{}) {
	write(c, status, Response{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

func write(c *gin.Context, status int, resp Response) {
	resp.RequestID = c.GetString(RequestIDKey)
	c.JSON(status, resp)
}
