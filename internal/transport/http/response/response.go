package response

import "github.com/gin-gonic/gin"

const (
	CodeBadRequest       = 40000
	CodeInvalidMarkup    = 40001
	CodeDocumentNotFound = 40401
	CodeMarkupNotFound   = 40402
	CodeRouteNotFound    = 40400
	CodeMarkupExists     = 40901
	CodeInternalServer   = 50000
	CodeUploadFailed     = 50201
)

// ErrorBody is the JSON body of every failed request. Error carries the
// underlying cause when there is one worth showing.
type ErrorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// OK writes data as the response body unchanged; the browser client expects
// bare arrays and records.
func OK(c *gin.Context, data interface{}) {
	c.JSON(200, data)
}

// Success writes {"success": true}.
func Success(c *gin.Context) {
	c.JSON(200, gin.H{"success": true})
}

func Error(c *gin.Context, httpStatus, code int, message string) {
	c.AbortWithStatusJSON(httpStatus, ErrorBody{
		Code:    code,
		Message: message,
	})
}

// ErrorWithCause is Error with the cause attached.
func ErrorWithCause(c *gin.Context, httpStatus, code int, message string, cause error) {
	body := ErrorBody{Code: code, Message: message}
	if cause != nil {
		body.Error = cause.Error()
	}
	c.AbortWithStatusJSON(httpStatus, body)
}
