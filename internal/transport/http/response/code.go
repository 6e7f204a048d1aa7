package response

import "net/http"

// 错误码直接沿用 HTTP 状态码
const (
	CodeBadRequest     = http.StatusBadRequest
	CodeUnauthorized   = http.StatusUnauthorized
	CodeForbidden      = http.StatusForbidden
	CodeNotFound       = http.StatusNotFound
	CodeConflict       = http.StatusConflict
	CodeTooLarge       = http.StatusRequestEntityTooLarge
	CodeUnprocessable  = http.StatusUnprocessableEntity
	CodeServerError    = http.StatusInternalServerError
	CodeUnavailable    = http.StatusServiceUnavailable
	CodeGatewayTimeout = http.StatusGatewayTimeout
)

// CodeMsgMap 用于集中管理 code - msg
var CodeMsgMap = map[int]string{
	CodeBadRequest:     "Bad Request",
	CodeUnauthorized:   "Unauthorized",
	CodeForbidden:      "Forbidden",
	CodeNotFound:       "Not Found",
	CodeConflict:       "Conflict",
	CodeTooLarge:       "Request Entity Too Large",
	CodeUnprocessable:  "Unprocessable Entity",
	CodeServerError:    "Internal Server Error",
	CodeUnavailable:    "Service Unavailable",
	CodeGatewayTimeout: "Gateway Timeout",
}
