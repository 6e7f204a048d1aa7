package response

import (
	"github.com/gin-gonic/gin"

	"go-gin-gorm-taskboard/internal/domain"
)

// Resp 错误响应体；成功响应直接返回资源本身
type Resp struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg"`
	Data interface{} `json:"data"`
}

// New 构造函数（保证 data 不为 null）
func New(code int, msg string, data interface{}) Resp {
	if data == nil {
		data = struct{}{}
	}
	return Resp{Code: code, Msg: msg, Data: data}
}

// Error 失败响应（可以传自定义 msg 覆盖默认）
func Error(code int, customMsg string) Resp {
	msg := CodeMsgMap[code]
	if customMsg != "" {
		msg = customMsg
	}
	return New(code, msg, struct{}{})
}

// Abort 中止后续 handler，状态码与 code 一致
func Abort(c *gin.Context, code int, msg string) {
	c.AbortWithStatusJSON(code, Error(code, msg))
}

// AbortErr 按 domain.Kind 映射状态码；内部错误只返回通用文案
func AbortErr(c *gin.Context, err error) {
	Abort(c, domain.KindOf(err).HTTPStatus(), domain.PublicMessage(err))
}
