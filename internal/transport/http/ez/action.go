package ez

import (
	"errors"
	"io"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-gin-gorm-taskboard/internal/domain"
	mdw "go-gin-gorm-taskboard/internal/transport/http/middleware"
	resp "go-gin-gorm-taskboard/internal/transport/http/response"
)

type EZ struct {
	g   *gin.RouterGroup
	log *zap.Logger
}

func New(g *gin.RouterGroup, l *zap.Logger) EZ {
	if l == nil {
		l = zap.NewNop()
	}
	return EZ{g: g, log: l}
}

// 绑定方式
type Binder string

const (
	BindJSON  Binder = "json"  // 从 JSON 绑定
	BindQuery Binder = "query" // 从 URL ?a=b 绑定
	BindNone  Binder = "none"  // 不绑定，自己从 c.Param 取
)

// Action I 入参，O 出参
type Action[I any, O any] struct {
	Method  string        // "GET" | "POST" | "PUT" | "DELETE"
	Path    string        // 例："/tasks/:id"
	Binder  Binder        // 绑定方式
	Auth    bool          // 是否要求已登录（Session 中间件写入 Identity）
	Roles   []domain.Role // 限定角色（可选）
	Status  int           // 成功状态码，默认 200
	Handler func(c *gin.Context, who domain.Identity, in *I) (O, error)
}

// RegisterAction 在当前分组下注册一个动作接口
func RegisterAction[I any, O any](e EZ, a Action[I, O]) {
	status := a.Status
	if status == 0 {
		status = http.StatusOK
	}
	h := func(c *gin.Context) {
		// 1) 鉴权/角色
		who, ok := mdw.IdentityFrom(c)
		if (a.Auth || len(a.Roles) > 0) && !ok {
			resp.Abort(c, resp.CodeUnauthorized, "authentication required")
			return
		}
		if len(a.Roles) > 0 && !slices.Contains(a.Roles, who.Role) {
			resp.Abort(c, resp.CodeForbidden, "access forbidden")
			return
		}

		// 2) 绑定入参
		var in I
		var bindErr error
		switch a.Binder {
		case BindJSON:
			bindErr = c.ShouldBindJSON(&in)
		case BindQuery:
			bindErr = c.ShouldBindQuery(&in)
		}
		if bindErr != nil {
			e.bindFailed(c, bindErr)
			return
		}

		// 3) 执行 + 统一错误映射
		out, err := a.Handler(c, who, &in)
		if err != nil {
			Fail(c, e.log, err)
			return
		}
		c.JSON(status, out)
	}

	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		e.g.GET(a.Path, h)
	case http.MethodPut:
		e.g.PUT(a.Path, h)
	case http.MethodDelete:
		e.g.DELETE(a.Path, h)
	default: // 默认 POST
		e.g.POST(a.Path, h)
	}
}

func (e EZ) bindFailed(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		resp.Abort(c, resp.CodeTooLarge, "request body too large")
	case errors.Is(err, io.EOF):
		resp.Abort(c, resp.CodeBadRequest, "request body is required")
	default:
		e.log.Debug("bind request failed", zap.String("path", c.FullPath()), zap.Error(err))
		resp.Abort(c, resp.CodeBadRequest, "invalid request body")
	}
}

// Fail 写错误信封；内部错误连同原因记日志，客户端只看到通用文案
func Fail(c *gin.Context, l *zap.Logger, err error) {
	if domain.KindOf(err) == domain.KindInternal {
		l.Error("request failed",
			zap.String("rid", c.GetString(mdw.KeyRequestID)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	resp.AbortErr(c, err)
}
