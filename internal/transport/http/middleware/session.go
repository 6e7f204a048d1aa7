package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-gin-gorm-taskboard/internal/domain"
	resp "go-gin-gorm-taskboard/internal/transport/http/response"
)

const keyIdentity = "identity"

// Verifier 由 service.AuthService 实现
type Verifier interface {
	Verify(ctx context.Context, token string) (domain.Identity, error)
}

// TokenFrom 先读 cookie，再读 Authorization: Bearer
func TokenFrom(c *gin.Context, cookieName string) string {
	if v, err := c.Cookie(cookieName); err == nil && v != "" {
		return v
	}
	ah := c.GetHeader("Authorization")
	if len(ah) > 7 && strings.EqualFold(ah[:7], "Bearer ") {
		return strings.TrimSpace(ah[7:])
	}
	return ""
}

// Session 每个请求独立校验 token，通过后把 Identity 放进上下文。
// 校验本身出错（如注销列表不可用）时记录原因，客户端只看到 500。
func Session(v Verifier, cookieName string, l *zap.Logger) gin.HandlerFunc {
	if l == nil {
		l = zap.NewNop()
	}
	return func(c *gin.Context) {
		tok := TokenFrom(c, cookieName)
		if tok == "" {
			resp.Abort(c, resp.CodeUnauthorized, "authentication required")
			return
		}
		who, err := v.Verify(c.Request.Context(), tok)
		if err != nil {
			if domain.KindOf(err) == domain.KindInternal {
				l.Error("session verify failed",
					zap.String("rid", c.GetString(KeyRequestID)),
					zap.String("path", c.Request.URL.Path),
					zap.Error(err),
				)
			}
			resp.AbortErr(c, err)
			return
		}
		c.Set(keyIdentity, who)
		c.Next()
	}
}

// RequireRole 需放在 Session 之后
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := IdentityFrom(c)
		if !ok {
			resp.Abort(c, resp.CodeUnauthorized, "authentication required")
			return
		}
		for _, r := range roles {
			if who.Role == r {
				c.Next()
				return
			}
		}
		resp.Abort(c, resp.CodeForbidden, "access forbidden")
	}
}

func IdentityFrom(c *gin.Context) (domain.Identity, bool) {
	v, ok := c.Get(keyIdentity)
	if !ok {
		return domain.Identity{}, false
	}
	who, ok := v.(domain.Identity)
	return who, ok && who.AccountID != ""
}
