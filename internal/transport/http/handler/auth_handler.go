package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-gin-gorm-taskboard/internal/domain"
	"go-gin-gorm-taskboard/internal/service"
	"go-gin-gorm-taskboard/internal/transport/http/ez"
	mdw "go-gin-gorm-taskboard/internal/transport/http/middleware"
)

// CookieOptions 会话 cookie 属性
type CookieOptions struct {
	Name   string
	Domain string
	Secure bool
	MaxAge time.Duration
}

type AuthHandler struct {
	auth     *service.AuthService
	accounts *service.AccountService
	cookie   CookieOptions
	log      *zap.Logger
}

func NewAuthHandler(auth *service.AuthService, accounts *service.AccountService, cookie CookieOptions, l *zap.Logger) *AuthHandler {
	if cookie.Name == "" {
		cookie.Name = "token"
	}
	return &AuthHandler{auth: auth, accounts: accounts, cookie: cookie, log: l}
}

func (h *AuthHandler) Priority() int { return 10 }

type loginOut struct {
	User domain.AccountView `json:"user"`
}

type messageOut struct {
	Message string `json:"message"`
}

func (h *AuthHandler) MountAPI(public, authed *gin.RouterGroup) {
	pub := ez.New(public, h.log)

	ez.RegisterAction(pub, ez.Action[service.RegisterInput, domain.AccountView]{
		Method: http.MethodPost,
		Path:   "/auth/register",
		Binder: ez.BindJSON,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, _ domain.Identity, in *service.RegisterInput) (domain.AccountView, error) {
			return h.auth.Register(c.Request.Context(), *in)
		},
	})

	ez.RegisterAction(pub, ez.Action[service.LoginInput, loginOut]{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, _ domain.Identity, in *service.LoginInput) (loginOut, error) {
			v, sess, err := h.auth.Login(c.Request.Context(), *in)
			if err != nil {
				return loginOut{}, err
			}
			maxAge := int(time.Until(sess.ExpiresAt).Seconds())
			if maxAge <= 0 {
				maxAge = int(h.cookie.MaxAge.Seconds())
			}
			h.setCookie(c, sess.Token, maxAge)
			return loginOut{User: v}, nil
		},
	})

	// 无需登录：过期或无效的 token 也能正常登出
	ez.RegisterAction(pub, ez.Action[struct{}, messageOut]{
		Method: http.MethodPost,
		Path:   "/auth/logout",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ domain.Identity, _ *struct{}) (messageOut, error) {
			if err := h.auth.Logout(c.Request.Context(), mdw.TokenFrom(c, h.cookie.Name)); err != nil {
				h.log.Warn("revoke token failed", zap.Error(err))
			}
			h.setCookie(c, "", -1)
			return messageOut{Message: "logged out"}, nil
		},
	})

	auth := ez.New(authed, h.log)
	ez.RegisterAction(auth, ez.Action[struct{}, domain.AccountView]{
		Method: http.MethodGet,
		Path:   "/auth/me",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, who domain.Identity, _ *struct{}) (domain.AccountView, error) {
			return h.accounts.Me(c.Request.Context(), who)
		},
	})
}

// setCookie maxAge < 0 表示删除
func (h *AuthHandler) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, value, maxAge, "/", h.cookie.Domain, h.cookie.Secure, true)
}
