package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/bcrypt"

	"go-gin-gorm-taskboard/internal/core/auth"
	"go-gin-gorm-taskboard/internal/core/cache"
	"go-gin-gorm-taskboard/internal/domain"
	"go-gin-gorm-taskboard/internal/repo"
	"go-gin-gorm-taskboard/pkg/utils"
)

var authEvents = prometheus.NewCounterVec(
	prometheus.CounterOpts{Name: "auth_events_total", Help: "Count of register/login/verify outcomes"},
	[]string{"event", "outcome"},
)

func init() { prometheus.MustRegister(authEvents) }

// 两种失败路径共用同一个错误，避免枚举账号
var errInvalidCredentials = domain.Unauthorized("invalid credentials")

var errInvalidToken = domain.Unauthorized("invalid or expired token")

// TokenIssuer 由 auth.JWTer 实现
type TokenIssuer interface {
	Issue(uid, role string) (string, time.Time, error)
	Parse(token string) (*auth.Claims, error)
}

type RegisterInput struct {
	Name     string `json:"name"     validate:"required,max=64"`
	Email    string `json:"email"    validate:"required,email,max=191"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Role     string `json:"role"     validate:"omitempty,oneof=user admin"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Session 登录成功后交给 transport 层写 cookie
type Session struct {
	Token     string
	ExpiresAt time.Time
}

type AuthService struct {
	accounts domain.AccountRepository
	tokens   TokenIssuer
	denylist cache.Denylist
	validate *validator.Validate
	newID    func() string
}

func NewAuthService(accounts domain.AccountRepository, tokens TokenIssuer, denylist cache.Denylist) *AuthService {
	if denylist == nil {
		denylist = cache.NewMemoryDenylist()
	}
	return &AuthService{
		accounts: accounts,
		tokens:   tokens,
		denylist: denylist,
		validate: newValidator(),
		newID:    utils.NewID,
	}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (domain.AccountView, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if err := s.validate.Struct(in); err != nil {
		authEvents.WithLabelValues("register", "invalid").Inc()
		return domain.AccountView{}, domain.Validation(validationMessage(err))
	}
	role, err := domain.ParseRole(in.Role)
	if err != nil {
		return domain.AccountView{}, domain.Validation(err.Error())
	}

	existing, err := s.accounts.FindByEmail(ctx, in.Email)
	if err != nil {
		return domain.AccountView{}, domain.Internal("lookup account failed", err)
	}
	if existing != nil {
		authEvents.WithLabelValues("register", "conflict").Inc()
		return domain.AccountView{}, domain.Conflict("email already registered")
	}

	hash, err := utils.HashPassword(in.Password)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return domain.AccountView{}, domain.Validation("password must be at most 72 bytes")
	}
	if err != nil {
		return domain.AccountView{}, domain.Internal("hash password failed", err)
	}

	acc := &domain.Account{
		ID:           s.newID(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.accounts.Create(ctx, acc); err != nil {
		// 并发注册同一邮箱时由唯一索引兜底
		if errors.Is(err, repo.ErrDuplicate) {
			authEvents.WithLabelValues("register", "conflict").Inc()
			return domain.AccountView{}, domain.Conflict("email already registered")
		}
		return domain.AccountView{}, domain.Internal("create account failed", err)
	}
	authEvents.WithLabelValues("register", "ok").Inc()
	return acc.View(), nil
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (domain.AccountView, Session, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" || in.Password == "" {
		return domain.AccountView{}, Session{}, domain.Validation("email and password are required")
	}
	acc, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		return domain.AccountView{}, Session{}, domain.Internal("lookup account failed", err)
	}
	if acc == nil {
		utils.BurnPasswordCheck(in.Password)
		authEvents.WithLabelValues("login", "rejected").Inc()
		return domain.AccountView{}, Session{}, errInvalidCredentials
	}
	if !utils.CheckPassword(in.Password, acc.PasswordHash) {
		authEvents.WithLabelValues("login", "rejected").Inc()
		return domain.AccountView{}, Session{}, errInvalidCredentials
	}

	tok, exp, err := s.tokens.Issue(acc.ID, string(acc.Role))
	if err != nil {
		return domain.AccountView{}, Session{}, domain.Internal("issue token failed", err)
	}
	authEvents.WithLabelValues("login", "ok").Inc()
	return acc.View(), Session{Token: tok, ExpiresAt: exp}, nil
}

// Verify 纯校验：签名、过期、角色取值、注销列表
func (s *AuthService) Verify(ctx context.Context, token string) (domain.Identity, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		authEvents.WithLabelValues("verify", "rejected").Inc()
		return domain.Identity{}, errInvalidToken
	}
	role := domain.Role(claims.Role)
	if !role.Valid() {
		authEvents.WithLabelValues("verify", "rejected").Inc()
		return domain.Identity{}, errInvalidToken
	}
	if claims.ID != "" {
		revoked, err := s.denylist.IsRevoked(ctx, claims.ID)
		if err != nil {
			return domain.Identity{}, domain.Internal("check token denylist failed", err)
		}
		if revoked {
			authEvents.WithLabelValues("verify", "revoked").Inc()
			return domain.Identity{}, errInvalidToken
		}
	}
	return domain.Identity{AccountID: claims.UID, Role: role}, nil
}

// Logout 令牌本身无状态；仍有效的 token 记入注销列表直到其自然过期
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	claims, err := s.tokens.Parse(token)
	if err != nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	if err := s.denylist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return domain.Internal("revoke token failed", err)
	}
	authEvents.WithLabelValues("logout", "revoked").Inc()
	return nil
}
