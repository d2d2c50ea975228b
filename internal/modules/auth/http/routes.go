package http

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"

	"gemchat/internal/modules/auth/domain"
	"gemchat/internal/modules/auth/infra"
	pg "gemchat/internal/modules/auth/infra/pg"
	"gemchat/internal/modules/auth/verify"
	"gemchat/internal/platform/config"
	"gemchat/internal/platform/notify"
	"gemchat/internal/platform/ratelimit"
	"gemchat/internal/platform/security"
)

var validate = validator.New()

// Revoker закрывает открытые realtime-каналы пользователя (chat.Hub).
type Revoker interface {
	CloseUser(userID string) int
}

// Module wires up dependencies for the auth HTTP module.
type Module struct {
	users     domain.UserRepo
	codeStore *infra.MemCodeStore
	verify    *verify.Service
	sessions  *security.SessionManager

	loginLimiter  *ratelimit.Limiter
	inviteLimiter *ratelimit.FailureLimiter

	accessPassword string
	inviteCode     string
	secureCookie   bool
	trustProxy     bool
	sweepInterval  time.Duration

	revoker Revoker // может быть nil: тогда logout ничего не закрывает
}

func NewModule(cfg config.Config, sessions *security.SessionManager) *Module {
	return newModule(infra.NewMemUserRepo(), cfg, sessions)
}

// NewModulePG creates a PG-backed user repo; коды и лимиты остаются в памяти.
func NewModulePG(db *pgxpool.Pool, cfg config.Config, sessions *security.SessionManager) *Module {
	return newModule(pg.NewUserRepo(db), cfg, sessions)
}

func newModule(users domain.UserRepo, cfg config.Config, sessions *security.SessionManager) *Module {
	store := infra.NewMemCodeStore(cfg.CodeTTL)
	m := &Module{
		users:     users,
		codeStore: store,
		sessions:  sessions,

		loginLimiter:  ratelimit.NewLimiter(cfg.LoginWindow),
		inviteLimiter: ratelimit.NewFailureLimiter(cfg.InviteWindow, cfg.InviteMaxFailures),

		accessPassword: cfg.AccessPassword,
		inviteCode:     cfg.InviteCode,
		secureCookie:   cfg.Env == "production",
		trustProxy:     cfg.TrustProxy,
		sweepInterval:  cfg.SweepInterval,
	}
	m.verify = verify.NewService(users, store, notify.LogSender{},
		cfg.ResendWindow, cfg.CodeTTL, cfg.CodeMaxAttempts)
	return m
}

func (m *Module) WithMailer(s notify.Sender) *Module {
	m.verify.SetSender(s)
	return m
}

func (m *Module) WithRevoker(r Revoker) *Module {
	m.revoker = r
	return m
}

// Users отдаёт репозиторий пользователей другим модулям (chat).
func (m *Module) Users() domain.UserRepo { return m.users }

func (m *Module) Register(r fiber.Router) {
	api := r.Group("/api")
	api.Post("/login", m.login)
	api.Post("/logout", m.logout)
	api.Post("/register/code", m.registerCode)
	api.Post("/register/confirm", m.registerConfirm)
	api.Post("/reset/code", m.resetCode)
	api.Post("/reset/confirm", m.resetConfirm)
}

// PublicPaths — эндпоинты модуля, открытые шлюзу без сессии.
func PublicPaths() []string {
	return []string{
		"/api/login",
		"/api/logout",
		"/api/register/code",
		"/api/register/confirm",
		"/api/reset/code",
		"/api/reset/confirm",
	}
}

// StartSweeps запускает фоновые очистки: лимитеры и хранилище кодов.
// Память остаётся ограниченной независимо от формы трафика.
func (m *Module) StartSweeps(ctx context.Context) {
	go m.loginLimiter.Run(ctx, m.sweepInterval)
	go m.inviteLimiter.Run(ctx, m.sweepInterval)
	go m.verify.ResendLimiter().Run(ctx, m.sweepInterval)
	go m.codeStore.Run(ctx, m.sweepInterval)
}
