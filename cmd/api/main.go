package main

import (
	"context"
	"log"
	"path/filepath"

	"gemchat/internal/db"
	authhttp "gemchat/internal/modules/auth/http"
	"gemchat/internal/modules/chat"
	"gemchat/internal/platform/config"
	phttp "gemchat/internal/platform/http"
	"gemchat/internal/platform/notify"
	"gemchat/internal/platform/security"
)

func main() {
	cfg := config.Load()

	sessions := security.NewSessionManager(cfg.CookieSecret, cfg.SessionTTL)

	var authModule *authhttp.Module
	if cfg.PGDSN != "" {
		pool := db.MustOpen(cfg.PGDSN)
		defer pool.Close()
		authModule = authhttp.NewModulePG(pool, cfg, sessions)
	} else {
		authModule = authhttp.NewModule(cfg, sessions)
	}
	if cfg.SMTPHost != "" {
		mailer := notify.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom)
		authModule.WithMailer(mailer)
	}

	chatModule := chat.NewModule(sessions, authModule.Users(), nil)
	authModule.WithRevoker(chatModule.Hub())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	authModule.StartSweeps(ctx)

	gate := phttp.SessionGate(sessions, phttp.GateOptions{
		AllowPaths: append(authhttp.PublicPaths(),
			"/login.html", "/signup.html", "/theme.js", "/color.css",
			"/favicon.ico", "/manifest.json",
			"/ws", // канал авторизует рукопожатие сам
		),
		LoginPage:    filepath.Join(cfg.PublicDir, "login.html"),
		SecureCookie: cfg.Env == "production",
	})

	app := phttp.NewServer(phttp.Options{
		AppName:   "gemchat",
		PublicDir: cfg.PublicDir,
		Gate:      gate,
	}, authModule, chatModule)

	log.Printf("listening on %s", cfg.HTTPAddr)
	if err := app.Listen(cfg.HTTPAddr); err != nil {
		log.Fatal(err)
	}
}
