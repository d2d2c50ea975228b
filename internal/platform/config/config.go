package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTPAddr  string
	Env       string
	PublicDir string
	PGDSN     string

	// Секрет подписи куки. Без него процесс не стартует.
	CookieSecret string
	SessionTTL   time.Duration

	// Булев шлюз: один общий пароль доступа. Пусто — вход только по аккаунтам.
	AccessPassword string

	LoginWindow     time.Duration
	ResendWindow    time.Duration
	CodeTTL         time.Duration
	CodeMaxAttempts int

	InviteCode        string
	InviteMaxFailures int
	InviteWindow      time.Duration

	SweepInterval time.Duration

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	// Доверять заголовкам X-Forwarded-For/X-Real-IP (за реверс-прокси).
	TrustProxy bool
}

func Load() Config {
	cfg := Config{
		HTTPAddr:  getenv("HTTP_ADDR", ":8080"),
		Env:       os.Getenv("APP_ENV"),
		PublicDir: getenv("PUBLIC_DIR", "./public"),
		PGDSN:     os.Getenv("PG_DSN"),

		CookieSecret: os.Getenv("COOKIE_SECRET"),
		SessionTTL:   getdur("SESSION_TTL", 240*time.Hour),

		AccessPassword: os.Getenv("ACCESS_PASSWORD"),

		LoginWindow:     getdur("LOGIN_WINDOW", 10*time.Second),
		ResendWindow:    getdur("RESEND_WINDOW", 60*time.Second),
		CodeTTL:         getdur("CODE_TTL", 10*time.Minute),
		CodeMaxAttempts: getint("CODE_MAX_ATTEMPTS", 5),

		InviteCode:        os.Getenv("INVITE_CODE"),
		InviteMaxFailures: getint("INVITE_MAX_FAILURES", 5),
		InviteWindow:      getdur("INVITE_WINDOW", 10*time.Minute),

		SweepInterval: getdur("SWEEP_INTERVAL", 5*time.Minute),

		// пустой SMTP_HOST — коды уходят в лог (dev-режим)
		SMTPHost: os.Getenv("SMTP_HOST"),
		SMTPPort: getint("SMTP_PORT", 1025),
		SMTPUser: os.Getenv("SMTP_USER"),
		SMTPPass: os.Getenv("SMTP_PASS"),
		SMTPFrom: getenv("SMTP_FROM", "no-reply@example.com"),

		TrustProxy: getenv("TRUST_PROXY", "true") == "true",
	}

	if cfg.CookieSecret == "" {
		// стартовое предусловие: без секрета трафик не обслуживаем
		log.Fatal("COOKIE_SECRET is not set")
	}
	return cfg
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
