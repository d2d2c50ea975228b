package http

import (
	"github.com/gofiber/fiber/v2"
)

type Options struct {
	AppName   string
	PublicDir string
	// Gate — middleware авторизации; nil удобен в тестах отдельных модулей.
	Gate fiber.Handler
}

func NewServer(opts Options, modules ...Module) *fiber.App {
	app := fiber.New(fiber.Config{AppName: opts.AppName})

	// health
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"status": "ok"}) })

	if opts.Gate != nil {
		app.Use(opts.Gate)
	}

	// регистрация модулей
	for _, m := range modules {
		m.Register(app)
	}

	// статика закрыта тем же шлюзом, что и API
	if opts.PublicDir != "" {
		app.Static("/", opts.PublicDir)
	}
	return app
}
