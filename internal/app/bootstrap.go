package app

import (
	"fmt"
	"strings"

	"syllabus-gap/internal/delivery/http/handler"
	"syllabus-gap/internal/delivery/http/middleware"
	"syllabus-gap/internal/delivery/http/routes"
	"syllabus-gap/internal/pkg/logger"
	"syllabus-gap/internal/ws"

	"github.com/gofiber/fiber/v3"
)

type App struct {
	Fiber *fiber.App
}

func New(c *Container) *App {
	f := fiber.New(fiber.Config{AppName: c.Config.App.AppName})

	registerGlobalMiddleware(f, c.Log)
	registerRoutes(f, c)

	return &App{Fiber: f}
}

// Bootstrap builds the HTTP app on top of c. The returned cleanup releases
// the container.
func Bootstrap(c *Container) (*App, func() error, error) {
	if c == nil {
		return nil, nil, fmt.Errorf("nil container")
	}
	return New(c), c.Close, nil
}

func registerGlobalMiddleware(app *fiber.App, log *logger.Logger) {
	if app == nil {
		return
	}

	app.Use(middleware.NewAccessLogMiddleware(log).Middleware())
	app.Use(middleware.NewErrorMiddleware(log).Middleware())
}

func registerRoutes(app *fiber.App, c *Container) {
	if app == nil {
		return
	}

	var cachePinger handler.Pinger
	if c.Cache != nil && c.Cache.Available() {
		cachePinger = c.Cache
	}

	routes.NewRegistry(
		handler.NewHealthHandler(c.StoragePinger(), cachePinger),
		handler.NewSearchHandler(c.Search),
		ws.NewHandler(c.Hub, c.Log),
	).Register(app)
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}
