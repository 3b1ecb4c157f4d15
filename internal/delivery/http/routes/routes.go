package routes

import (
	"syllabus-gap/internal/delivery/http/handler"
	"syllabus-gap/internal/ws"

	"github.com/gofiber/fiber/v3"
)

type Registry struct {
	health *handler.HealthHandler
	search *handler.SearchHandler
	ws     *ws.Handler
}

func NewRegistry(health *handler.HealthHandler, search *handler.SearchHandler, wsHandler *ws.Handler) *Registry {
	return &Registry{health: health, search: search, ws: wsHandler}
}

func (r *Registry) Register(app *fiber.App) {
	if app == nil {
		return
	}

	r.registerHealth(app)
	r.registerAPI(app)
	r.registerWS(app)
}

func (r *Registry) registerHealth(app *fiber.App) {
	if r.health != nil {
		r.health.RegisterRoutes(app)
	}
}

func (r *Registry) registerAPI(app *fiber.App) {
	v1 := app.Group("/api").Group("/v1")
	if r.search != nil {
		r.search.RegisterRoutes(v1)
	}
}

func (r *Registry) registerWS(app *fiber.App) {
	if r.ws != nil {
		r.ws.RegisterRoutes(app)
	}
}
