package handler

import (
	"context"
	"time"

	"syllabus-gap/internal/pkg/response"

	"github.com/gofiber/fiber/v3"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db    Pinger
	cache Pinger
}

// NewHealthHandler reports database reachability; cache is optional and only
// informational.
func NewHealthHandler(db Pinger, cache Pinger) *HealthHandler {
	return &HealthHandler{db: db, cache: cache}
}

func (h *HealthHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Get("/health", h.Health)
}

func (h *HealthHandler) Health(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()

	data := fiber.Map{"database": "ok", "cache": "disabled", "server_time": time.Now().UTC()}
	status := fiber.StatusOK

	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			data["database"] = "unavailable"
			status = fiber.StatusServiceUnavailable
		}
	}
	if h.cache != nil {
		data["cache"] = "ok"
		if err := h.cache.Ping(ctx); err != nil {
			data["cache"] = "unavailable"
		}
	}

	if status != fiber.StatusOK {
		return response.Error(c, status, "service unavailable", data)
	}
	return response.Success(c, status, response.MessageOK, data)
}
