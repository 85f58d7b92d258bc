package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Pinger lo implementa el pool de la base de datos.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler expone /health.
type HealthHandler struct {
	service string
	db      Pinger
}

// NewHealthHandler db nil omite la comprobación de la base de datos.
func NewHealthHandler(service string, db Pinger) *HealthHandler {
	return &HealthHandler{service: service, db: db}
}

// Health godoc
// @Summary  Estado del servicio
// @Tags     health
// @Produce  json
// @Success  200  {object}  map[string]string
// @Failure  503  {object}  map[string]string
// @Router   /health [get]
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "degraded", "service": h.service, "db": "unreachable",
			})
		}
	}
	return c.JSON(fiber.Map{"status": "ok", "service": h.service})
}
