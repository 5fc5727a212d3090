package roster

import (
	"log/slog"
	"net/http"

	"github.com/eleven-am/classwatch/internal/shared"
	"github.com/labstack/echo/v4"
)

type Handler struct {
	store  *Store
	logger *slog.Logger
}

func NewHandler(store *Store, logger *slog.Logger) *Handler {
	return &Handler{
		store:  store,
		logger: logger,
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.List)
}

func (h *Handler) List(c echo.Context) error {
	teachers, err := h.store.ListTeachers(c.Request().Context())
	if err != nil {
		h.logger.Error("failed to list teachers", "error", err)
		return shared.InternalError("list_failed", "failed to list teachers")
	}
	return c.JSON(http.StatusOK, map[string]any{
		"teachers": teachers,
		"count":    len(teachers),
	})
}
