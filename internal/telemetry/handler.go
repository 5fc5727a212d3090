package telemetry

import (
	"log/slog"
	"net/http"

	"github.com/eleven-am/classwatch/internal/shared"
	"github.com/labstack/echo/v4"
)

// Handler is the push ingest surface: the backend may POST snapshots
// directly instead of being polled.
type Handler struct {
	ingestor *Ingestor
	logger   *slog.Logger
}

func NewHandler(ingestor *Ingestor, logger *slog.Logger) *Handler {
	return &Handler{
		ingestor: ingestor,
		logger:   logger,
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("", h.IngestOne)
	g.POST("/batch", h.IngestBatch)
}

// @Summary      Ingest one telemetry snapshot
// @Tags         telemetry
// @Accept       json
// @Router       /telemetry [post]
func (h *Handler) IngestOne(c echo.Context) error {
	var snap Snapshot
	if err := c.Bind(&snap); err != nil {
		return shared.BadRequest("invalid_body", "invalid snapshot body")
	}

	if err := h.ingestor.Ingest(c.Request().Context(), snap); err != nil {
		return shared.UnprocessableEntity("invalid_snapshot", err.Error())
	}
	return c.NoContent(http.StatusAccepted)
}

// @Summary      Ingest a telemetry batch
// @Tags         telemetry
// @Accept       json
// @Produce      json
// @Router       /telemetry/batch [post]
func (h *Handler) IngestBatch(c echo.Context) error {
	var body struct {
		Snapshots []Snapshot `json:"snapshots"`
	}
	if err := c.Bind(&body); err != nil {
		return shared.BadRequest("invalid_body", "invalid batch body")
	}

	accepted := h.ingestor.IngestBatch(c.Request().Context(), body.Snapshots)
	return c.JSON(http.StatusAccepted, map[string]any{
		"accepted": accepted,
		"dropped":  len(body.Snapshots) - accepted,
	})
}
