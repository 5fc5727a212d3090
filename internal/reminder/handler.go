package reminder

import (
	"log/slog"
	"net/http"

	"github.com/eleven-am/classwatch/internal/alert"
	"github.com/eleven-am/classwatch/internal/dto"
	"github.com/eleven-am/classwatch/internal/shared"
	"github.com/labstack/echo/v4"
)

type Handler struct {
	dispatcher *Dispatcher
	store      *Store
	logger     *slog.Logger
}

func NewHandler(dispatcher *Dispatcher, store *Store, logger *slog.Logger) *Handler {
	return &Handler{
		dispatcher: dispatcher,
		store:      store,
		logger:     logger,
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("", h.Send)
	g.GET("", h.List)
}

// @Summary      Send a reminder
// @Description  Manual supervisor path; a missing message draws a template
// @Tags         reminders
// @Accept       json
// @Produce      json
// @Router       /reminders [post]
func (h *Handler) Send(c echo.Context) error {
	var req dto.SendReminderRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("invalid_body", "invalid request body")
	}
	if req.TeacherID == "" || req.SessionID == "" {
		return shared.BadRequest("missing_fields", "teacher_id and session_id are required")
	}

	rec, err := h.dispatcher.Send(c.Request().Context(), req.TeacherID, req.SessionID,
		alert.Type(req.Type), req.Message, SentBySupervisor)
	if err != nil {
		// The supervisor path fails loudly; the caller may resubmit.
		h.logger.Error("manual reminder failed", "error", err,
			"teacher_id", req.TeacherID, "session_id", req.SessionID)
		return shared.BadGateway("delivery_failed", "reminder could not be delivered")
	}

	return c.JSON(http.StatusCreated, rec)
}

// @Summary      List reminders for a teacher
// @Tags         reminders
// @Produce      json
// @Router       /reminders [get]
func (h *Handler) List(c echo.Context) error {
	teacherID := c.QueryParam("teacher_id")
	if teacherID == "" {
		return shared.BadRequest("missing_teacher_id", "teacher_id is required")
	}

	recs, err := h.store.ListForTeacher(c.Request().Context(), teacherID, 100)
	if err != nil {
		h.logger.Error("failed to list reminders", "error", err, "teacher_id", teacherID)
		return shared.InternalError("list_failed", "failed to list reminders")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"reminders": recs,
		"count":     len(recs),
	})
}
