package availability

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/practiva/scheduling-api/internal/handler"
	"github.com/practiva/scheduling-api/internal/middleware"
	"github.com/practiva/scheduling-api/internal/model"
	"github.com/practiva/scheduling-api/internal/service/availability"
	"github.com/practiva/scheduling-api/pkg/timerange"
)

const dateLayout = "2006-01-02"

type Handler struct {
	service *availability.Service
}

func NewHandler(service *availability.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	windows := rg.Group("/windows")
	{
		windows.POST("", h.Publish)
		windows.POST("/range", h.PublishRange)
		windows.POST("/recurring", h.PublishRecurring)
		windows.GET("", h.List)
		windows.GET("/next", h.NextUpcoming)
		windows.GET("/stats", h.Stats)
		windows.GET("/:id", h.Get)
		windows.DELETE("/:id", h.Deactivate)
		windows.POST("/:id/reactivate", h.Reactivate)
	}
	rg.GET("/practitioners", h.PractitionersForDate)
}

func (h *Handler) Publish(c *gin.Context) {
	principal, ok := middleware.PrincipalFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("missing principal"))
		return
	}

	var req model.PublishWindowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	date, start, end, err := parseWindowFields(req.Date, req.StartTime, req.EndTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	window, err := h.service.Publish(c.Request.Context(), principal.ID, date, start, end)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(window))
}

func (h *Handler) PublishRange(c *gin.Context) {
	principal, ok := middleware.PrincipalFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("missing principal"))
		return
	}

	var req model.PublishRangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	startDate, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid start date"))
		return
	}
	endDate, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid end date"))
		return
	}
	start, err := timerange.ParseClock(req.StartTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid start time"))
		return
	}
	end, err := timerange.ParseClock(req.EndTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid end time"))
		return
	}

	windows, err := h.service.PublishRange(c.Request.Context(), principal.ID, startDate, endDate, start, end)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(windows))
}

func (h *Handler) PublishRecurring(c *gin.Context) {
	principal, ok := middleware.PrincipalFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("missing principal"))
		return
	}

	var req model.PublishRecurringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	startDate, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid start date"))
		return
	}
	endDate, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid end date"))
		return
	}
	start, err := timerange.ParseClock(req.StartTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid start time"))
		return
	}
	end, err := timerange.ParseClock(req.EndTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid end time"))
		return
	}
	days, err := parseWeekdays(req.DaysOfWeek)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	windows, err := h.service.PublishRecurring(c.Request.Context(), principal.ID, startDate, endDate, days, start, end)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(windows))
}

// List serves the query surface: ?date=, ?scope=active|upcoming|past, or
// ?start_date=&end_date=.
func (h *Handler) List(c *gin.Context) {
	principal, ok := middleware.PrincipalFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("missing principal"))
		return
	}
	ctx := c.Request.Context()

	if d := c.Query("date"); d != "" {
		date, err := time.Parse(dateLayout, d)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid date"))
			return
		}
		window, err := h.service.WindowForDate(ctx, principal.ID, date)
		if err != nil {
			handler.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, handler.NewSuccessResponse(window))
		return
	}

	if sd, ed := c.Query("start_date"), c.Query("end_date"); sd != "" || ed != "" {
		startDate, err := time.Parse(dateLayout, sd)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid start date"))
			return
		}
		endDate, err := time.Parse(dateLayout, ed)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid end date"))
			return
		}
		windows, err := h.service.ListRange(ctx, principal.ID, startDate, endDate)
		if err != nil {
			handler.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, handler.NewSuccessResponse(windows))
		return
	}

	var (
		windows []*model.AvailabilityWindow
		err     error
	)
	switch c.DefaultQuery("scope", "active") {
	case "upcoming":
		windows, err = h.service.ListUpcoming(ctx, principal.ID)
	case "past":
		windows, err = h.service.ListPast(ctx, principal.ID)
	case "active":
		windows, err = h.service.ListActive(ctx, principal.ID)
	default:
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid scope"))
		return
	}
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(windows))
}

func (h *Handler) NextUpcoming(c *gin.Context) {
	principal, ok := middleware.PrincipalFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("missing principal"))
		return
	}

	window, err := h.service.NextUpcoming(c.Request.Context(), principal.ID)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(window))
}

func (h *Handler) Stats(c *gin.Context) {
	principal, ok := middleware.PrincipalFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("missing principal"))
		return
	}

	stats, err := h.service.Stats(c.Request.Context(), principal.ID)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(stats))
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid window ID"))
		return
	}

	window, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(window))
}

func (h *Handler) Deactivate(c *gin.Context) {
	principal, ok := middleware.PrincipalFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("missing principal"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid window ID"))
		return
	}

	if err := h.service.DeactivateAsOwner(c.Request.Context(), id, principal.ID); err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) Reactivate(c *gin.Context) {
	principal, ok := middleware.PrincipalFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("missing principal"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid window ID"))
		return
	}

	if err := h.service.Reactivate(c.Request.Context(), id, principal.ID); err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) PractitionersForDate(c *gin.Context) {
	date, err := time.Parse(dateLayout, c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid date"))
		return
	}

	ids, err := h.service.PractitionersForDate(c.Request.Context(), date)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(ids))
}

func parseWindowFields(dateStr, startStr, endStr string) (time.Time, timerange.Clock, timerange.Clock, error) {
	date, err := time.Parse(dateLayout, dateStr)
	if err != nil {
		return time.Time{}, timerange.Clock{}, timerange.Clock{}, err
	}
	start, err := timerange.ParseClock(startStr)
	if err != nil {
		return time.Time{}, timerange.Clock{}, timerange.Clock{}, err
	}
	end, err := timerange.ParseClock(endStr)
	if err != nil {
		return time.Time{}, timerange.Clock{}, timerange.Clock{}, err
	}
	return date, start, end, nil
}

func parseWeekdays(names []string) ([]time.Weekday, error) {
	byName := map[string]time.Weekday{
		"sunday":    time.Sunday,
		"monday":    time.Monday,
		"tuesday":   time.Tuesday,
		"wednesday": time.Wednesday,
		"thursday":  time.Thursday,
		"friday":    time.Friday,
		"saturday":  time.Saturday,
	}

	days := make([]time.Weekday, 0, len(names))
	for _, name := range names {
		day, ok := byName[strings.ToLower(name)]
		if !ok {
			return nil, fmt.Errorf("invalid day of week: %s", name)
		}
		days = append(days, day)
	}
	return days, nil
}
