package booking

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/practiva/scheduling-api/internal/handler"
	"github.com/practiva/scheduling-api/internal/middleware"
	"github.com/practiva/scheduling-api/internal/model"
	"github.com/practiva/scheduling-api/internal/service/booking"
	"github.com/practiva/scheduling-api/pkg/timerange"
)

const dateLayout = "2006-01-02"

type Handler struct {
	service            *booking.Service
	defaultSlotMinutes int
}

func NewHandler(service *booking.Service, defaultSlotMinutes int) *Handler {
	if defaultSlotMinutes <= 0 {
		defaultSlotMinutes = 30
	}
	return &Handler{service: service, defaultSlotMinutes: defaultSlotMinutes}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/slots", h.ListSlots)

	appointments := rg.Group("/appointments")
	{
		appointments.GET("/check", h.Check)
		appointments.POST("", h.Book)
		appointments.GET("", h.List)
		appointments.GET("/count", h.Count)
		appointments.GET("/:id", h.Get)
		appointments.POST("/:id/cancel", h.Cancel)
		appointments.POST("/:id/complete", h.Complete)
	}
}

// ListSlots returns the bookable slot grid for a practitioner and date.
// ?practitioner_id=&date=&duration_minutes= (duration falls back to the
// configured default).
func (h *Handler) ListSlots(c *gin.Context) {
	practitionerID, err := uuid.Parse(c.Query("practitioner_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid practitioner ID"))
		return
	}
	date, err := time.Parse(dateLayout, c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid date"))
		return
	}
	minutes, err := strconv.Atoi(c.DefaultQuery("duration_minutes", strconv.Itoa(h.defaultSlotMinutes)))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid duration"))
		return
	}

	slots, err := h.service.ListBookableSlots(c.Request.Context(), practitionerID, date, time.Duration(minutes)*time.Minute)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(slots))
}

// Check reports whether a given range is bookable without committing anything.
// ?practitioner_id=&date=&start_time=&end_time=
func (h *Handler) Check(c *gin.Context) {
	practitionerID, date, start, end, err := parseSlotQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	bookable, err := h.service.IsBookable(c.Request.Context(), practitionerID, date, start, end)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"bookable": bookable}))
}

// Book creates a scheduled appointment for the authenticated client.
func (h *Handler) Book(c *gin.Context) {
	principal, ok := middleware.PrincipalFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("missing principal"))
		return
	}

	var req model.BookAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	practitionerID, err := uuid.Parse(req.PractitionerID)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid practitioner ID"))
		return
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid date"))
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

	appointment, err := h.service.Book(c.Request.Context(), practitionerID, principal.ID, date, start, end)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(appointment))
}

// List serves the appointment query surface for the caller:
// ?role=practitioner|client (default client), ?scope=upcoming|past|all,
// or ?start_date=&end_date= for a range.
func (h *Handler) List(c *gin.Context) {
	principal, ok := middleware.PrincipalFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("missing principal"))
		return
	}
	ctx := c.Request.Context()
	asPractitioner := c.DefaultQuery("role", "client") == "practitioner"

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
		var appointments []*model.Appointment
		if asPractitioner {
			appointments, err = h.service.RangeForPractitioner(ctx, principal.ID, startDate, endDate)
		} else {
			appointments, err = h.service.RangeForClient(ctx, principal.ID, startDate, endDate)
		}
		if err != nil {
			handler.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, handler.NewSuccessResponse(appointments))
		return
	}

	var (
		appointments []*model.Appointment
		err          error
	)
	switch c.DefaultQuery("scope", "upcoming") {
	case "upcoming":
		if asPractitioner {
			appointments, err = h.service.UpcomingForPractitioner(ctx, principal.ID)
		} else {
			appointments, err = h.service.UpcomingForClient(ctx, principal.ID)
		}
	case "past":
		if asPractitioner {
			appointments, err = h.service.PastForPractitioner(ctx, principal.ID)
		} else {
			appointments, err = h.service.PastForClient(ctx, principal.ID)
		}
	case "all":
		if asPractitioner {
			appointments, err = h.service.ListByPractitioner(ctx, principal.ID)
		} else {
			appointments, err = h.service.ListByClient(ctx, principal.ID)
		}
	default:
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid scope"))
		return
	}
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(appointments))
}

func (h *Handler) Count(c *gin.Context) {
	principal, ok := middleware.PrincipalFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("missing principal"))
		return
	}

	var (
		count int64
		err   error
	)
	if c.DefaultQuery("role", "client") == "practitioner" {
		count, err = h.service.CountForPractitioner(c.Request.Context(), principal.ID)
	} else {
		count, err = h.service.CountForClient(c.Request.Context(), principal.ID)
	}
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"count": count}))
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	appointment, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(appointment))
}

func (h *Handler) Cancel(c *gin.Context) {
	h.transition(c, h.service.Cancel)
}

func (h *Handler) Complete(c *gin.Context) {
	h.transition(c, h.service.Complete)
}

func (h *Handler) transition(c *gin.Context, fn func(ctx context.Context, id uuid.UUID) error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	if err := fn(c.Request.Context(), id); err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func parseSlotQuery(c *gin.Context) (uuid.UUID, time.Time, timerange.Clock, timerange.Clock, error) {
	practitionerID, err := uuid.Parse(c.Query("practitioner_id"))
	if err != nil {
		return uuid.Nil, time.Time{}, timerange.Clock{}, timerange.Clock{}, fmt.Errorf("invalid practitioner ID")
	}
	date, err := time.Parse(dateLayout, c.Query("date"))
	if err != nil {
		return uuid.Nil, time.Time{}, timerange.Clock{}, timerange.Clock{}, fmt.Errorf("invalid date")
	}
	start, err := timerange.ParseClock(c.Query("start_time"))
	if err != nil {
		return uuid.Nil, time.Time{}, timerange.Clock{}, timerange.Clock{}, fmt.Errorf("invalid start time")
	}
	end, err := timerange.ParseClock(c.Query("end_time"))
	if err != nil {
		return uuid.Nil, time.Time{}, timerange.Clock{}, timerange.Clock{}, fmt.Errorf("invalid end time")
	}
	return practitionerID, date, start, end, nil
}
