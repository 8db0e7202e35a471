package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/practiva/scheduling-api/internal/model"
	"github.com/practiva/scheduling-api/internal/repository/memory"
	bookingService "github.com/practiva/scheduling-api/internal/service/booking"
	"github.com/practiva/scheduling-api/pkg/logger"
	"github.com/practiva/scheduling-api/pkg/metrics"
	"github.com/practiva/scheduling-api/pkg/timerange"
)

type slotsResponse struct {
	Status string `json:"status"`
	Data   []struct {
		Display   string `json:"display_time"`
		Available bool   `json:"available"`
	} `json:"data"`
}

func newSlotsTestHandler(t *testing.T, defaultSlotMinutes int) (*Handler, *memory.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := memory.NewStore()
	log := logger.NewLogger(&logger.Config{
		Level:      logger.ErrorLevel,
		TimeFormat: time.RFC3339,
		Output:     io.Discard,
	})
	svc := bookingService.NewService(store, log, metrics.New("test"), time.Second)
	return NewHandler(svc, defaultSlotMinutes), store
}

func listSlots(t *testing.T, h *Handler, query string) slotsResponse {
	t.Helper()
	engine := gin.New()
	h.RegisterRoutes(engine.Group("/"))

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/slots?"+query, nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp slotsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestListSlotsUsesConfiguredDefaultDuration(t *testing.T) {
	h, store := newSlotsTestHandler(t, 20)
	practitionerID := uuid.New()
	day := time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)

	window := &model.AvailabilityWindow{
		ID:             uuid.New(),
		PractitionerID: practitionerID,
		Date:           day,
		StartTime:      timerange.NewClock(9, 0),
		EndTime:        timerange.NewClock(10, 0),
		Status:         model.WindowStatusActive,
	}
	require.NoError(t, store.Availability().Create(context.Background(), window))

	base := fmt.Sprintf("practitioner_id=%s&date=2026-09-02", practitionerID)

	// no duration param: the configured 20-minute default cuts three slots
	resp := listSlots(t, h, base)
	require.Len(t, resp.Data, 3)
	assert.Equal(t, "09:00 AM - 09:20 AM", resp.Data[0].Display)

	// an explicit duration still wins
	resp = listSlots(t, h, base+"&duration_minutes=30")
	assert.Len(t, resp.Data, 2)
}

func TestListSlotsRejectsBadQuery(t *testing.T) {
	h, _ := newSlotsTestHandler(t, 30)
	engine := gin.New()
	h.RegisterRoutes(engine.Group("/"))

	for _, query := range []string{
		"practitioner_id=not-a-uuid&date=2026-09-02",
		fmt.Sprintf("practitioner_id=%s&date=tomorrow", uuid.New()),
		fmt.Sprintf("practitioner_id=%s&date=2026-09-02&duration_minutes=soon", uuid.New()),
	} {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/slots?"+query, nil))
		assert.Equal(t, http.StatusBadRequest, w.Code, query)
	}
}
