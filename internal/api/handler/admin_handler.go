package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// SystemStats is a point-in-time view of the in-process auth state.
type SystemStats struct {
	BlacklistedTokens int    `json:"blacklisted_tokens"`
	ValidationKeys    int    `json:"validation_keys"`
	TokenRecords      int    `json:"token_records"`
	AuditDropped      uint64 `json:"audit_events_dropped"`
}

type systemStatusResponse struct {
	Status        string      `json:"status"`
	UptimeSeconds int64       `json:"uptime_seconds"`
	Stats         SystemStats `json:"stats"`
}

type dashboardResponse struct {
	Admin meResponse  `json:"admin"`
	Stats SystemStats `json:"stats"`
}

type AdminHandler struct {
	stats   func() SystemStats
	started time.Time
	now     func() time.Time
}

func NewAdminHandler(stats func() SystemStats) *AdminHandler {
	return &AdminHandler{stats: stats, started: time.Now(), now: time.Now}
}

// SystemStatus reports process uptime and validation state counters.
//
// @Summary      System status
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  systemStatusResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Router       /admin/system/status [get]
func (h *AdminHandler) SystemStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, systemStatusResponse{
		Status:        "ok",
		UptimeSeconds: int64(h.now().Sub(h.started).Seconds()),
		Stats:         h.stats(),
	})
}

// Dashboard returns the calling admin together with the system counters.
//
// @Summary      Admin dashboard
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dashboardResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Router       /admin/dashboard [get]
func (h *AdminHandler) Dashboard(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dashboardResponse{
		Admin: toMeResponse(claims),
		Stats: h.stats(),
	})
}
